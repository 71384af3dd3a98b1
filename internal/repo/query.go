package repo

import (
	"regexp"

	"github.com/tazhibayda/events-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Default page sizes per listing variant.
const (
	DefaultEventLimit   = 6
	DefaultRelatedLimit = 3
)

// ListEventsParams drives the general event listing: optional
// case-insensitive substring match on the title, optional category name
// (resolved to at most one category), 1-indexed page.
type ListEventsParams struct {
	Query    string
	Category string
	Page     int
	Limit    int
}

type EventPage struct {
	Items      []domain.EventDetail `json:"items"`
	TotalPages int64                `json:"total_pages"`
}

func emptyEventPage() EventPage {
	return EventPage{Items: []domain.EventDetail{}}
}

// pageWindow clamps page/limit and returns the skip/limit pair.
// Pages below 1 and non-positive limits are not an error: they fall back
// to the first page and the variant default.
func pageWindow(page, limit, def int) (skip, lim int64) {
	if limit <= 0 {
		limit = def
	}
	if page < 1 {
		page = 1
	}
	return int64(limit) * int64(page-1), int64(limit)
}

// totalPages is ceil(count/limit); an empty result set has zero pages.
func totalPages(count, limit int64) int64 {
	if count <= 0 {
		return 0
	}
	return (count + limit - 1) / limit
}

// titleCondition matches the title as a case-insensitive substring.
// User input is quoted so it cannot smuggle regex syntax into the query.
func titleCondition(q string) bson.M {
	if q == "" {
		return bson.M{}
	}
	return bson.M{"title": primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}}
}

func organizerCondition(organizer primitive.ObjectID) bson.M {
	return bson.M{"organizer": organizer}
}

func relatedCondition(category, exclude primitive.ObjectID) bson.M {
	return bson.M{"$and": bson.A{
		bson.M{"category": category},
		bson.M{"_id": bson.M{"$ne": exclude}},
	}}
}

// populateStages expands the organizer and category references into
// partial copies of the referenced documents. Built once at init and
// read-only afterwards; every listing variant appends the same stages.
var populateStages = mongo.Pipeline{
	{{Key: "$lookup", Value: bson.M{
		"from": "users", "localField": "organizer", "foreignField": "_id",
		"as": "organizer",
	}}},
	{{Key: "$lookup", Value: bson.M{
		"from": "categories", "localField": "category", "foreignField": "_id",
		"as": "category",
	}}},
	// $arrayElemAt on an empty lookup result leaves the field unset, which
	// is exactly what an organizer-less event should decode to.
	{{Key: "$set", Value: bson.M{
		"organizer": bson.M{"$arrayElemAt": bson.A{"$organizer", 0}},
		"category":  bson.M{"$arrayElemAt": bson.A{"$category", 0}},
	}}},
	{{Key: "$project", Value: bson.M{
		"title": 1, "description": 1, "location": 1, "image_url": 1,
		"start_at": 1, "end_at": 1, "price": 1, "is_free": 1, "url": 1,
		"created_at": 1,
		"organizer._id": 1, "organizer.first_name": 1, "organizer.last_name": 1,
		"category._id": 1, "category.name": 1,
	}}},
}
