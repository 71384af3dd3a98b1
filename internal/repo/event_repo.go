package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/tazhibayda/events-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateEvent inserts a new event owned by organizerID. The organizer
// must already exist; the event id is recorded on the user document so
// DeleteUser can later find and detach it. The returned event carries
// reference ids only — callers wanting populated shapes re-read via
// GetEventByID.
func (s *Store) CreateEvent(ctx context.Context, organizerID primitive.ObjectID, e *domain.Event) error {
	err := s.colUsers.FindOne(ctx, bson.M{"_id": organizerID}).Err()
	if err == mongo.ErrNoDocuments {
		return fmt.Errorf("organizer: %w", ErrNotFound)
	}
	if err != nil {
		return err
	}

	e.Organizer = organizerID
	e.CreatedAt = time.Now().UTC()
	res, err := s.colEvents.InsertOne(ctx, e)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		e.ID = oid
	}

	_, err = s.colUsers.UpdateOne(ctx,
		bson.M{"_id": organizerID},
		bson.M{"$push": bson.M{"event_ids": e.ID}},
	)
	return err
}

// GetEventByID returns the event with organizer and category populated.
func (s *Store) GetEventByID(ctx context.Context, id primitive.ObjectID) (*domain.EventDetail, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": id}}},
	}
	pipe = append(pipe, populateStages...)

	cur, err := s.colEvents.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("event: %w", ErrNotFound)
	}
	var d domain.EventDetail
	if err := cur.Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateEvent replaces the mutable fields of the event after checking
// that callerID owns it. A missing event and a foreign event are
// indistinguishable to the caller.
func (s *Store) UpdateEvent(ctx context.Context, callerID primitive.ObjectID, e *domain.Event) (*domain.Event, error) {
	var existing domain.Event
	err := s.colEvents.FindOne(ctx, bson.M{"_id": e.ID}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if existing.Organizer != callerID {
		return nil, ErrUnauthorized
	}

	update := bson.M{"$set": bson.M{
		"title":       e.Title,
		"description": e.Description,
		"location":    e.Location,
		"image_url":   e.ImageURL,
		"start_at":    e.StartAt,
		"end_at":      e.EndAt,
		"price":       e.Price,
		"is_free":     e.IsFree,
		"url":         e.URL,
		"category":    e.Category,
	}}

	var updated domain.Event
	err = s.colEvents.FindOneAndUpdate(ctx,
		bson.M{"_id": e.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		// deleted between the ownership read and the write; same surface
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEvent removes the event and reports whether anything was
// actually deleted. Deleting an absent id is a silent no-op.
func (s *Store) DeleteEvent(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.colEvents.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

// ListEvents runs the general listing: title substring AND resolved
// category, newest first, paginated and populated. A category name that
// resolves to nothing yields the empty page, not an error.
func (s *Store) ListEvents(ctx context.Context, p ListEventsParams) (EventPage, error) {
	cond := titleCondition(p.Query)
	if p.Category != "" {
		cat, err := s.FindCategoryByName(ctx, p.Category)
		if err != nil {
			return emptyEventPage(), err
		}
		if cat == nil {
			return emptyEventPage(), nil
		}
		cond = bson.M{"$and": bson.A{cond, bson.M{"category": cat.ID}}}
	}
	return s.listEvents(ctx, cond, p.Page, p.Limit, DefaultEventLimit)
}

// ListEventsByOrganizer lists the events a user organizes.
func (s *Store) ListEventsByOrganizer(ctx context.Context, organizer primitive.ObjectID, page, limit int) (EventPage, error) {
	return s.listEvents(ctx, organizerCondition(organizer), page, limit, DefaultEventLimit)
}

// ListRelatedEvents lists other events in the same category.
func (s *Store) ListRelatedEvents(ctx context.Context, category, exclude primitive.ObjectID, page, limit int) (EventPage, error) {
	return s.listEvents(ctx, relatedCondition(category, exclude), page, limit, DefaultRelatedLimit)
}

func (s *Store) listEvents(ctx context.Context, cond bson.M, page, limit, def int) (EventPage, error) {
	skip, lim := pageWindow(page, limit, def)

	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: cond}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		bson.D{{Key: "$skip", Value: skip}},
		bson.D{{Key: "$limit", Value: lim}},
	}
	pipe = append(pipe, populateStages...)

	cur, err := s.colEvents.Aggregate(ctx, pipe)
	if err != nil {
		return emptyEventPage(), err
	}
	defer cur.Close(ctx)

	items := []domain.EventDetail{}
	for cur.Next(ctx) {
		var d domain.EventDetail
		if err := cur.Decode(&d); err != nil {
			return emptyEventPage(), err
		}
		items = append(items, d)
	}
	if err := cur.Err(); err != nil {
		return emptyEventPage(), err
	}

	count, err := s.colEvents.CountDocuments(ctx, cond)
	if err != nil {
		return emptyEventPage(), err
	}
	return EventPage{Items: items, TotalPages: totalPages(count, lim)}, nil
}
