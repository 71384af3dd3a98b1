package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event as stored: organizer and category are references. Organizer is
// omitempty because deleting a user clears the field; such events remain
// listable without an owner.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title"         json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Location    string             `bson:"location,omitempty"    json:"location,omitempty"`
	ImageURL    string             `bson:"image_url,omitempty"   json:"image_url,omitempty"`
	StartAt     time.Time          `bson:"start_at"      json:"start_at"`
	EndAt       time.Time          `bson:"end_at"        json:"end_at"`
	Price       string             `bson:"price,omitempty" json:"price,omitempty"`
	IsFree      bool               `bson:"is_free"       json:"is_free"`
	URL         string             `bson:"url,omitempty" json:"url,omitempty"`
	Organizer   primitive.ObjectID `bson:"organizer,omitempty" json:"organizer,omitempty"`
	Category    primitive.ObjectID `bson:"category"      json:"category"`
	CreatedAt   time.Time          `bson:"created_at"    json:"created_at"`
}

// EventDetail is the populated read shape: the organizer and category
// references replaced by partial copies of the referenced documents.
type EventDetail struct {
	ID          primitive.ObjectID `bson:"_id"          json:"id"`
	Title       string             `bson:"title"        json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Location    string             `bson:"location,omitempty"    json:"location,omitempty"`
	ImageURL    string             `bson:"image_url,omitempty"   json:"image_url,omitempty"`
	StartAt     time.Time          `bson:"start_at"     json:"start_at"`
	EndAt       time.Time          `bson:"end_at"       json:"end_at"`
	Price       string             `bson:"price,omitempty" json:"price,omitempty"`
	IsFree      bool               `bson:"is_free"      json:"is_free"`
	URL         string             `bson:"url,omitempty" json:"url,omitempty"`
	Organizer   *UserSummary       `bson:"organizer,omitempty" json:"organizer,omitempty"`
	Category    *CategorySummary   `bson:"category,omitempty"  json:"category,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"   json:"created_at"`
}
