package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is created from the identity-provider webhook on first sign-up.
// ExternalID is the provider-side id; webhooks address users by it, the rest
// of the system by the Mongo _id. EventIDs/OrderIDs record what the user
// organizes and bought, and drive the cleanup on deletion.
type User struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"  json:"id"`
	ExternalID string               `bson:"external_id"    json:"external_id"`
	Email      string               `bson:"email"          json:"email"`
	Username   string               `bson:"username"       json:"username"`
	FirstName  string               `bson:"first_name"     json:"first_name"`
	LastName   string               `bson:"last_name"      json:"last_name"`
	Photo      string               `bson:"photo,omitempty" json:"photo,omitempty"`
	EventIDs   []primitive.ObjectID `bson:"event_ids,omitempty" json:"event_ids,omitempty"`
	OrderIDs   []primitive.ObjectID `bson:"order_ids,omitempty" json:"order_ids,omitempty"`
	CreatedAt  time.Time            `bson:"created_at"     json:"created_at"`
}

// UserSummary is the populated shape of an event's organizer.
type UserSummary struct {
	ID        primitive.ObjectID `bson:"_id"        json:"id"`
	FirstName string             `bson:"first_name" json:"first_name"`
	LastName  string             `bson:"last_name"  json:"last_name"`
}
