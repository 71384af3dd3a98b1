package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

type Category struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name"          json:"name"`
}

// CategorySummary is the populated shape of an event's category.
type CategorySummary struct {
	ID   primitive.ObjectID `bson:"_id"  json:"id"`
	Name string             `bson:"name" json:"name"`
}
