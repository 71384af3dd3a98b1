package queue

import "go.mongodb.org/mongo-driver/bson/primitive"

// Routing keys: user.created, user.deleted, event.created, event.updated,
// event.deleted, order.created.

type UserCreated struct {
	UserID     primitive.ObjectID `json:"user_id"`
	ExternalID string             `json:"external_id"`
	Email      string             `json:"email"`
}

type UserDeleted struct {
	UserID     primitive.ObjectID `json:"user_id"`
	ExternalID string             `json:"external_id"`
}

type EventChanged struct {
	EventID   primitive.ObjectID `json:"event_id"`
	Organizer primitive.ObjectID `json:"organizer,omitempty"`
	Title     string             `json:"title,omitempty"`
}

type OrderCreated struct {
	OrderID   primitive.ObjectID `json:"order_id"`
	EventID   primitive.ObjectID `json:"event_id"`
	Buyer     primitive.ObjectID `json:"buyer,omitempty"`
	PaymentID string             `json:"payment_id"`
}
