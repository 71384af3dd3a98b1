package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is written by the checkout webhook and only ever referenced
// afterwards. Buyer is omitempty: deleting a user unsets it while the
// order itself is retained for accounting.
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PaymentID   string             `bson:"payment_id"    json:"payment_id"`
	TotalAmount string             `bson:"total_amount"  json:"total_amount"`
	Event       primitive.ObjectID `bson:"event"         json:"event"`
	Buyer       primitive.ObjectID `bson:"buyer,omitempty" json:"buyer,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"    json:"created_at"`
}
