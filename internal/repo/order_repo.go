package repo

import (
	"context"
	"time"

	"github.com/tazhibayda/events-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateOrder records a completed checkout. The order id is pushed onto
// the buyer's order_ids so DeleteUser can later unset the buyer field on
// exactly the orders this user placed.
func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	o.CreatedAt = time.Now().UTC()
	res, err := s.colOrders.InsertOne(ctx, o)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = oid
	}

	if o.Buyer.IsZero() {
		return nil
	}
	_, err = s.colUsers.UpdateOne(ctx,
		bson.M{"_id": o.Buyer},
		bson.M{"$push": bson.M{"order_ids": o.ID}},
	)
	return err
}
