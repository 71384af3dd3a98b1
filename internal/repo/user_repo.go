package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/tazhibayda/events-service/internal/domain"
	"github.com/tazhibayda/events-service/internal/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UserPatch carries the profile fields the identity provider may change.
type UserPatch struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Photo     string `json:"photo"`
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	u.CreatedAt = time.Now().UTC()
	res, err := s.colUsers.InsertOne(ctx, u)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var u domain.User
	err := s.colUsers.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	var u domain.User
	err := s.colUsers.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser applies the patch to the user addressed by the provider-side
// id and returns the updated record.
func (s *Store) UpdateUser(ctx context.Context, externalID string, p UserPatch) (*domain.User, error) {
	update := bson.M{"$set": bson.M{
		"username":   p.Username,
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"photo":      p.Photo,
	}}
	var u domain.User
	err := s.colUsers.FindOneAndUpdate(ctx,
		bson.M{"external_id": externalID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("user %q: %w", externalID, ErrUpdateFailed)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes the user and detaches every reference other
// collections hold on it: the organizer field of the user's events is
// unset (the events live on, owner-less) and the buyer field of the
// user's orders is unset (the orders are kept for accounting). The two
// cleanup writes run concurrently; both must finish before the user
// document itself is deleted.
//
// There is no cross-collection transaction here. If the process dies
// between the cleanup and the final delete, a re-run of DeleteUser
// reconciles the rest; each failed leg is logged so operators can see
// which side is stale.
func (s *Store) DeleteUser(ctx context.Context, externalID string) (*domain.User, error) {
	var u domain.User
	err := s.colUsers.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("user %q: %w", externalID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.colEvents.UpdateMany(gctx,
			bson.M{"_id": bson.M{"$in": u.EventIDs}},
			bson.M{"$unset": bson.M{"organizer": ""}},
		)
		if err != nil {
			log.L.Error("detach organizer from events failed",
				zap.String("user_id", u.ID.Hex()), zap.Error(err))
		}
		return err
	})
	g.Go(func() error {
		_, err := s.colOrders.UpdateMany(gctx,
			bson.M{"_id": bson.M{"$in": u.OrderIDs}},
			bson.M{"$unset": bson.M{"buyer": ""}},
		)
		if err != nil {
			log.L.Error("unset buyer on orders failed",
				zap.String("user_id", u.ID.Hex()), zap.Error(err))
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res, err := s.colUsers.DeleteOne(ctx, bson.M{"_id": u.ID})
	if err != nil {
		return nil, err
	}
	if res.DeletedCount == 0 {
		// raced with another delete; references are already detached
		return nil, nil
	}
	return &u, nil
}
