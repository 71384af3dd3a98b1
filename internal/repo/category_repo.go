package repo

import (
	"context"
	"regexp"
	"strings"

	"github.com/tazhibayda/events-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	c := domain.Category{Name: strings.TrimSpace(name)}
	res, err := s.colCategories.InsertOne(ctx, &c)
	if IsDup(err) {
		return nil, ErrCategoryExists
	}
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cur, err := s.colCategories.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.Category
	for cur.Next(ctx) {
		var c domain.Category
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, cur.Err()
}

// FindCategoryByName resolves a case-insensitive substring match to at
// most one category. Substring matching can hit several names ("art"
// matches both "Arts" and "Street Art"), so the tie-break is fixed: an
// exact case-insensitive match wins, otherwise the alphabetically first
// match does. Returns nil when nothing matches.
func (s *Store) FindCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}}

	cur, err := s.colCategories.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var matches []domain.Category
	for cur.Next(ctx) {
		var c domain.Category
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		matches = append(matches, c)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return pickCategory(matches, name), nil
}

func pickCategory(matches []domain.Category, name string) *domain.Category {
	if len(matches) == 0 {
		return nil
	}
	for i := range matches {
		if strings.EqualFold(matches[i].Name, name) {
			return &matches[i]
		}
	}
	return &matches[0]
}
