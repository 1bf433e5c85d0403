package store

import (
	"context"
	"time"

	"go-ecommerce/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type SubscriptionStore struct {
	coll    *mongo.Collection
	nowFunc func() time.Time
}

func NewSubscriptionStore(db *mongo.Database) *SubscriptionStore {
	return &SubscriptionStore{coll: db.Collection(SubscriptionsCollection), nowFunc: time.Now}
}

// Create stores the email. ErrDuplicate is returned when it is already subscribed.
func (s *SubscriptionStore) Create(ctx context.Context, email string) error {
	const op = "store.SubscriptionStore.Create"

	_, err := s.coll.InsertOne(ctx, models.Subscription{Email: email, CreatedAt: s.nowFunc().UTC()})
	if err != nil {
		return wrap(op, err)
	}
	return nil
}
