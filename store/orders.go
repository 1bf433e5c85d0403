package store

import (
	"context"
	"time"

	"go-ecommerce/models"
	"go-ecommerce/pipeline"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderStore struct {
	coll    *mongo.Collection
	nowFunc func() time.Time
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{coll: db.Collection(OrdersCollection), nowFunc: time.Now}
}

// Query runs the order pipeline and returns the page together with the total
// count of matching orders.
func (s *OrderStore) Query(ctx context.Context, o pipeline.OrderOptions) (*pipeline.OrderFacet, error) {
	const op = "store.OrderStore.Query"

	cur, err := s.coll.Aggregate(ctx, pipeline.Orders(o))
	if err != nil {
		return nil, wrap(op, err)
	}
	defer cur.Close(ctx)

	var facet pipeline.OrderFacet
	if cur.Next(ctx) {
		if err := cur.Decode(&facet); err != nil {
			return nil, wrap(op, err)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, wrap(op, err)
	}

	return &facet, nil
}

// FindByID returns the stored order without joining product data.
func (s *OrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	const op = "store.OrderStore.FindByID"

	var o models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, wrap(op, err)
	}
	return &o, nil
}

// Cancel marks the owner's order canceled. Canceling an order that is already
// canceled succeeds without writing. ErrNotFound is returned when the owner has
// no such order.
func (s *OrderStore) Cancel(ctx context.Context, ownerID, id primitive.ObjectID) error {
	const op = "store.OrderStore.Cancel"

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": ownerID, "order_status": bson.M{"$ne": models.StatusCanceled}},
		bson.M{"$set": bson.M{"order_status": models.StatusCanceled, "updatedAt": s.nowFunc().UTC()}},
	)
	if err != nil {
		return wrap(op, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the order is already canceled or it does not
	// belong to the owner.
	var existing struct {
		Status models.OrderStatus `bson:"order_status"`
	}
	err = s.coll.FindOne(ctx,
		bson.M{"_id": id, "user_id": ownerID},
		options.FindOne().SetProjection(bson.M{"order_status": 1}),
	).Decode(&existing)
	if err != nil {
		return wrap(op, err)
	}
	if existing.Status != models.StatusCanceled {
		return wrap(op, ErrConflict)
	}
	return nil
}

// UpdateStatus moves an order from one status to the next. ErrConflict is
// returned when the order is no longer in status from.
func (s *OrderStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) error {
	const op = "store.OrderStore.UpdateStatus"

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "order_status": from},
		bson.M{"$set": bson.M{"order_status": to, "updatedAt": s.nowFunc().UTC()}},
	)
	if err != nil {
		return wrap(op, err)
	}
	if res.MatchedCount == 0 {
		return wrap(op, ErrConflict)
	}
	return nil
}
