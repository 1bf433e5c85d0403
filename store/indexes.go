package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Indexes lists the indexes created at start-up, keyed by collection.
var Indexes = map[string][]mongo.IndexModel{
	UsersCollection: {
		{Keys: bson.D{{Key: "user_email", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	SubscriptionsCollection: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	OrdersCollection: {
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "order_id", Value: 1}}},
	},
	ProductsCollection: {
		{Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "createdAt", Value: -1}}},
	},
}

// EnsureIndexes creates the indexes in Indexes. Existing indexes are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	const op = "store.EnsureIndexes"

	for name, models := range Indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %s: %w", op, name, err)
		}
	}
	return nil
}
