// Package store holds the MongoDB adapters used by the services.
package store

import (
	"context"
	"errors"
	"fmt"

	"go-ecommerce/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collections
const (
	UsersCollection         = "users"
	OrdersCollection        = "orders"
	ProductsCollection      = "products"
	CategoriesCollection    = "categories"
	SubscriptionsCollection = "subscriptions"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("document already exists")
	// ErrConflict means a conditional update found the document in another state.
	ErrConflict = errors.New("document changed concurrently")
)

// ConnectDB connects to MongoDB and checks the primary is reachable.
func ConnectDB(ctx context.Context, cfg config.Mongo) (*mongo.Client, error) {
	const op = "store.ConnectDB"

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return client, nil
}

// wrap converts driver errors to the package sentinels.
func wrap(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
