package store

import (
	"context"

	"go-ecommerce/models"
	"go-ecommerce/pipeline"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductStore reads the catalog. It never writes.
type ProductStore struct {
	products   *mongo.Collection
	categories *mongo.Collection
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{
		products:   db.Collection(ProductsCollection),
		categories: db.Collection(CategoriesCollection),
	}
}

// Find returns up to limit products matching filter in sort order. A zero
// limit returns every match.
func (s *ProductStore) Find(ctx context.Context, filter, sort bson.D, limit int64) ([]models.Product, error) {
	const op = "store.ProductStore.Find"

	if filter == nil {
		filter = bson.D{}
	}
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrap(op, err)
	}

	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, wrap(op, err)
	}
	return products, nil
}

func (s *ProductStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	return s.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}, nil, 0)
}

func (s *ProductStore) Search(ctx context.Context, o pipeline.SearchOptions) (*pipeline.ProductFacet, error) {
	const op = "store.ProductStore.Search"

	cur, err := s.products.Aggregate(ctx, pipeline.Search(o))
	if err != nil {
		return nil, wrap(op, err)
	}
	defer cur.Close(ctx)

	facet := pipeline.ProductFacet{Products: []models.Product{}}
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

func (s *ProductStore) GroupedByCategory(ctx context.Context, perCategory int) ([]models.CategoryProducts, error) {
	return s.aggregateCategories(ctx, "store.ProductStore.GroupedByCategory", s.products, pipeline.GroupedByCategory(perCategory))
}

func (s *ProductStore) CategoriesWithRandomProducts(ctx context.Context, size int) ([]models.CategoryProducts, error) {
	return s.aggregateCategories(ctx, "store.ProductStore.CategoriesWithRandomProducts", s.categories, pipeline.CategoriesWithRandomProducts(size))
}

func (s *ProductStore) aggregateCategories(ctx context.Context, op string, coll *mongo.Collection, p mongo.Pipeline) ([]models.CategoryProducts, error) {
	cur, err := coll.Aggregate(ctx, p)
	if err != nil {
		return nil, wrap(op, err)
	}

	groups := []models.CategoryProducts{}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, wrap(op, err)
	}
	return groups, nil
}
