package pipeline

import (
	"go-ecommerce/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CategoriesCollection holds product categories.
const CategoriesCollection = "categories"

// Search sort keys
const (
	SortNewest      = "newest"
	SortPriceAsc    = "price_asc"
	SortPriceDesc   = "price_desc"
	SortRating      = "rating"
	SortBestSelling = "best_selling"
	SortDiscount    = "discount"
)

// SearchOptions filters the product catalog. Nil pointers disable a filter.
type SearchOptions struct {
	Key        string
	CategoryID *primitive.ObjectID
	MinPrice   *float64
	MaxPrice   *float64
	MinRating  *float64
	Discounted bool
	Sort       string
	Skip       int64
	Limit      int64
}

// ProductFacet is the single document produced by Search.
type ProductFacet struct {
	Products []models.Product `bson:"products"`
	Total    []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
}

func (f ProductFacet) Count() int64 {
	if len(f.Total) == 0 {
		return 0
	}
	return f.Total[0].Count
}

// ProductFilter builds the find filter for o.
func ProductFilter(o SearchOptions) bson.D {
	m := bson.D{}

	if o.Key != "" {
		m = append(m, bson.E{Key: "product_name", Value: containsFold(o.Key)})
	}
	if o.CategoryID != nil {
		m = append(m, bson.E{Key: "category_id", Value: *o.CategoryID})
	}

	price := bson.D{}
	if o.MinPrice != nil {
		price = append(price, bson.E{Key: "$gte", Value: *o.MinPrice})
	}
	if o.MaxPrice != nil {
		price = append(price, bson.E{Key: "$lte", Value: *o.MaxPrice})
	}
	if len(price) > 0 {
		m = append(m, bson.E{Key: "product_price", Value: price})
	}

	if o.MinRating != nil {
		m = append(m, bson.E{Key: "product_rating", Value: bson.D{{Key: "$gte", Value: *o.MinRating}}})
	}
	if o.Discounted {
		m = append(m, bson.E{Key: "discount_percent", Value: bson.D{{Key: "$gt", Value: 0}}})
	}

	return m
}

// ProductSort returns the sort document for a search sort key. Unknown keys
// sort newest first.
func ProductSort(key string) bson.D {
	var s bson.D
	switch key {
	case SortPriceAsc:
		s = bson.D{{Key: "product_price", Value: 1}}
	case SortPriceDesc:
		s = bson.D{{Key: "product_price", Value: -1}}
	case SortRating:
		s = bson.D{{Key: "product_rating", Value: -1}}
	case SortBestSelling:
		s = bson.D{{Key: "product_sold", Value: -1}}
	case SortDiscount:
		s = bson.D{{Key: "discount_percent", Value: -1}}
	default:
		s = bson.D{{Key: "createdAt", Value: -1}}
	}
	return append(s, bson.E{Key: "_id", Value: 1})
}

// Search returns one facet document with the requested page and the total.
func Search(o SearchOptions) mongo.Pipeline {
	page := bson.A{bson.D{{Key: "$sort", Value: ProductSort(o.Sort)}}}
	if o.Skip > 0 {
		page = append(page, bson.D{{Key: "$skip", Value: o.Skip}})
	}
	if o.Limit > 0 {
		page = append(page, bson.D{{Key: "$limit", Value: o.Limit}})
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: ProductFilter(o)}},
		{{Key: "$facet", Value: bson.D{
			{Key: "products", Value: page},
			{Key: "total", Value: bson.A{bson.D{{Key: "$count", Value: "count"}}}},
		}}},
	}
}

// GroupedByCategory returns the newest perCategory products of each category.
func GroupedByCategory(perCategory int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category_id"},
			{Key: "products", Value: bson.D{{Key: "$push", Value: "$$ROOT"}}},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: CategoriesCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "category"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "category_name", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$category.category_name", 0}}}},
			{Key: "products", Value: bson.D{{Key: "$slice", Value: bson.A{"$products", perCategory}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "category_name", Value: 1}}}},
	}
}

// CategoriesWithRandomProducts runs against the categories collection and
// attaches up to size randomly sampled products to each non-empty category.
func CategoriesWithRandomProducts(size int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ProductsCollection},
			{Key: "let", Value: bson.D{{Key: "categoryId", Value: "$_id"}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{
					{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$category_id", "$$categoryId"}}}},
				}}},
				bson.D{{Key: "$sample", Value: bson.D{{Key: "size", Value: size}}}},
			}},
			{Key: "as", Value: "products"},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "products.0", Value: bson.D{{Key: "$exists", Value: true}}}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "category_name", Value: 1},
			{Key: "products", Value: 1},
		}}},
	}
}
