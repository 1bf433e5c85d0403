// Package pipeline builds the aggregation pipelines executed against the order
// and product collections.
package pipeline

import (
	"regexp"

	"go-ecommerce/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProductsCollection is the collection line items are joined against.
const ProductsCollection = "products"

// DefaultSortField is used when no sort field is requested.
const DefaultSortField = "createdAt"

// SortFields maps accepted sort parameters to stored field names.
var SortFields = map[string]string{
	"createdAt":    "createdAt",
	"created_at":   "createdAt",
	"updatedAt":    "updatedAt",
	"updated_at":   "updatedAt",
	"order_id":     "order_id",
	"order_status": "order_status",
	"final_cost":   "final_cost",
}

// OrderOptions selects the optional stages of the order pipeline. Zero values
// disable the corresponding stage.
type OrderOptions struct {
	OwnerID *primitive.ObjectID
	ID      *primitive.ObjectID

	// OrderCode matches the human-readable order id exactly. It takes
	// precedence over CodePrefix.
	OrderCode  string
	CodePrefix string

	Status      models.OrderStatus
	IDFragment  string
	PhoneNumber string

	// ProductName keeps orders where any line item's current product name
	// contains it, case-insensitively. Matching orders keep all line items.
	ProductName string

	// WithCosts recomputes line totals and order costs from the line items
	// instead of returning the stored totals.
	WithCosts bool

	SortField string
	SortDesc  bool
	Skip      int64
	Limit     int64
}

// OrderFacet is the single document produced by Orders.
type OrderFacet struct {
	Orders []models.OrderView `bson:"orders"`
	Total  []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
}

// Count returns the number of distinct orders that matched, ignoring paging.
func (f OrderFacet) Count() int64 {
	if len(f.Total) == 0 {
		return 0
	}
	return f.Total[0].Count
}

// Orders returns the pipeline for every order read: it filters orders, joins
// each line item with its current product and variant, regroups line items by
// order and emits one facet document holding the requested page and the total
// count.
func Orders(o OrderOptions) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$match", Value: Match(o)}},
		{{Key: "$unwind", Value: "$order_products"}},
		lookupProduct(),
		attachDisplayFields(o.WithCosts),
		regroup(o.WithCosts),
	}

	if o.WithCosts {
		p = append(p, bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "final_cost", Value: bson.D{{Key: "$add", Value: bson.A{
				"$total_products_cost",
				bson.D{{Key: "$ifNull", Value: bson.A{"$shipping_cost", 0}}},
			}}}},
		}}})
	}

	// Matching on the regrouped array keeps an order when any element
	// matches, without dropping its other line items.
	if o.ProductName != "" {
		p = append(p, bson.D{{Key: "$match", Value: bson.D{
			{Key: "order_products.product_name", Value: containsFold(o.ProductName)},
		}}})
	}

	page := bson.A{sortStage(o.SortField, o.SortDesc)}
	if o.Skip > 0 {
		page = append(page, bson.D{{Key: "$skip", Value: o.Skip}})
	}
	if o.Limit > 0 {
		page = append(page, bson.D{{Key: "$limit", Value: o.Limit}})
	}

	return append(p, bson.D{{Key: "$facet", Value: bson.D{
		{Key: "orders", Value: page},
		{Key: "total", Value: bson.A{bson.D{{Key: "$count", Value: "count"}}}},
	}}})
}

// Match builds the base predicate on stored order fields.
func Match(o OrderOptions) bson.D {
	m := bson.D{}

	if o.OwnerID != nil {
		m = append(m, bson.E{Key: "user_id", Value: *o.OwnerID})
	}
	if o.ID != nil {
		m = append(m, bson.E{Key: "_id", Value: *o.ID})
	}

	switch {
	case o.OrderCode != "":
		m = append(m, bson.E{Key: "order_id", Value: o.OrderCode})
	case o.CodePrefix != "":
		m = append(m, bson.E{Key: "order_id", Value: bson.D{
			{Key: "$regex", Value: "^" + regexp.QuoteMeta(o.CodePrefix)},
			{Key: "$options", Value: "i"},
		}})
	}

	if o.Status != "" {
		m = append(m, bson.E{Key: "order_status", Value: o.Status})
	}
	if o.IDFragment != "" {
		m = append(m, bson.E{Key: "$expr", Value: bson.D{{Key: "$regexMatch", Value: bson.D{
			{Key: "input", Value: bson.D{{Key: "$toString", Value: "$_id"}}},
			{Key: "regex", Value: regexp.QuoteMeta(o.IDFragment)},
			{Key: "options", Value: "i"},
		}}}})
	}
	if o.PhoneNumber != "" {
		m = append(m, bson.E{Key: "order_buyer.phone_number", Value: o.PhoneNumber})
	}

	return m
}

func lookupProduct() bson.D {
	matchVariant := bson.D{{Key: "$filter", Value: bson.D{
		{Key: "input", Value: "$product_variants"},
		{Key: "as", Value: "v"},
		{Key: "cond", Value: bson.D{{Key: "$eq", Value: bson.A{"$$v._id", "$$variantId"}}}},
	}}}

	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: ProductsCollection},
		{Key: "let", Value: bson.D{
			{Key: "productId", Value: "$order_products.product_id"},
			{Key: "variantId", Value: "$order_products.variant_id"},
		}},
		{Key: "pipeline", Value: bson.A{
			bson.D{{Key: "$match", Value: bson.D{
				{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$_id", "$$productId"}}}},
			}}},
			bson.D{{Key: "$project", Value: bson.D{
				{Key: "_id", Value: 1},
				{Key: "product_name", Value: 1},
				{Key: "product_img", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$product_imgs", 0}}}},
				{Key: "variant", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{matchVariant, 0}}}},
			}}},
		}},
		{Key: "as", Value: "product_info"},
	}}}
}

func attachDisplayFields(withCosts bool) bson.D {
	first := func(path string) bson.D {
		return bson.D{{Key: "$arrayElemAt", Value: bson.A{path, 0}}}
	}

	fields := bson.D{
		{Key: "order_products.product_name", Value: first("$product_info.product_name")},
		{Key: "order_products.product_img", Value: first("$product_info.product_img")},
		{Key: "order_products.variant_name", Value: first("$product_info.variant.variant_name")},
		{Key: "order_products.variant_img", Value: first("$product_info.variant.variant_img")},
	}
	if withCosts {
		fields = append(fields, bson.E{Key: "order_products.total_price", Value: bson.D{
			{Key: "$multiply", Value: bson.A{"$order_products.unit_price", "$order_products.quantity"}},
		}})
	}

	return bson.D{{Key: "$addFields", Value: fields}}
}

// regroupFields are carried from the first unwound row of each order.
var regroupFields = []string{
	"order_id",
	"user_id",
	"order_buyer",
	"order_note",
	"payment_method",
	"applied_coupons",
	"shipping_cost",
	"final_cost",
	"order_status",
	"createdAt",
	"updatedAt",
}

func regroup(withCosts bool) bson.D {
	g := bson.D{{Key: "_id", Value: "$_id"}}
	for _, f := range regroupFields {
		g = append(g, bson.E{Key: f, Value: bson.D{{Key: "$first", Value: "$" + f}}})
	}

	if withCosts {
		g = append(g, bson.E{Key: "total_products_cost", Value: bson.D{{Key: "$sum", Value: "$order_products.total_price"}}})
	} else {
		g = append(g, bson.E{Key: "total_products_cost", Value: bson.D{{Key: "$first", Value: "$total_products_cost"}}})
	}

	g = append(g, bson.E{Key: "order_products", Value: bson.D{{Key: "$push", Value: "$order_products"}}})

	return bson.D{{Key: "$group", Value: g}}
}

// sortStage sorts by the requested field with _id as the tie-break so that
// pages stay stable.
func sortStage(field string, desc bool) bson.D {
	dir := 1
	if desc {
		dir = -1
	}

	name, ok := SortFields[field]
	if !ok {
		name = DefaultSortField
	}

	return bson.D{{Key: "$sort", Value: bson.D{
		{Key: name, Value: dir},
		{Key: "_id", Value: dir},
	}}}
}

func containsFold(s string) bson.D {
	return bson.D{
		{Key: "$regex", Value: regexp.QuoteMeta(s)},
		{Key: "$options", Value: "i"},
	}
}
