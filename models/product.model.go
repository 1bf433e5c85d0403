package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Variant is one purchasable option of a product.
type Variant struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name  string             `bson:"variant_name" json:"variant_name"`
	Image string             `bson:"variant_img" json:"variant_img"`
	Price float64            `bson:"variant_price" json:"variant_price"`
	Stock int                `bson:"variant_stock" json:"variant_stock"`
}

// Product represents a catalog entry
type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name            string             `bson:"product_name" json:"product_name"`
	Images          []string           `bson:"product_imgs" json:"product_imgs"`
	Variants        []Variant          `bson:"product_variants" json:"product_variants"`
	CategoryID      primitive.ObjectID `bson:"category_id,omitempty" json:"category_id,omitempty"`
	Price           float64            `bson:"product_price" json:"product_price"`
	DiscountPercent float64            `bson:"discount_percent" json:"discount_percent"`
	Rating          float64            `bson:"product_rating" json:"product_rating"`
	Sold            int                `bson:"product_sold" json:"product_sold"`
	CreatedAt       time.Time          `bson:"createdAt" json:"created_at"`
}

// Category groups products
type Category struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name string             `bson:"category_name" json:"category_name"`
}

// CategoryProducts is a category with a handful of its products.
type CategoryProducts struct {
	CategoryID   primitive.ObjectID `bson:"_id" json:"category_id"`
	CategoryName string             `bson:"category_name,omitempty" json:"category_name,omitempty"`
	Products     []Product          `bson:"products" json:"products"`
}
