package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusUnpaid     OrderStatus = "unpaid"
	StatusDelivering OrderStatus = "delivering"
	StatusDelivered  OrderStatus = "delivered"
	StatusCanceled   OrderStatus = "canceled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusUnpaid, StatusDelivering, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order in status s may move to next.
// Orders only move forward (unpaid, delivering, delivered); any status except
// canceled may be canceled, and canceled is terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch next {
	case StatusCanceled:
		return s != StatusCanceled
	case StatusDelivering:
		return s == StatusUnpaid
	case StatusDelivered:
		return s == StatusDelivering
	}
	return false
}

// Payment methods
const (
	PaymentCOD    = "cod"
	PaymentOnline = "onl"
)

// Address is the delivery address captured with the order.
type Address struct {
	Province string `bson:"province" json:"province"`
	District string `bson:"district" json:"district"`
	Ward     string `bson:"ward" json:"ward"`
	Street   string `bson:"street" json:"street"`
}

// Buyer is a snapshot of the buyer's contact details at purchase time.
type Buyer struct {
	Name        string  `bson:"name" json:"name"`
	PhoneNumber string  `bson:"phone_number" json:"phone_number"`
	Address     Address `bson:"address" json:"address"`
}

// LineItem is a product entry within an order. Prices are snapshotted at
// purchase time.
type LineItem struct {
	ProductID       primitive.ObjectID `bson:"product_id" json:"product_id"`
	VariantID       primitive.ObjectID `bson:"variant_id" json:"variant_id"`
	Quantity        int                `bson:"quantity" json:"quantity"`
	UnitPrice       float64            `bson:"unit_price" json:"unit_price"`
	DiscountPercent float64            `bson:"discount_percent" json:"discount_percent"`
}

// Order represents a user's order
type Order struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	OrderID           string               `bson:"order_id" json:"order_id"`
	UserID            primitive.ObjectID   `bson:"user_id" json:"user_id"`
	Buyer             Buyer                `bson:"order_buyer" json:"order_buyer"`
	Products          []LineItem           `bson:"order_products" json:"order_products"`
	Note              string               `bson:"order_note,omitempty" json:"order_note,omitempty"`
	PaymentMethod     string               `bson:"payment_method" json:"payment_method"` // "cod" or "onl"
	ShippingCost      float64              `bson:"shipping_cost" json:"shipping_cost"`
	TotalProductsCost float64              `bson:"total_products_cost" json:"total_products_cost"`
	FinalCost         float64              `bson:"final_cost" json:"final_cost"`
	AppliedCoupons    []primitive.ObjectID `bson:"applied_coupons,omitempty" json:"applied_coupons,omitempty"`
	Status            OrderStatus          `bson:"order_status" json:"order_status"`
	PaymentLink       string               `bson:"paymentLink,omitempty" json:"payment_link,omitempty"`
	CreatedAt         time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt         time.Time            `bson:"updatedAt" json:"updated_at"`
}

// OrderLine is a line item enriched with the current product display fields.
// The display fields are empty when the product or variant no longer exists.
type OrderLine struct {
	LineItem    `bson:",inline"`
	ProductName string  `bson:"product_name,omitempty" json:"product_name,omitempty"`
	ProductImg  string  `bson:"product_img,omitempty" json:"product_img,omitempty"`
	VariantName string  `bson:"variant_name,omitempty" json:"variant_name,omitempty"`
	VariantImg  string  `bson:"variant_img,omitempty" json:"variant_img,omitempty"`
	TotalPrice  float64 `bson:"total_price,omitempty" json:"total_price,omitempty"`
}

// OrderView is an order as returned by the order queries.
type OrderView struct {
	ID                primitive.ObjectID   `bson:"_id" json:"id"`
	OrderID           string               `bson:"order_id" json:"order_id"`
	UserID            primitive.ObjectID   `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Buyer             Buyer                `bson:"order_buyer" json:"order_buyer"`
	Products          []OrderLine          `bson:"order_products" json:"order_products"`
	Note              string               `bson:"order_note,omitempty" json:"order_note,omitempty"`
	PaymentMethod     string               `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	ShippingCost      float64              `bson:"shipping_cost" json:"shipping_cost"`
	TotalProductsCost float64              `bson:"total_products_cost" json:"total_products_cost"`
	FinalCost         float64              `bson:"final_cost" json:"final_cost"`
	AppliedCoupons    []primitive.ObjectID `bson:"applied_coupons,omitempty" json:"applied_coupons,omitempty"`
	Status            OrderStatus          `bson:"order_status" json:"order_status"`
	CreatedAt         time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt         time.Time            `bson:"updatedAt" json:"updated_at"`
}
