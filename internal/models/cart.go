package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartLine is one user's selected quantity of one product variant. Price is
// the variant price captured when the line was first added.
type CartLine struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	VariantID primitive.ObjectID `bson:"variantId" json:"variantId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CartVariantView struct {
	VariantID primitive.ObjectID `json:"variantId"`
	Label     string             `json:"label"`
	Price     float64            `json:"price"`
}

type CartItemView struct {
	CartItemID   primitive.ObjectID `json:"cartItemId"`
	ProductID    primitive.ObjectID `json:"productId"`
	ProductName  string             `json:"productName"`
	ProductImage string             `json:"productImage"`
	Variant      CartVariantView    `json:"variant"`
	Quantity     int                `json:"quantity"`
	ItemTotal    float64            `json:"itemTotal"`
}

type CartSummary struct {
	TotalItems    int     `json:"totalItems"`
	TotalQuantity int     `json:"totalQuantity"`
	TotalAmount   float64 `json:"totalAmount"`
}

type CartView struct {
	Items   []CartItemView `json:"items"`
	Summary CartSummary    `json:"summary"`
}
