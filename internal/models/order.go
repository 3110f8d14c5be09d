package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderPlaced         OrderStatus = "PLACED"
	OrderConfirmed      OrderStatus = "CONFIRMED"
	OrderPacked         OrderStatus = "PACKED"
	OrderOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderDelivered      OrderStatus = "DELIVERED"
	OrderCancelled      OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

const (
	PaymentMethodCOD    = "COD"
	PaymentMethodOnline = "ONLINE"
)

// orderFlow is the forward delivery path. CANCELLED is reachable from any
// non-terminal step and is handled separately.
var orderFlow = map[OrderStatus]OrderStatus{
	OrderPlaced:         OrderConfirmed,
	OrderConfirmed:      OrderPacked,
	OrderPacked:         OrderOutForDelivery,
	OrderOutForDelivery: OrderDelivered,
}

var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {PaymentPaid: true, PaymentFailed: true},
	PaymentFailed:  {PaymentPaid: true},
	PaymentPaid:    {},
}

func ParseOrderStatus(raw string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case OrderPlaced, OrderConfirmed, OrderPacked, OrderOutForDelivery, OrderDelivered, OrderCancelled:
		return status, true
	}
	return "", false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return orderFlow[s] == next
}

func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	status := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := paymentTransitions[status]; ok {
		return status, true
	}
	return "", false
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return paymentTransitions[s][next]
}

func ParsePaymentMethod(raw string) (string, bool) {
	method := strings.ToUpper(strings.TrimSpace(raw))
	if method == "" {
		return PaymentMethodCOD, true
	}
	if method == PaymentMethodCOD || method == PaymentMethodOnline {
		return method, true
	}
	return "", false
}

// OrderItem is a frozen copy of the catalog data at checkout time.
type OrderItem struct {
	ProductID    primitive.ObjectID `bson:"productId" json:"productId"`
	Name         string             `bson:"name" json:"name"`
	Image        string             `bson:"image" json:"image"`
	VariantID    primitive.ObjectID `bson:"variantId" json:"variantId"`
	VariantLabel string             `bson:"variantLabel" json:"variantLabel"`
	Price        float64            `bson:"price" json:"price"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	TotalPrice   float64            `bson:"totalPrice" json:"totalPrice"`
}

type AddressSnapshot struct {
	AddressLine string `bson:"address_line" json:"address_line"`
	City        string `bson:"city" json:"city"`
	State       string `bson:"state" json:"state"`
	Country     string `bson:"country" json:"country"`
	Pincode     string `bson:"pincode" json:"pincode"`
	Mobile      string `bson:"mobile" json:"mobile"`
}

type Payment struct {
	Method        string        `bson:"method" json:"method"`
	Status        PaymentStatus `bson:"status" json:"status"`
	TransactionID *string       `bson:"transactionId" json:"transactionId"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	AddressSnapshot AddressSnapshot    `bson:"addressSnapshot" json:"addressSnapshot"`
	Payment         Payment            `bson:"payment" json:"payment"`
	OrderStatus     OrderStatus        `bson:"orderStatus" json:"orderStatus"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	DeliveryFee     float64            `bson:"deliveryFee" json:"deliveryFee"`
	Discount        float64            `bson:"discount" json:"discount"`
	FinalAmount     float64            `bson:"finalAmount" json:"finalAmount"`
	IdempotencyKey  string             `bson:"idempotencyKey,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
