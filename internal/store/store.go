// Package store holds the MongoDB repositories behind the cart, order,
// address and catalog services.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

var (
	ErrNotFound  = errors.New("store: document not found")
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrConflict means a conditional update matched nothing because the
	// guarded field changed underneath the caller.
	ErrConflict = errors.New("store: conditional update did not match")
	ErrLocked   = errors.New("store: lock held by another owner")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

// OrderFilter narrows the admin order listing. Limit 0 means no pagination.
type OrderFilter struct {
	Status *models.OrderStatus
	Page   int64
	Limit  int64
}

// Product listing sort orders.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// ProductFilter narrows the public product listing to active products.
// Zero ids and an empty Search are ignored; prices match any variant.
type ProductFilter struct {
	Category    primitive.ObjectID
	SubCategory primitive.ObjectID
	Search      string
	MinPrice    *float64
	MaxPrice    *float64
	Sort        string
	Page        int64
	Limit       int64
}

// StatusPair is the order/payment status pair an admin update expects to
// replace, or the pair it writes.
type StatusPair struct {
	OrderStatus   models.OrderStatus
	PaymentStatus models.PaymentStatus
}

type AddressUpdate struct {
	AddressLine *string
	City        *string
	State       *string
	Pincode     *string
	Country     *string
	Mobile      *string
	IsDefault   *bool
}

// Transactor runs fn inside a Mongo session transaction when enabled. With
// transactions disabled fn runs directly and each write is atomic on its own.
type Transactor struct {
	client  *mongo.Client
	enabled bool
}

func NewTransactor(client *mongo.Client, enabled bool) *Transactor {
	return &Transactor{client: client, enabled: enabled}
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled || t.client == nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
