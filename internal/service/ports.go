// Package service implements the cart-to-order pipeline: the Cart Engine,
// the Order Engine, the Order Query Service and the address book and
// catalog operations they depend on.
package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

type ProductReader interface {
	FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

type StockWriter interface {
	DecrementVariantStock(ctx context.Context, productID, variantID primitive.ObjectID, qty int) (bool, error)
	IncrementVariantStock(ctx context.Context, productID, variantID primitive.ObjectID, qty int) error
}

type CatalogRepository interface {
	ProductReader
	FindProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	InsertProduct(ctx context.Context, product *models.Product) error
	DeactivateProduct(ctx context.Context, id primitive.ObjectID) error
	SetVariantStock(ctx context.Context, productID, variantID primitive.ObjectID, stock int) error
	ActiveCategoryExists(ctx context.Context, id primitive.ObjectID) (bool, error)
	ActiveSubCategoryExists(ctx context.Context, id primitive.ObjectID) (bool, error)
	InsertCategory(ctx context.Context, category *models.Category) error
	InsertSubCategory(ctx context.Context, sub *models.SubCategory) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListSubCategories(ctx context.Context, categoryID primitive.ObjectID) ([]models.SubCategory, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindSubCategoryBySlug(ctx context.Context, slug string) (*models.SubCategory, error)
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, int64, error)
}

type CartRepository interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.CartLine, error)
	FindLine(ctx context.Context, userID, lineID primitive.ObjectID) (*models.CartLine, error)
	FindByVariant(ctx context.Context, userID, productID, variantID primitive.ObjectID) (*models.CartLine, error)
	Insert(ctx context.Context, line *models.CartLine) error
	IncrementQuantity(ctx context.Context, lineID primitive.ObjectID, delta, limit int) (*models.CartLine, error)
	SetQuantity(ctx context.Context, userID, lineID primitive.ObjectID, quantity int) (*models.CartLine, error)
	Delete(ctx context.Context, userID, lineID primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type AddressRepository interface {
	Insert(ctx context.Context, address *models.Address) error
	ListActive(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error)
	FindActive(ctx context.Context, userID, addressID primitive.ObjectID) (*models.Address, error)
	Update(ctx context.Context, userID, addressID primitive.ObjectID, in store.AddressUpdate) (*models.Address, error)
	SoftDelete(ctx context.Context, userID, addressID primitive.ObjectID) error
	UnsetDefaults(ctx context.Context, userID, keepID primitive.ObjectID) error
	MarkDefault(ctx context.Context, userID, addressID primitive.ObjectID) error
}

type OrderRepository interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error)
	FindForUser(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID primitive.ObjectID, key string) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context, filter store.OrderFilter) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID primitive.ObjectID, expect, next store.StatusPair) (*models.Order, error)
	ReleaseIdempotencyKey(ctx context.Context, orderID primitive.ObjectID) error
}

type CheckoutLocker interface {
	Acquire(ctx context.Context, userID primitive.ObjectID, ttl time.Duration) (string, error)
	Release(ctx context.Context, userID primitive.ObjectID, token string) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
