package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ProductsCollection      = "products"
	CategoriesCollection    = "categories"
	SubCategoriesCollection = "subcategories"
	CartsCollection         = "carts"
	AddressesCollection     = "addresses"
	OrdersCollection        = "orders"
	CheckoutLocksCollection = "checkout_locks"
)

// EnsureIndexes creates every index the storefront relies on. The cart
// uniqueness and idempotency indexes are load-bearing, not just for speed.
func EnsureIndexes(db *mongo.Database, logger zerolog.Logger) error {
	steps := []struct {
		name string
		fn   func(*mongo.Database) error
	}{
		{"products", EnsureProductIndexes},
		{"categories", EnsureCategoryIndexes},
		{"carts", EnsureCartIndexes},
		{"addresses", EnsureAddressIndexes},
		{"orders", EnsureOrderIndexes},
		{"checkout_locks", EnsureCheckoutLockIndexes},
	}
	for _, step := range steps {
		if err := step.fn(db); err != nil {
			return fmt.Errorf("%s indexes: %w", step.name, err)
		}
		logger.Info().Str("collection", step.name).Msg("indexes ensured")
	}
	return nil
}

func createIndexes(db *mongo.Database, collection string, models []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	return err
}

func EnsureProductIndexes(db *mongo.Database) error {
	return createIndexes(db, ProductsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("slug_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "variants._id", Value: 1}},
			Options: options.Index().SetName("variant_id_index"),
		},
		{
			Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().
				SetName("product_text").
				SetWeights(bson.D{{Key: "name", Value: 10}, {Key: "description", Value: 5}}),
		},
	})
}

func EnsureCategoryIndexes(db *mongo.Database) error {
	err := createIndexes(db, CategoriesCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("slug_unique").SetUnique(true),
		},
	})
	if err != nil {
		return err
	}
	return createIndexes(db, SubCategoriesCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("slug_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("category_status"),
		},
	})
}

func EnsureCartIndexes(db *mongo.Database) error {
	return createIndexes(db, CartsCollection, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "productId", Value: 1},
				{Key: "variantId", Value: 1},
			},
			Options: options.Index().SetName("user_product_variant_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userId_createdAt"),
		},
	})
}

func EnsureAddressIndexes(db *mongo.Database) error {
	return createIndexes(db, AddressesCollection, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "status", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("userId_status_createdAt"),
		},
	})
}

func EnsureOrderIndexes(db *mongo.Database) error {
	return createIndexes(db, OrdersCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userId_createdAt"),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "idempotencyKey", Value: 1}},
			Options: options.Index().
				SetName("idempotency_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"idempotencyKey": bson.M{"$exists": true},
				}),
		},
		{
			Keys:    bson.D{{Key: "orderStatus", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("orderStatus_createdAt"),
		},
	})
}

func EnsureCheckoutLockIndexes(db *mongo.Database) error {
	return createIndexes(db, CheckoutLocksCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("expiresAt_ttl").SetExpireAfterSeconds(0),
		},
	})
}
