package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/database"
	"storefront/internal/models"
)

type OrderStore struct {
	col *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{col: db.Collection(database.OrdersCollection)}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (s *OrderStore) Insert(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, order)
	return translate(err)
}

func (s *OrderStore) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	if err := s.col.FindOne(ctx, filter).Decode(&order); err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *OrderStore) FindByID(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": orderID})
}

func (s *OrderStore) FindForUser(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": orderID, "userId": userID})
}

func (s *OrderStore) FindByIdempotencyKey(ctx context.Context, userID primitive.ObjectID, key string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"userId": userID, "idempotencyKey": key})
}

func (s *OrderStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Order, error) {
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.find(ctx, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
}

func (s *OrderStore) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	filter := bson.M{}
	if f.Status != nil {
		filter["orderStatus"] = *f.Status
	}

	opts := options.Find().SetSort(newestFirst)
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip((page - 1) * f.Limit).SetLimit(f.Limit)
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	orders, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus writes next only if the order still carries expect, so two
// admins racing on the same order cannot both apply a transition.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, expect, next StatusPair) (*models.Order, error) {
	filter := bson.M{
		"_id":            orderID,
		"orderStatus":    expect.OrderStatus,
		"payment.status": expect.PaymentStatus,
	}
	update := bson.M{"$set": bson.M{
		"orderStatus":    next.OrderStatus,
		"payment.status": next.PaymentStatus,
		"updatedAt":      time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &order, nil
}

// ReleaseIdempotencyKey drops the key from an order that was cancelled at
// checkout, so the partial unique index lets a retry with the same key
// place a new order.
func (s *OrderStore) ReleaseIdempotencyKey(ctx context.Context, orderID primitive.ObjectID) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$unset": bson.M{"idempotencyKey": ""}},
	)
	return err
}
