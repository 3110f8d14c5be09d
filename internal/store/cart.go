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

type CartStore struct {
	col *mongo.Collection
}

func NewCartStore(db *mongo.Database) *CartStore {
	return &CartStore{col: db.Collection(database.CartsCollection)}
}

func (s *CartStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.CartLine, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	lines := make([]models.CartLine, 0)
	if err := cursor.All(ctx, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *CartStore) FindLine(ctx context.Context, userID, lineID primitive.ObjectID) (*models.CartLine, error) {
	var line models.CartLine
	if err := s.col.FindOne(ctx, bson.M{"_id": lineID, "userId": userID}).Decode(&line); err != nil {
		return nil, translate(err)
	}
	return &line, nil
}

func (s *CartStore) FindByVariant(ctx context.Context, userID, productID, variantID primitive.ObjectID) (*models.CartLine, error) {
	var line models.CartLine
	err := s.col.FindOne(ctx, bson.M{
		"userId":    userID,
		"productId": productID,
		"variantId": variantID,
	}).Decode(&line)
	if err != nil {
		return nil, translate(err)
	}
	return &line, nil
}

// Insert relies on the unique (userId, productId, variantId) index; a
// concurrent insert of the same combination returns ErrDuplicate.
func (s *CartStore) Insert(ctx context.Context, line *models.CartLine) error {
	if line.ID.IsZero() {
		line.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, line)
	return translate(err)
}

// IncrementQuantity adds delta to the line only while the result stays at
// or below limit. fakeCarts.IncrementQuantity in the service tests carries
// the same guard; this filter is only exercised against a live server.
func (s *CartStore) IncrementQuantity(ctx context.Context, lineID primitive.ObjectID, delta, limit int) (*models.CartLine, error) {
	filter := bson.M{
		"_id":      lineID,
		"quantity": bson.M{"$lte": limit - delta},
	}
	update := bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var line models.CartLine
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&line); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &line, nil
}

func (s *CartStore) SetQuantity(ctx context.Context, userID, lineID primitive.ObjectID, quantity int) (*models.CartLine, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var line models.CartLine
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": lineID, "userId": userID},
		bson.M{"$set": bson.M{"quantity": quantity, "updatedAt": time.Now()}},
		opts,
	).Decode(&line)
	if err != nil {
		return nil, translate(err)
	}
	return &line, nil
}

func (s *CartStore) Delete(ctx context.Context, userID, lineID primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": lineID, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CartStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
