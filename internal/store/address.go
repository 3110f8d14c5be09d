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

type AddressStore struct {
	col *mongo.Collection
}

func NewAddressStore(db *mongo.Database) *AddressStore {
	return &AddressStore{col: db.Collection(database.AddressesCollection)}
}

func activeAddress(userID, addressID primitive.ObjectID) bson.M {
	return bson.M{"_id": addressID, "userId": userID, "status": true}
}

func (s *AddressStore) Insert(ctx context.Context, address *models.Address) error {
	if address.ID.IsZero() {
		address.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, address)
	return translate(err)
}

// ListActive returns the default address first, then newest first.
func (s *AddressStore) ListActive(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "isDefault", Value: -1},
		{Key: "createdAt", Value: -1},
	})
	cursor, err := s.col.Find(ctx, bson.M{"userId": userID, "status": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	addresses := make([]models.Address, 0)
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (s *AddressStore) FindActive(ctx context.Context, userID, addressID primitive.ObjectID) (*models.Address, error) {
	var address models.Address
	if err := s.col.FindOne(ctx, activeAddress(userID, addressID)).Decode(&address); err != nil {
		return nil, translate(err)
	}
	return &address, nil
}

func (s *AddressStore) Update(ctx context.Context, userID, addressID primitive.ObjectID, in AddressUpdate) (*models.Address, error) {
	set := bson.M{"updatedAt": time.Now()}
	if in.AddressLine != nil {
		set["address_line"] = *in.AddressLine
	}
	if in.City != nil {
		set["city"] = *in.City
	}
	if in.State != nil {
		set["state"] = *in.State
	}
	if in.Pincode != nil {
		set["pincode"] = *in.Pincode
	}
	if in.Country != nil {
		set["country"] = *in.Country
	}
	if in.Mobile != nil {
		set["delivery_mobile"] = *in.Mobile
	}
	if in.IsDefault != nil {
		set["isDefault"] = *in.IsDefault
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var address models.Address
	err := s.col.FindOneAndUpdate(ctx, activeAddress(userID, addressID), bson.M{"$set": set}, opts).Decode(&address)
	if err != nil {
		return nil, translate(err)
	}
	return &address, nil
}

func (s *AddressStore) SoftDelete(ctx context.Context, userID, addressID primitive.ObjectID) error {
	res, err := s.col.UpdateOne(ctx, activeAddress(userID, addressID), bson.M{"$set": bson.M{
		"status":    false,
		"isDefault": false,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UnsetDefaults clears the default flag on every active address of the
// user except keepID.
func (s *AddressStore) UnsetDefaults(ctx context.Context, userID, keepID primitive.ObjectID) error {
	_, err := s.col.UpdateMany(ctx,
		bson.M{"userId": userID, "status": true, "isDefault": true, "_id": bson.M{"$ne": keepID}},
		bson.M{"$set": bson.M{"isDefault": false, "updatedAt": time.Now()}},
	)
	return err
}

func (s *AddressStore) MarkDefault(ctx context.Context, userID, addressID primitive.ObjectID) error {
	res, err := s.col.UpdateOne(ctx, activeAddress(userID, addressID),
		bson.M{"$set": bson.M{"isDefault": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
