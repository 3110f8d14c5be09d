package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/database"
)

type checkoutLock struct {
	UserID    primitive.ObjectID `bson:"_id"`
	Token     string             `bson:"token"`
	ExpiresAt time.Time          `bson:"expiresAt"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// CheckoutLocks serialises checkouts per user. A lock is a document keyed by
// the user id; the TTL index on expiresAt reaps locks whose holder died.
type CheckoutLocks struct {
	col *mongo.Collection
}

func NewCheckoutLocks(db *mongo.Database) *CheckoutLocks {
	return &CheckoutLocks{col: db.Collection(database.CheckoutLocksCollection)}
}

func (l *CheckoutLocks) Acquire(ctx context.Context, userID primitive.ObjectID, ttl time.Duration) (string, error) {
	now := time.Now()
	lock := checkoutLock{
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := l.col.InsertOne(ctx, lock)
	if err == nil {
		return lock.Token, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return "", err
	}

	// The TTL monitor only runs about once a minute, so take over an
	// expired lock explicitly.
	res, err := l.col.UpdateOne(ctx,
		bson.M{"_id": userID, "expiresAt": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{
			"token":     lock.Token,
			"expiresAt": lock.ExpiresAt,
			"createdAt": now,
		}},
	)
	if err != nil {
		return "", err
	}
	if res.MatchedCount == 0 {
		return "", ErrLocked
	}
	return lock.Token, nil
}

// Release removes the lock only if token still owns it.
func (l *CheckoutLocks) Release(ctx context.Context, userID primitive.ObjectID, token string) error {
	_, err := l.col.DeleteOne(ctx, bson.M{"_id": userID, "token": token})
	return err
}
