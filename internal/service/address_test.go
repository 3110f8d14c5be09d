package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

func addressInput(line string) AddressInput {
	return AddressInput{
		AddressLine: line,
		City:        "Pune",
		State:       "MH",
		Pincode:     "411001",
		Country:     "India",
		Mobile:      "9999999999",
	}
}

func requireSingleDefault(t *testing.T, repo *fakeAddresses, user primitive.ObjectID) primitive.ObjectID {
	t.Helper()
	active, err := repo.ListActive(context.Background(), user)
	require.NoError(t, err)
	var defaults []primitive.ObjectID
	for _, a := range active {
		if a.IsDefault {
			defaults = append(defaults, a.ID)
		}
	}
	if len(active) == 0 {
		require.Empty(t, defaults)
		return primitive.NilObjectID
	}
	require.Len(t, defaults, 1, "exactly one active default expected")
	return defaults[0]
}

func TestAddressCreateDefaults(t *testing.T) {
	ctx := context.Background()
	repo := &fakeAddresses{}
	svc := NewAddressService(repo, zerolog.Nop())
	user := primitive.NewObjectID()

	_, err := svc.Create(ctx, user, AddressInput{City: "Pune"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	first, err := svc.Create(ctx, user, addressInput("1 First St"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := svc.Create(ctx, user, addressInput("2 Second St"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
	assert.Equal(t, first.ID, requireSingleDefault(t, repo, user))

	in := addressInput("3 Third St")
	in.IsDefault = true
	third, err := svc.Create(ctx, user, in)
	require.NoError(t, err)
	assert.Equal(t, third.ID, requireSingleDefault(t, repo, user))

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, third.ID, list[0].ID)
}

func TestAddressUpdateDefaultSwitch(t *testing.T) {
	ctx := context.Background()
	repo := &fakeAddresses{}
	svc := NewAddressService(repo, zerolog.Nop())
	user := primitive.NewObjectID()

	first, err := svc.Create(ctx, user, addressInput("1 First St"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, user, addressInput("2 Second St"))
	require.NoError(t, err)

	yes := true
	updated, err := svc.Update(ctx, user, second.ID, store.AddressUpdate{IsDefault: &yes})
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)
	assert.Equal(t, second.ID, requireSingleDefault(t, repo, user))

	no := false
	_, err = svc.Update(ctx, user, second.ID, store.AddressUpdate{IsDefault: &no})
	require.NoError(t, err)
	requireSingleDefault(t, repo, user)

	city := "Mumbai"
	moved, err := svc.Update(ctx, user, first.ID, store.AddressUpdate{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", moved.City)

	blank := " "
	_, err = svc.Update(ctx, user, first.ID, store.AddressUpdate{City: &blank})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Update(ctx, primitive.NewObjectID(), first.ID, store.AddressUpdate{City: &city})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAddressDeleteDefaultPromotesNewest(t *testing.T) {
	ctx := context.Background()
	repo := &fakeAddresses{}
	svc := NewAddressService(repo, zerolog.Nop())
	user := primitive.NewObjectID()

	base := time.Now().Add(-time.Hour)
	ids := make([]primitive.ObjectID, 3)
	for i := range ids {
		a := &models.Address{
			UserID:    user,
			City:      "Pune",
			IsDefault: i == 0,
			Status:    true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Insert(ctx, a))
		ids[i] = a.ID
	}

	require.NoError(t, svc.Delete(ctx, user, ids[0]))
	assert.Equal(t, ids[2], requireSingleDefault(t, repo, user))

	require.NoError(t, svc.Delete(ctx, user, ids[1]))
	assert.Equal(t, ids[2], requireSingleDefault(t, repo, user))

	require.NoError(t, svc.Delete(ctx, user, ids[2]))
	requireSingleDefault(t, repo, user)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.Delete(ctx, user, ids[2])))
}

func TestAddressDefaultUniquenessOverMixedSequence(t *testing.T) {
	ctx := context.Background()
	repo := &fakeAddresses{}
	svc := NewAddressService(repo, zerolog.Nop())
	user := primitive.NewObjectID()
	yes, no := true, false

	var ids []primitive.ObjectID
	for i := 0; i < 4; i++ {
		in := addressInput("line")
		in.IsDefault = i%2 == 1
		a, err := svc.Create(ctx, user, in)
		require.NoError(t, err)
		ids = append(ids, a.ID)
		requireSingleDefault(t, repo, user)
	}

	steps := []func() error{
		func() error { _, err := svc.Update(ctx, user, ids[0], store.AddressUpdate{IsDefault: &yes}); return err },
		func() error { return svc.Delete(ctx, user, ids[0]) },
		func() error { _, err := svc.Update(ctx, user, ids[2], store.AddressUpdate{IsDefault: &no}); return err },
		func() error { return svc.Delete(ctx, user, ids[3]) },
		func() error { _, err := svc.Update(ctx, user, ids[1], store.AddressUpdate{IsDefault: &yes}); return err },
		func() error { return svc.Delete(ctx, user, ids[1]) },
	}
	for _, step := range steps {
		require.NoError(t, step())
		requireSingleDefault(t, repo, user)
	}
}
