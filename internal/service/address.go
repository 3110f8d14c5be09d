package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

type AddressInput struct {
	AddressLine string
	City        string
	State       string
	Pincode     string
	Country     string
	Mobile      string
	IsDefault   bool
}

// AddressService keeps each user's address book with exactly one active
// default whenever any active address exists.
type AddressService struct {
	addresses AddressRepository
	log       zerolog.Logger
}

func NewAddressService(addresses AddressRepository, logger zerolog.Logger) *AddressService {
	return &AddressService{
		addresses: addresses,
		log:       logger.With().Str("component", "address").Logger(),
	}
}

func (s *AddressService) Create(ctx context.Context, userID primitive.ObjectID, in AddressInput) (*models.Address, error) {
	fields := []string{in.AddressLine, in.City, in.State, in.Pincode, in.Country, in.Mobile}
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return nil, apperr.Validation("All required address fields must be provided")
		}
	}

	existing, err := s.addresses.ListActive(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now()
	address := &models.Address{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		AddressLine: strings.TrimSpace(in.AddressLine),
		City:        strings.TrimSpace(in.City),
		State:       strings.TrimSpace(in.State),
		Pincode:     strings.TrimSpace(in.Pincode),
		Country:     strings.TrimSpace(in.Country),
		Mobile:      strings.TrimSpace(in.Mobile),
		IsDefault:   in.IsDefault || len(existing) == 0,
		Status:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.addresses.Insert(ctx, address); err != nil {
		return nil, apperr.Internal(err)
	}
	if address.IsDefault && len(existing) > 0 {
		if err := s.addresses.UnsetDefaults(ctx, userID, address.ID); err != nil {
			return nil, apperr.Internal(err)
		}
	}
	if err := s.ensureDefault(ctx, userID, address.ID); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *AddressService) List(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	addresses, err := s.addresses.ListActive(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return addresses, nil
}

func (s *AddressService) Update(ctx context.Context, userID, addressID primitive.ObjectID, in store.AddressUpdate) (*models.Address, error) {
	for _, f := range []*string{in.AddressLine, in.City, in.State, in.Pincode, in.Country, in.Mobile} {
		if f != nil && strings.TrimSpace(*f) == "" {
			return nil, apperr.Validation("Address fields cannot be empty")
		}
	}

	updated, err := s.addresses.Update(ctx, userID, addressID, in)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Address not found or unauthorized")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	prefer := primitive.NilObjectID
	if in.IsDefault != nil && *in.IsDefault {
		prefer = addressID
		if err := s.addresses.UnsetDefaults(ctx, userID, addressID); err != nil {
			return nil, apperr.Internal(err)
		}
	}
	if err := s.ensureDefault(ctx, userID, prefer); err != nil {
		return nil, err
	}

	fresh, err := s.addresses.FindActive(ctx, userID, addressID)
	if err != nil {
		return updated, nil
	}
	return fresh, nil
}

// Delete soft-deletes the address. Removing the default promotes the most
// recently created remaining address.
func (s *AddressService) Delete(ctx context.Context, userID, addressID primitive.ObjectID) error {
	err := s.addresses.SoftDelete(ctx, userID, addressID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Address not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return s.ensureDefault(ctx, userID, primitive.NilObjectID)
}

// ensureDefault repairs the default flag after a mutation: with no default
// the newest address is promoted, with several only one survives. prefer
// wins when it is among the defaults.
func (s *AddressService) ensureDefault(ctx context.Context, userID, prefer primitive.ObjectID) error {
	active, err := s.addresses.ListActive(ctx, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if len(active) == 0 {
		return nil
	}

	var defaults []models.Address
	newest := active[0]
	for _, a := range active {
		if a.IsDefault {
			defaults = append(defaults, a)
		}
		if a.CreatedAt.After(newest.CreatedAt) {
			newest = a
		}
	}

	switch len(defaults) {
	case 0:
		if err := s.addresses.MarkDefault(ctx, userID, newest.ID); err != nil {
			return apperr.Internal(err)
		}
		s.log.Debug().Str("user_id", userID.Hex()).Str("address_id", newest.ID.Hex()).Msg("promoted default address")
	case 1:
	default:
		keep := defaults[0].ID
		for _, d := range defaults {
			if d.ID == prefer {
				keep = prefer
			}
		}
		if err := s.addresses.UnsetDefaults(ctx, userID, keep); err != nil {
			return apperr.Internal(err)
		}
	}
	return nil
}
