package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// mergeAttempts bounds the insert/merge retry when two add requests for the
// same variant race on the unique cart index.
const mergeAttempts = 3

type AddItemInput struct {
	ProductID primitive.ObjectID
	VariantID primitive.ObjectID
	Quantity  int
}

// CartService is the Cart Engine. It validates every mutation against live
// catalog stock but never reserves stock itself.
type CartService struct {
	catalog ProductReader
	carts   CartRepository
	log     zerolog.Logger
}

func NewCartService(catalog ProductReader, carts CartRepository, logger zerolog.Logger) *CartService {
	return &CartService{
		catalog: catalog,
		carts:   carts,
		log:     logger.With().Str("component", "cart").Logger(),
	}
}

// AddItem creates a line for the variant or merges quantity into the
// existing one. created reports whether a new line was written.
func (s *CartService) AddItem(ctx context.Context, userID primitive.ObjectID, in AddItemInput) (line *models.CartLine, created bool, err error) {
	if in.Quantity < 1 {
		return nil, false, apperr.Validation("Quantity must be at least 1")
	}

	product, err := s.catalog.FindProduct(ctx, in.ProductID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !product.Status) {
		return nil, false, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, false, apperr.Internal(err)
	}
	variant, ok := product.FindVariant(in.VariantID)
	if !ok {
		return nil, false, apperr.NotFound("Variant not found")
	}
	if variant.Stock < in.Quantity {
		return nil, false, outOfStock("Insufficient stock", product)
	}

	for attempt := 0; attempt < mergeAttempts; attempt++ {
		existing, err := s.carts.FindByVariant(ctx, userID, in.ProductID, in.VariantID)
		switch {
		case err == nil:
			if existing.Quantity+in.Quantity > variant.Stock {
				return nil, false, outOfStock("Quantity exceeds available stock", product)
			}
			merged, err := s.carts.IncrementQuantity(ctx, existing.ID, in.Quantity, variant.Stock)
			if errors.Is(err, store.ErrConflict) {
				// Another request grew or removed the line in between.
				continue
			}
			if err != nil {
				return nil, false, apperr.Internal(err)
			}
			return merged, false, nil

		case errors.Is(err, store.ErrNotFound):
			now := time.Now()
			fresh := &models.CartLine{
				UserID:    userID,
				ProductID: in.ProductID,
				VariantID: in.VariantID,
				Quantity:  in.Quantity,
				Price:     variant.Price,
				CreatedAt: now,
				UpdatedAt: now,
			}
			err := s.carts.Insert(ctx, fresh)
			if errors.Is(err, store.ErrDuplicate) {
				continue
			}
			if err != nil {
				return nil, false, apperr.Internal(err)
			}
			return fresh, true, nil

		default:
			return nil, false, apperr.Internal(err)
		}
	}

	s.log.Warn().
		Str("user_id", userID.Hex()).
		Str("variant_id", in.VariantID.Hex()).
		Msg("cart merge kept losing races")
	return nil, false, apperr.Conflict("Cart was updated concurrently, retry")
}

// GetCart joins each line with the live catalog. Lines whose product or
// variant is gone are left out rather than reported.
func (s *CartService) GetCart(ctx context.Context, userID primitive.ObjectID) (*models.CartView, error) {
	lines, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	products, err := loadProducts(ctx, s.catalog, lines)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	view := &models.CartView{Items: make([]models.CartItemView, 0, len(lines))}
	totals := make([]float64, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok || !product.Status {
			continue
		}
		variant, ok := product.FindVariant(line.VariantID)
		if !ok {
			continue
		}

		itemTotal := lineTotal(line.Price, line.Quantity)
		view.Items = append(view.Items, models.CartItemView{
			CartItemID:   line.ID,
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductImage: product.FirstImage(),
			Variant: models.CartVariantView{
				VariantID: variant.ID,
				Label:     variant.Label,
				Price:     line.Price,
			},
			Quantity:  line.Quantity,
			ItemTotal: itemTotal,
		})
		totals = append(totals, itemTotal)
		view.Summary.TotalQuantity += line.Quantity
	}
	view.Summary.TotalItems = len(view.Items)
	view.Summary.TotalAmount = sumAmounts(totals)
	return view, nil
}

// UpdateQuantity sets an absolute quantity. Zero is not a valid state;
// callers remove the line instead.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, lineID primitive.ObjectID, quantity int) (*models.CartLine, error) {
	if quantity < 1 {
		return nil, apperr.Validation("Quantity must be at least 1")
	}

	line, err := s.carts.FindLine(ctx, userID, lineID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Cart item not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	product, err := s.catalog.FindProduct(ctx, line.ProductID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !product.Status) {
		return nil, apperr.New(apperr.KindProductUnavailable, "Product is no longer available")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	variant, ok := product.FindVariant(line.VariantID)
	if !ok {
		return nil, apperr.New(apperr.KindVariantUnavailable, "Product variant not available")
	}
	if quantity > variant.Stock {
		return nil, apperr.InsufficientStock(
			fmt.Sprintf("Only %d items left in stock", variant.Stock),
			product.ID.Hex(), product.Name,
		)
	}

	if quantity == line.Quantity {
		return line, nil
	}
	updated, err := s.carts.SetQuantity(ctx, userID, lineID, quantity)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Cart item not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return updated, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, lineID primitive.ObjectID) error {
	err := s.carts.Delete(ctx, userID, lineID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Cart item not found or unauthorized")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	removed, err := s.carts.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return removed, nil
}

func outOfStock(message string, product *models.Product) *apperr.Error {
	err := apperr.OutOfStock(message)
	err.ProductID = product.ID.Hex()
	err.ProductName = product.Name
	return err
}
