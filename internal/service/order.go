package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// OrderDeps groups the repositories the Order Engine writes through.
type OrderDeps struct {
	Catalog   ProductReader
	Stock     StockWriter
	Carts     CartRepository
	Addresses AddressRepository
	Orders    OrderRepository
	Locks     CheckoutLocker
	Tx        Transactor
}

type CheckoutPolicy struct {
	Pricing PricingPolicy
	LockTTL time.Duration
}

type PlaceOrderInput struct {
	UserID         primitive.ObjectID
	AddressID      primitive.ObjectID
	PaymentMethod  string
	IdempotencyKey string
}

// OrderService is the Order Engine: it turns a user's cart into an Order,
// consuming stock with a conditional decrement per variant.
type OrderService struct {
	deps   OrderDeps
	policy CheckoutPolicy
	log    zerolog.Logger
}

func NewOrderService(deps OrderDeps, policy CheckoutPolicy, logger zerolog.Logger) *OrderService {
	if policy.LockTTL <= 0 {
		policy.LockTTL = 30 * time.Second
	}
	return &OrderService{
		deps:   deps,
		policy: policy,
		log:    logger.With().Str("component", "order").Logger(),
	}
}

// PlaceOrder validates every cart line before anything is written, then
// persists the order, decrements stock and empties the cart in that order.
// replayed is true when the idempotency key matched an earlier order.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (order *models.Order, replayed bool, err error) {
	method, ok := models.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return nil, false, apperr.Validation("Payment method must be COD or ONLINE")
	}

	if prior, err := s.replay(ctx, in); err != nil || prior != nil {
		return prior, prior != nil, err
	}

	token, err := s.deps.Locks.Acquire(ctx, in.UserID, s.policy.LockTTL)
	if errors.Is(err, store.ErrLocked) {
		return nil, false, apperr.Conflict("Checkout already in progress")
	}
	if err != nil {
		return nil, false, apperr.Internal(err)
	}
	defer func() {
		if err := s.deps.Locks.Release(context.WithoutCancel(ctx), in.UserID, token); err != nil {
			s.log.Warn().Err(err).Str("user_id", in.UserID.Hex()).Msg("failed to release checkout lock")
		}
	}()

	// The previous holder may have committed this key while we waited.
	if prior, err := s.replay(ctx, in); err != nil || prior != nil {
		return prior, prior != nil, err
	}

	lines, err := s.deps.Carts.ListByUser(ctx, in.UserID)
	if err != nil {
		return nil, false, apperr.Internal(err)
	}
	if len(lines) == 0 {
		return nil, false, apperr.New(apperr.KindEmptyCart, "Cart is empty")
	}

	address, err := s.deps.Addresses.FindActive(ctx, in.UserID, in.AddressID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, apperr.New(apperr.KindInvalidAddress, "Invalid address")
	}
	if err != nil {
		return nil, false, apperr.Internal(err)
	}

	items, err := s.freezeItems(ctx, lines)
	if err != nil {
		return nil, false, err
	}

	order = s.buildOrder(in, method, address, items)

	var short *models.OrderItem
	err = s.deps.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var commitErr error
		short, commitErr = s.commit(txCtx, order)
		return commitErr
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) && in.IdempotencyKey != "" {
			if prior, replayErr := s.replay(ctx, in); replayErr == nil && prior != nil {
				return prior, true, nil
			}
		}
		return nil, false, apperr.Internal(err)
	}
	if short != nil {
		return nil, false, apperr.InsufficientStock(
			"Insufficient stock for "+short.Name,
			short.ProductID.Hex(), short.Name,
		)
	}

	if _, err := s.deps.Carts.DeleteByUser(ctx, in.UserID); err != nil {
		s.log.Error().Err(err).
			Str("order_id", order.ID.Hex()).
			Str("user_id", in.UserID.Hex()).
			Msg("order placed but cart was not cleared")
	}

	s.log.Info().
		Str("order_id", order.ID.Hex()).
		Str("user_id", in.UserID.Hex()).
		Int("items", len(order.Items)).
		Float64("final_amount", order.FinalAmount).
		Msg("order placed")
	return order, false, nil
}

func (s *OrderService) replay(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	if in.IdempotencyKey == "" {
		return nil, nil
	}
	prior, err := s.deps.Orders.FindByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return prior, nil
}

// freezeItems checks every line against fresh catalog data and copies what
// the order needs. It returns on the first failing line, before any write.
func (s *OrderService) freezeItems(ctx context.Context, lines []models.CartLine) ([]models.OrderItem, error) {
	products, err := loadProducts(ctx, s.deps.Catalog, lines)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok || !product.Status {
			err := apperr.New(apperr.KindProductUnavailable, "Product is no longer available")
			err.ProductID = line.ProductID.Hex()
			if ok {
				err.ProductName = product.Name
				err.Message = product.Name + " is no longer available"
			}
			return nil, err
		}
		variant, ok := product.FindVariant(line.VariantID)
		if !ok {
			err := apperr.New(apperr.KindVariantUnavailable, "Selected variant of "+product.Name+" is no longer available")
			err.ProductID = product.ID.Hex()
			err.ProductName = product.Name
			return nil, err
		}
		if variant.Stock < line.Quantity {
			return nil, apperr.InsufficientStock(
				"Insufficient stock for "+product.Name,
				product.ID.Hex(), product.Name,
			)
		}

		items = append(items, models.OrderItem{
			ProductID:    product.ID,
			Name:         product.Name,
			Image:        product.FirstImage(),
			VariantID:    variant.ID,
			VariantLabel: variant.Label,
			Price:        variant.Price,
			Quantity:     line.Quantity,
			TotalPrice:   lineTotal(variant.Price, line.Quantity),
		})
	}
	return items, nil
}

func (s *OrderService) buildOrder(in PlaceOrderInput, method string, address *models.Address, items []models.OrderItem) *models.Order {
	totals := make([]float64, len(items))
	for i, item := range items {
		totals[i] = item.TotalPrice
	}
	total := sumAmounts(totals)
	fee := s.policy.Pricing.deliveryFeeFor(total)
	var discount float64

	now := time.Now()
	return &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          in.UserID,
		Items:           items,
		AddressSnapshot: address.Snapshot(),
		Payment: models.Payment{
			Method: method,
			Status: models.PaymentPending,
		},
		OrderStatus:    models.OrderPlaced,
		TotalAmount:    total,
		DeliveryFee:    fee,
		Discount:       discount,
		FinalAmount:    finalAmount(total, fee, discount),
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// commit persists the order and then takes stock item by item. When a
// decrement loses a race it rolls back the decrements already applied,
// cancels the order and reports the item that fell short.
func (s *OrderService) commit(ctx context.Context, order *models.Order) (*models.OrderItem, error) {
	if err := s.deps.Orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	applied := make([]models.OrderItem, 0, len(order.Items))
	for i := range order.Items {
		item := order.Items[i]
		ok, err := s.deps.Stock.DecrementVariantStock(ctx, item.ProductID, item.VariantID, item.Quantity)
		if err != nil {
			s.logReconciliation(order, applied, err, "stock decrement failed after order was persisted")
			return nil, err
		}
		if !ok {
			if err := s.compensate(ctx, order, applied); err != nil {
				s.logReconciliation(order, applied, err, "compensation failed after stock race")
				return nil, err
			}
			s.log.Warn().
				Str("order_id", order.ID.Hex()).
				Str("variant_id", item.VariantID.Hex()).
				Msg("stock race lost at commit, order cancelled")
			return &item, nil
		}
		applied = append(applied, item)
	}
	return nil, nil
}

func (s *OrderService) compensate(ctx context.Context, order *models.Order, applied []models.OrderItem) error {
	for _, item := range applied {
		if err := s.deps.Stock.IncrementVariantStock(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
			return err
		}
	}
	_, err := s.deps.Orders.UpdateStatus(ctx, order.ID,
		store.StatusPair{OrderStatus: models.OrderPlaced, PaymentStatus: models.PaymentPending},
		store.StatusPair{OrderStatus: models.OrderCancelled, PaymentStatus: models.PaymentFailed},
	)
	if err != nil {
		return err
	}
	// A retry with the same key must place a new order, not replay this one.
	if order.IdempotencyKey != "" {
		return s.deps.Orders.ReleaseIdempotencyKey(ctx, order.ID)
	}
	return nil
}

func (s *OrderService) logReconciliation(order *models.Order, applied []models.OrderItem, cause error, msg string) {
	decrements := zerolog.Arr()
	for _, item := range applied {
		decrements.Dict(zerolog.Dict().
			Str("product_id", item.ProductID.Hex()).
			Str("variant_id", item.VariantID.Hex()).
			Int("quantity", item.Quantity))
	}
	s.log.Error().Err(cause).
		Str("order_id", order.ID.Hex()).
		Str("user_id", order.UserID.Hex()).
		Array("applied_decrements", decrements).
		Msg(msg)
}
