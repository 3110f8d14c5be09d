package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

type StatusUpdate struct {
	OrderStatus   *models.OrderStatus
	PaymentStatus *models.PaymentStatus
}

type OrderQueryService struct {
	orders          OrderRepository
	stock           StockWriter
	restockOnCancel bool
	log             zerolog.Logger
}

func NewOrderQueryService(orders OrderRepository, stock StockWriter, restockOnCancel bool, logger zerolog.Logger) *OrderQueryService {
	return &OrderQueryService{
		orders:          orders,
		stock:           stock,
		restockOnCancel: restockOnCancel,
		log:             logger.With().Str("component", "order_query").Logger(),
	}
}

func (s *OrderQueryService) MyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orders, nil
}

// OrderDetails only returns orders owned by userID; anything else looks
// like a missing order.
func (s *OrderQueryService) OrderDetails(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindForUser(ctx, userID, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return order, nil
}

func (s *OrderQueryService) AdminOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return orders, total, nil
}

// UpdateStatus applies a partial status change through the order and
// payment state machines. The write is conditional on the statuses read, so
// a concurrent admin update surfaces as Conflict instead of being lost.
func (s *OrderQueryService) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, in StatusUpdate) (*models.Order, error) {
	if in.OrderStatus == nil && in.PaymentStatus == nil {
		return nil, apperr.Validation("orderStatus or paymentStatus is required")
	}

	current, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	expect := store.StatusPair{OrderStatus: current.OrderStatus, PaymentStatus: current.Payment.Status}
	next := expect

	if in.OrderStatus != nil && *in.OrderStatus != current.OrderStatus {
		if !current.OrderStatus.CanTransitionTo(*in.OrderStatus) {
			return nil, apperr.New(apperr.KindInvalidTransition,
				"Cannot change order status from "+string(current.OrderStatus)+" to "+string(*in.OrderStatus))
		}
		next.OrderStatus = *in.OrderStatus
	}
	if in.PaymentStatus != nil && *in.PaymentStatus != current.Payment.Status {
		if !current.Payment.Status.CanTransitionTo(*in.PaymentStatus) {
			return nil, apperr.New(apperr.KindInvalidTransition,
				"Cannot change payment status from "+string(current.Payment.Status)+" to "+string(*in.PaymentStatus))
		}
		next.PaymentStatus = *in.PaymentStatus
	}

	if next == expect {
		return current, nil
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, expect, next)
	if errors.Is(err, store.ErrConflict) {
		return nil, apperr.Conflict("Order was updated concurrently, reload and retry")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.Info().
		Str("order_id", orderID.Hex()).
		Str("order_status", string(updated.OrderStatus)).
		Str("payment_status", string(updated.Payment.Status)).
		Msg("order status updated")

	if s.restockOnCancel && next.OrderStatus == models.OrderCancelled && expect.OrderStatus != models.OrderCancelled {
		s.restock(ctx, updated)
	}
	return updated, nil
}

// restock returns cancelled quantities to the catalog. The status change is
// already durable, so failures are logged for reconciliation, not returned.
func (s *OrderQueryService) restock(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		err := s.stock.IncrementVariantStock(ctx, item.ProductID, item.VariantID, item.Quantity)
		if err != nil {
			s.log.Error().Err(err).
				Str("order_id", order.ID.Hex()).
				Str("product_id", item.ProductID.Hex()).
				Str("variant_id", item.VariantID.Hex()).
				Int("quantity", item.Quantity).
				Msg("restock on cancel failed")
		}
	}
}
