package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

func orderStatus(s models.OrderStatus) *models.OrderStatus       { return &s }
func paymentStatus(s models.PaymentStatus) *models.PaymentStatus { return &s }

func placeOne(t *testing.T, f *checkoutFixture, user primitive.ObjectID, qty int) (*models.Order, primitive.ObjectID, primitive.ObjectID) {
	t.Helper()
	p, v := f.catalog.addProduct("item-"+primitive.NewObjectID().Hex(), 25, 10)
	addr := f.address(t, user)
	f.add(t, user, p, v, qty)
	order, _, err := f.engine.PlaceOrder(context.Background(), PlaceOrderInput{UserID: user, AddressID: addr})
	require.NoError(t, err)
	return order, p, v
}

func TestMyOrdersNewestFirstAndOwnership(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(CheckoutPolicy{}, false)
	user := primitive.NewObjectID()
	first, _, _ := placeOne(t, f, user, 1)
	second, _, _ := placeOne(t, f, user, 1)
	placeOne(t, f, primitive.NewObjectID(), 1)

	orders, err := f.query.MyOrders(ctx, user)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	_, err = f.query.OrderDetails(ctx, primitive.NewObjectID(), first.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAdminOrdersFilterAndPaging(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(CheckoutPolicy{}, false)
	for i := 0; i < 3; i++ {
		placeOne(t, f, primitive.NewObjectID(), 1)
	}
	last, _, _ := placeOne(t, f, primitive.NewObjectID(), 1)
	_, err := f.query.UpdateStatus(ctx, last.ID, StatusUpdate{OrderStatus: orderStatus(models.OrderConfirmed)})
	require.NoError(t, err)

	all, total, err := f.query.AdminOrders(ctx, store.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.EqualValues(t, 4, total)

	page, total, err := f.query.AdminOrders(ctx, store.OrderFilter{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.EqualValues(t, 4, total)

	confirmed, total, err := f.query.AdminOrders(ctx, store.OrderFilter{Status: orderStatus(models.OrderConfirmed)})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, last.ID, confirmed[0].ID)
}

func TestUpdateStatusStateMachine(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(CheckoutPolicy{}, false)
	order, _, _ := placeOne(t, f, primitive.NewObjectID(), 1)

	_, err := f.query.UpdateStatus(ctx, order.ID, StatusUpdate{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.query.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: orderStatus(models.OrderDelivered)})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	for _, next := range []models.OrderStatus{models.OrderConfirmed, models.OrderPacked, models.OrderOutForDelivery} {
		updated, err := f.query.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: orderStatus(next)})
		require.NoError(t, err)
		assert.Equal(t, next, updated.OrderStatus)
	}

	updated, err := f.query.UpdateStatus(ctx, order.ID, StatusUpdate{
		OrderStatus:   orderStatus(models.OrderDelivered),
		PaymentStatus: paymentStatus(models.PaymentPaid),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, updated.OrderStatus)
	assert.Equal(t, models.PaymentPaid, updated.Payment.Status)

	_, err = f.query.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: orderStatus(models.OrderCancelled)})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	same, err := f.query.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: orderStatus(models.OrderDelivered)})
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, same.OrderStatus)

	_, err = f.query.UpdateStatus(ctx, primitive.NewObjectID(), StatusUpdate{OrderStatus: orderStatus(models.OrderConfirmed)})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateStatusPaymentOnlyLeavesOrderStatus(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(CheckoutPolicy{}, false)
	order, _, _ := placeOne(t, f, primitive.NewObjectID(), 1)

	updated, err := f.query.UpdateStatus(ctx, order.ID, StatusUpdate{PaymentStatus: paymentStatus(models.PaymentPaid)})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPlaced, updated.OrderStatus)
	assert.Equal(t, models.PaymentPaid, updated.Payment.Status)

	_, err = f.query.UpdateStatus(ctx, order.ID, StatusUpdate{PaymentStatus: paymentStatus(models.PaymentPending)})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestCancelRestocksOnlyWhenEnabled(t *testing.T) {
	ctx := context.Background()

	off := newCheckoutFixture(CheckoutPolicy{}, false)
	order, p, v := placeOne(t, off, primitive.NewObjectID(), 3)
	_, err := off.query.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: orderStatus(models.OrderCancelled)})
	require.NoError(t, err)
	assert.Equal(t, 7, off.catalog.variant(p, v).Stock)

	on := newCheckoutFixture(CheckoutPolicy{}, true)
	order, p, v = placeOne(t, on, primitive.NewObjectID(), 3)
	cancelled, err := on.query.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: orderStatus(models.OrderCancelled)})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.OrderStatus)
	assert.Equal(t, 10, on.catalog.variant(p, v).Stock)

	// A repeated cancel is a no-op and must not restock twice.
	_, err = on.query.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: orderStatus(models.OrderCancelled)})
	require.NoError(t, err)
	assert.Equal(t, 10, on.catalog.variant(p, v).Stock)
}
