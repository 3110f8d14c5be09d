package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (*models.Order, bool, error)
}

type OrderReader interface {
	MyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	OrderDetails(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error)
	AdminOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID primitive.ObjectID, in service.StatusUpdate) (*models.Order, error)
}

type createOrderRequest struct {
	AddressID     string `json:"addressId" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
}

func CreateOrder(orders OrderPlacer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /order/create"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		addressID, ok := parseObjectID(c, route, req.AddressID, "addressId")
		if !ok {
			return
		}

		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key != "" {
			parsed, err := uuid.Parse(key)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "Idempotency-Key must be a UUID")
				return
			}
			key = parsed.String()
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, replayed, err := orders.PlaceOrder(ctx, service.PlaceOrderInput{
			UserID:         userID,
			AddressID:      addressID,
			PaymentMethod:  req.PaymentMethod,
			IdempotencyKey: key,
		})
		if err != nil {
			respondAppError(c, route, err)
			return
		}

		if replayed {
			respondOK(c, http.StatusOK, "Order already placed", order)
			return
		}
		respondOK(c, http.StatusCreated, "Order placed successfully", order)
	}
}

func GetMyOrders(orders OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /order/my-orders"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := orders.MyOrders(ctx, userID)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		if list == nil {
			list = []models.Order{}
		}
		respondOK(c, http.StatusOK, "Orders fetched successfully", list)
	}
}

func GetOrderDetails(orders OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /order/:orderId"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}
		orderID, ok := parseObjectID(c, route, c.Param("orderId"), "orderId")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.OrderDetails(ctx, userID, orderID)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, "Order details", order)
	}
}
