package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store"
)

type updateOrderStatusRequest struct {
	OrderStatus   *string `json:"orderStatus"`
	PaymentStatus *string `json:"paymentStatus"`
}

// GetAdminOrders lists every order. page, limit and status are optional;
// without page or limit the full list is returned.
func GetAdminOrders(orders OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /order/admin/all"
		defer handlePanic(c, route)

		var filter store.OrderFilter
		if raw := c.Query("status"); raw != "" {
			status, ok := models.ParseOrderStatus(raw)
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "Invalid order status")
				return
			}
			filter.Status = &status
		}

		pageStr, limitStr := c.Query("page"), c.Query("limit")
		paginated := pageStr != "" || limitStr != ""
		if paginated {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			filter.Page, filter.Limit = page, limit
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, total, err := orders.AdminOrders(ctx, filter)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		if list == nil {
			list = []models.Order{}
		}

		if !paginated {
			respondOK(c, http.StatusOK, "All orders", list)
			return
		}
		respondOK(c, http.StatusOK, "All orders", gin.H{
			"orders":     list,
			"pagination": newPagination(filter.Page, filter.Limit, total),
		})
	}
}

func UpdateOrderStatus(orders OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /order/:orderId/status"
		defer handlePanic(c, route)

		orderID, ok := parseObjectID(c, route, c.Param("orderId"), "orderId")
		if !ok {
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		var in service.StatusUpdate
		if req.OrderStatus != nil {
			status, ok := models.ParseOrderStatus(*req.OrderStatus)
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "Invalid order status")
				return
			}
			in.OrderStatus = &status
		}
		if req.PaymentStatus != nil {
			status, ok := models.ParsePaymentStatus(*req.PaymentStatus)
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "Invalid payment status")
				return
			}
			in.PaymentStatus = &status
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.UpdateStatus(ctx, orderID, in)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, "Order status updated", order)
	}
}
