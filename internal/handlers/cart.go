package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/service"
)

type CartEngine interface {
	AddItem(ctx context.Context, userID primitive.ObjectID, in service.AddItemInput) (*models.CartLine, bool, error)
	GetCart(ctx context.Context, userID primitive.ObjectID) (*models.CartView, error)
	UpdateQuantity(ctx context.Context, userID, lineID primitive.ObjectID, quantity int) (*models.CartLine, error)
	RemoveItem(ctx context.Context, userID, lineID primitive.ObjectID) error
	Clear(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	VariantID string `json:"variantId" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

type updateCartQuantityRequest struct {
	CartItemID string `json:"cartItemId" binding:"required"`
	Quantity   *int   `json:"quantity" binding:"required"`
}

func AddToCart(carts CartEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/create"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}

		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		productID, ok := parseObjectID(c, route, req.ProductID, "productId")
		if !ok {
			return
		}
		variantID, ok := parseObjectID(c, route, req.VariantID, "variantId")
		if !ok {
			return
		}
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		line, created, err := carts.AddItem(ctx, userID, service.AddItemInput{
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
		})
		if err != nil {
			respondAppError(c, route, err)
			return
		}

		if created {
			respondOK(c, http.StatusCreated, "Item added to cart", line)
			return
		}
		respondOK(c, http.StatusOK, "Cart quantity updated", line)
	}
}

func GetCart(carts CartEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		view, err := carts.GetCart(ctx, userID)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, "Cart fetched successfully", view)
	}
}

func UpdateCartQuantity(carts CartEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/update-qty"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}

		var req updateCartQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		lineID, ok := parseObjectID(c, route, req.CartItemID, "cartItemId")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		line, err := carts.UpdateQuantity(ctx, userID, lineID, *req.Quantity)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, "Cart updated", line)
	}
}

func RemoveCartItem(carts CartEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/remove/:cartItemId"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}
		lineID, ok := parseObjectID(c, route, c.Param("cartItemId"), "cartItemId")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := carts.RemoveItem(ctx, userID, lineID); err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, "Item removed from cart", nil)
	}
}

func ClearCart(carts CartEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/clear"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		removed, err := carts.Clear(ctx, userID)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, "Cart cleared", gin.H{"removed": removed})
	}
}
