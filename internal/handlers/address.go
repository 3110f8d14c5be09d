package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store"
)

type AddressBook interface {
	Create(ctx context.Context, userID primitive.ObjectID, in service.AddressInput) (*models.Address, error)
	List(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error)
	Update(ctx context.Context, userID, addressID primitive.ObjectID, in store.AddressUpdate) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID primitive.ObjectID) error
}

// Required fields are checked by the address book so the caller gets a
// single message for any missing field.
type createAddressRequest struct {
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Country     string `json:"country"`
	Mobile      string `json:"delivery_mobile"`
	IsDefault   bool   `json:"isDefault"`
}

type updateAddressRequest struct {
	AddressLine *string `json:"address_line"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	Pincode     *string `json:"pincode"`
	Country     *string `json:"country"`
	Mobile      *string `json:"delivery_mobile"`
	IsDefault   *bool   `json:"isDefault"`
}

func CreateAddress(book AddressBook) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /address/create"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}

		var req createAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		address, err := book.Create(ctx, userID, service.AddressInput(req))
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusCreated, "Address created successfully", address)
	}
}

func GetAddresses(book AddressBook) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /address"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := book.List(ctx, userID)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		if list == nil {
			list = []models.Address{}
		}
		respondOK(c, http.StatusOK, "Address list fetched successfully", list)
	}
}

func UpdateAddress(book AddressBook) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /address/:addressId"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}
		addressID, ok := parseObjectID(c, route, c.Param("addressId"), "addressId")
		if !ok {
			return
		}

		var req updateAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		address, err := book.Update(ctx, userID, addressID, store.AddressUpdate(req))
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, "Address updated successfully", address)
	}
}

func DeleteAddress(book AddressBook) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /address/:addressId"
		defer handlePanic(c, route)

		userID, ok := requireUser(c, route)
		if !ok {
			return
		}
		addressID, ok := parseObjectID(c, route, c.Param("addressId"), "addressId")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := book.Delete(ctx, userID, addressID); err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, "Address deleted successfully", nil)
	}
}
