package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func GetCategories(categories CategoryAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /category"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := categories.ListCategories(ctx)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		if list == nil {
			list = []models.Category{}
		}
		respondOK(c, http.StatusOK, "Category list", list)
	}
}

// GetSubCategories lists active subcategories, narrowed to one parent when
// ?category= is given.
func GetSubCategories(categories CategoryAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /category/sub"
		defer handlePanic(c, route)

		var parent primitive.ObjectID
		if raw := strings.TrimSpace(c.Query("category")); raw != "" {
			id, ok := parseObjectID(c, route, raw, "category")
			if !ok {
				return
			}
			parent = id
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := categories.ListSubCategories(ctx, parent)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		if list == nil {
			list = []models.SubCategory{}
		}
		respondOK(c, http.StatusOK, "Subcategory list", list)
	}
}
