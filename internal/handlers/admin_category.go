package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

type CategoryAdmin interface {
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	CreateSubCategory(ctx context.Context, name string, categories []primitive.ObjectID) (*models.SubCategory, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListSubCategories(ctx context.Context, categoryID primitive.ObjectID) ([]models.SubCategory, error)
}

type createCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type createSubCategoryRequest struct {
	Name       string   `json:"name" binding:"required"`
	Categories []string `json:"category" binding:"required,min=1"`
}

/*
POST /category/create
- Slug is derived from the name and must be unique
*/
func CreateCategory(categories CategoryAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /category/create"
		defer handlePanic(c, route)

		var req createCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		category, err := categories.CreateCategory(ctx, req.Name)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusCreated, "Category created successfully", category)
	}
}

/*
POST /category/sub/create
- Every parent category must exist and be active
*/
func CreateSubCategory(categories CategoryAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /category/sub/create"
		defer handlePanic(c, route)

		var req createSubCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		parents := make([]primitive.ObjectID, 0, len(req.Categories))
		for _, raw := range req.Categories {
			id, ok := parseObjectID(c, route, raw, "category")
			if !ok {
				return
			}
			parents = append(parents, id)
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		sub, err := categories.CreateSubCategory(ctx, req.Name, parents)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusCreated, "Subcategory created successfully", sub)
	}
}
