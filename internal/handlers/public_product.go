package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/service"
)

type Catalog interface {
	CreateProduct(ctx context.Context, in service.CreateProductInput) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	SetVariantStock(ctx context.Context, productID, variantID primitive.ObjectID, stock int) error
	DeleteProduct(ctx context.Context, productID primitive.ObjectID) error
	ListProducts(ctx context.Context, q service.ProductQuery) ([]models.Product, int64, error)
}

type productListQuery struct {
	Search      string   `form:"search"`
	Q           string   `form:"q"`
	Category    string   `form:"category"`
	SubCategory string   `form:"subCategory"`
	MinPrice    *float64 `form:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice    *float64 `form:"maxPrice" binding:"omitempty,gte=0"`
	Sort        string   `form:"sort" binding:"omitempty,oneof=newest price_asc price_desc"`
}

/*
GET /product
- Active products only, newest first unless sort is given
- Always paginated (page defaults to 1, limit to 20)
- Optional search, category and subCategory ids, price range
*/
func GetProducts(catalog Catalog) gin.HandlerFunc {
	return listProducts(catalog, "GET /product", func(*gin.Context) service.ProductQuery {
		return service.ProductQuery{}
	})
}

func GetProductsByCategory(catalog Catalog) gin.HandlerFunc {
	return listProducts(catalog, "GET /product/category/:categorySlug", func(c *gin.Context) service.ProductQuery {
		return service.ProductQuery{CategorySlug: c.Param("categorySlug")}
	})
}

// GetProductsByCategoryAndSub serves /product/:slug/:subCategorySlug. The
// first segment shares its wildcard name with the product detail route.
func GetProductsByCategoryAndSub(catalog Catalog) gin.HandlerFunc {
	return listProducts(catalog, "GET /product/:categorySlug/:subCategorySlug", func(c *gin.Context) service.ProductQuery {
		return service.ProductQuery{
			CategorySlug:    c.Param("slug"),
			SubCategorySlug: c.Param("subCategorySlug"),
		}
	})
}

func listProducts(catalog Catalog, route string, scope func(*gin.Context) service.ProductQuery) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req productListQuery
		if err := c.ShouldBindQuery(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		q := scope(c)
		q.Search = strings.TrimSpace(req.Search)
		if q.Search == "" {
			q.Search = strings.TrimSpace(req.Q)
		}
		q.MinPrice, q.MaxPrice, q.Sort = req.MinPrice, req.MaxPrice, req.Sort
		q.Page, q.Limit = page, limit
		if req.Category != "" {
			id, ok := parseObjectID(c, route, req.Category, "category")
			if !ok {
				return
			}
			q.Category = id
		}
		if req.SubCategory != "" {
			id, ok := parseObjectID(c, route, req.SubCategory, "subCategory")
			if !ok {
				return
			}
			q.SubCategory = id
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		products, total, err := catalog.ListProducts(ctx, q)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		if products == nil {
			products = []models.Product{}
		}
		respondOK(c, http.StatusOK, "Product list", gin.H{
			"products":   products,
			"pagination": newPagination(page, limit, total),
		})
	}
}

// GetProductBySlug returns an active product with each variant's display
// price after discount.
func GetProductBySlug(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /product/:slug"
		defer handlePanic(c, route)

		slug := strings.TrimSpace(c.Param("slug"))
		if slug == "" {
			respondWithError(c, http.StatusBadRequest, route, "Slug is required")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := catalog.GetBySlug(ctx, slug)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, "Product details", product)
	}
}
