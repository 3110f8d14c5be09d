package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/service"
)

type discountRequest struct {
	Type  string  `json:"type" binding:"required"`
	Value float64 `json:"value" binding:"gte=0"`
}

type variantRequest struct {
	Label     string           `json:"label" binding:"required"`
	Price     float64          `json:"price" binding:"gte=0"`
	Stock     int              `json:"stock" binding:"gte=0"`
	Discount  *discountRequest `json:"discount"`
	IsDefault bool             `json:"isDefault"`
}

type createProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Images      []string         `json:"images"`
	Category    string           `json:"category" binding:"required"`
	SubCategory string           `json:"subCategory" binding:"required"`
	Variants    []variantRequest `json:"variants" binding:"required,min=1,dive"`
	Description string           `json:"description"`
}

type setStockRequest struct {
	Stock *int `json:"stock" binding:"required"`
}

func CreateProduct(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /product/create"
		defer handlePanic(c, route)

		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		categoryID, ok := parseObjectID(c, route, req.Category, "category")
		if !ok {
			return
		}
		subCategoryID, ok := parseObjectID(c, route, req.SubCategory, "subCategory")
		if !ok {
			return
		}

		in := service.CreateProductInput{
			Name:        req.Name,
			Images:      req.Images,
			Category:    categoryID,
			SubCategory: subCategoryID,
			Description: req.Description,
			Variants:    make([]service.VariantInput, 0, len(req.Variants)),
		}
		for _, v := range req.Variants {
			variant := service.VariantInput{
				Label:     v.Label,
				Price:     v.Price,
				Stock:     v.Stock,
				IsDefault: v.IsDefault,
			}
			if v.Discount != nil {
				variant.Discount = &models.Discount{Type: v.Discount.Type, Value: v.Discount.Value}
			}
			in.Variants = append(in.Variants, variant)
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := catalog.CreateProduct(ctx, in)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusCreated, "Product created successfully", product)
	}
}

// SetVariantStock overwrites a variant's stock with an absolute count.
func SetVariantStock(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /product/:productId/variant/:variantId/stock"
		defer handlePanic(c, route)

		productID, ok := parseObjectID(c, route, c.Param("productId"), "productId")
		if !ok {
			return
		}
		variantID, ok := parseObjectID(c, route, c.Param("variantId"), "variantId")
		if !ok {
			return
		}

		var req setStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := catalog.SetVariantStock(ctx, productID, variantID, *req.Stock); err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, "Stock updated", gin.H{
			"productId": productID.Hex(),
			"variantId": variantID.Hex(),
			"stock":     *req.Stock,
		})
	}
}

func DeleteProduct(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /product/:productId"
		defer handlePanic(c, route)

		productID, ok := parseObjectID(c, route, c.Param("productId"), "productId")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := catalog.DeleteProduct(ctx, productID); err != nil {
			respondAppError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, "Product deleted", nil)
	}
}
