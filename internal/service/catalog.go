package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

type VariantInput struct {
	Label     string
	Price     float64
	Stock     int
	Discount  *models.Discount
	IsDefault bool
}

type CreateProductInput struct {
	Name        string
	Images      []string
	Category    primitive.ObjectID
	SubCategory primitive.ObjectID
	Variants    []VariantInput
	Description string
}

// ProductQuery selects a page of active products. Slugs come from the
// browse routes, ids from query parameters; both may narrow the same list.
type ProductQuery struct {
	CategorySlug    string
	SubCategorySlug string
	Category        primitive.ObjectID
	SubCategory     primitive.ObjectID
	Search          string
	MinPrice        *float64
	MaxPrice        *float64
	Sort            string
	Page            int64
	Limit           int64
}

// CatalogService covers the admin writes the order pipeline depends on:
// product creation with a single default variant, restocking and soft
// delete. Everything else about the catalog lives outside this service.
type CatalogService struct {
	catalog CatalogRepository
	log     zerolog.Logger
}

func NewCatalogService(catalog CatalogRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		log:     logger.With().Str("component", "catalog").Logger(),
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Category.IsZero() || in.SubCategory.IsZero() || len(in.Variants) == 0 {
		return nil, apperr.Validation("Missing required fields")
	}

	variants, err := buildVariants(in.Variants)
	if err != nil {
		return nil, err
	}

	ok, err := s.catalog.ActiveCategoryExists(ctx, in.Category)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Validation("Invalid category")
	}
	ok, err = s.catalog.ActiveSubCategoryExists(ctx, in.SubCategory)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Validation("Invalid subcategory")
	}

	productSlug := slug.Make(name)
	if productSlug == "" {
		return nil, apperr.Validation("Product name must contain letters or digits")
	}
	exists, err := s.catalog.SlugExists(ctx, productSlug)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, apperr.Conflict("Product already exists")
	}

	now := time.Now()
	product := &models.Product{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Slug:        productSlug,
		Images:      models.StringList(in.Images),
		Category:    in.Category,
		SubCategory: in.SubCategory,
		Variants:    variants,
		Description: strings.TrimSpace(in.Description),
		Status:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.catalog.InsertProduct(ctx, product)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Product already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.Info().Str("product_id", product.ID.Hex()).Str("slug", product.Slug).Msg("product created")
	decorate(product)
	return product, nil
}

// buildVariants enforces exactly one default: none marked promotes the
// first variant, more than one is rejected.
func buildVariants(in []VariantInput) ([]models.Variant, error) {
	variants := make([]models.Variant, 0, len(in))
	defaults := 0
	for _, v := range in {
		variant := models.Variant{
			ID:        primitive.NewObjectID(),
			Label:     strings.TrimSpace(v.Label),
			Price:     v.Price,
			Stock:     v.Stock,
			Discount:  v.Discount,
			IsDefault: v.IsDefault,
		}
		if variant.Label == "" {
			return nil, apperr.Validation("Variant label is required")
		}
		if variant.Discount != nil {
			variant.Discount.Type = strings.ToUpper(strings.TrimSpace(variant.Discount.Type))
		}
		if err := validateVariant(variant); err != nil {
			return nil, apperr.Validation(err.Error())
		}
		if variant.IsDefault {
			defaults++
		}
		variants = append(variants, variant)
	}

	switch {
	case defaults == 0:
		variants[0].IsDefault = true
	case defaults > 1:
		return nil, apperr.Validation("Only one default variant is allowed")
	}
	return variants, nil
}

func (s *CatalogService) GetBySlug(ctx context.Context, productSlug string) (*models.Product, error) {
	product, err := s.catalog.FindProductBySlug(ctx, productSlug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	decorate(product)
	return product, nil
}

func (s *CatalogService) SetVariantStock(ctx context.Context, productID, variantID primitive.ObjectID, stock int) error {
	if stock < 0 {
		return apperr.Validation("Stock must be zero or greater")
	}
	err := s.catalog.SetVariantStock(ctx, productID, variantID, stock)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Product variant not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	s.log.Info().
		Str("product_id", productID.Hex()).
		Str("variant_id", variantID.Hex()).
		Int("stock", stock).
		Msg("variant restocked")
	return nil
}

// DeleteProduct soft-deletes; carts drop the product the next time they
// are read and checkout rejects it.
func (s *CatalogService) DeleteProduct(ctx context.Context, productID primitive.ObjectID) error {
	err := s.catalog.DeactivateProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Product not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	categorySlug := slug.Make(name)
	if categorySlug == "" {
		return nil, apperr.Validation("Category name is required")
	}

	category := &models.Category{Name: name, Slug: categorySlug, Status: true}
	err := s.catalog.InsertCategory(ctx, category)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Category already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return category, nil
}

// CreateSubCategory requires every parent category to be active.
func (s *CatalogService) CreateSubCategory(ctx context.Context, name string, categories []primitive.ObjectID) (*models.SubCategory, error) {
	name = strings.TrimSpace(name)
	subSlug := slug.Make(name)
	if subSlug == "" || len(categories) == 0 {
		return nil, apperr.Validation("Name and at least one category are required")
	}
	for _, id := range categories {
		ok, err := s.catalog.ActiveCategoryExists(ctx, id)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if !ok {
			return nil, apperr.Validation("Invalid category")
		}
	}

	sub := &models.SubCategory{Name: name, Slug: subSlug, Category: categories, Status: true}
	err := s.catalog.InsertSubCategory(ctx, sub)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Subcategory already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return sub, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return categories, nil
}

func (s *CatalogService) ListSubCategories(ctx context.Context, categoryID primitive.ObjectID) ([]models.SubCategory, error) {
	subs, err := s.catalog.ListSubCategories(ctx, categoryID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return subs, nil
}

// ListProducts resolves browse slugs, then returns one page of active
// products with display prices and the total match count.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, 0, apperr.Validation("minPrice cannot exceed maxPrice")
	}
	switch q.Sort {
	case "", store.SortNewest, store.SortPriceAsc, store.SortPriceDesc:
	default:
		return nil, 0, apperr.Validation("sort must be newest, price_asc or price_desc")
	}

	filter := store.ProductFilter{
		Category:    q.Category,
		SubCategory: q.SubCategory,
		Search:      strings.TrimSpace(q.Search),
		MinPrice:    q.MinPrice,
		MaxPrice:    q.MaxPrice,
		Sort:        q.Sort,
		Page:        q.Page,
		Limit:       q.Limit,
	}

	if q.CategorySlug != "" {
		category, err := s.catalog.FindCategoryBySlug(ctx, q.CategorySlug)
		if errors.Is(err, store.ErrNotFound) {
			return nil, 0, apperr.NotFound("Category not found")
		}
		if err != nil {
			return nil, 0, apperr.Internal(err)
		}
		filter.Category = category.ID
	}
	if q.SubCategorySlug != "" {
		sub, err := s.catalog.FindSubCategoryBySlug(ctx, q.SubCategorySlug)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !sub.BelongsTo(filter.Category)) {
			return nil, 0, apperr.NotFound("Subcategory not found")
		}
		if err != nil {
			return nil, 0, apperr.Internal(err)
		}
		filter.SubCategory = sub.ID
	}

	products, total, err := s.catalog.ListProducts(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	for i := range products {
		decorate(&products[i])
	}
	return products, total, nil
}

func decorate(p *models.Product) {
	for i := range p.Variants {
		p.Variants[i].FinalPrice = variantFinalPrice(p.Variants[i])
		p.Variants[i].InStock = p.Variants[i].Stock > 0
	}
}
