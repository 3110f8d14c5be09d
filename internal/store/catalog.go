package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/database"
	"storefront/internal/models"
)

type CatalogStore struct {
	products      *mongo.Collection
	categories    *mongo.Collection
	subCategories *mongo.Collection
}

func NewCatalogStore(db *mongo.Database) *CatalogStore {
	return &CatalogStore{
		products:      db.Collection(database.ProductsCollection),
		categories:    db.Collection(database.CategoriesCollection),
		subCategories: db.Collection(database.SubCategoriesCollection),
	}
}

// FindProduct loads the product regardless of status; callers decide how
// to treat soft-deleted products.
func (s *CatalogStore) FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (s *CatalogStore) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := s.products.FindOne(ctx, bson.M{"slug": slug, "status": true}).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (s *CatalogStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	count, err := s.products.CountDocuments(ctx, bson.M{"slug": slug})
	return count > 0, err
}

func (s *CatalogStore) InsertProduct(ctx context.Context, product *models.Product) error {
	res, err := s.products.InsertOne(ctx, product)
	if err != nil {
		return translate(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		product.ID = id
	}
	return nil
}

func (s *CatalogStore) DeactivateProduct(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.products.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CatalogStore) ActiveCategoryExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := s.categories.CountDocuments(ctx, bson.M{"_id": id, "status": true})
	return count > 0, err
}

func (s *CatalogStore) ActiveSubCategoryExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := s.subCategories.CountDocuments(ctx, bson.M{"_id": id, "status": true})
	return count > 0, err
}

func (s *CatalogStore) InsertCategory(ctx context.Context, category *models.Category) error {
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	_, err := s.categories.InsertOne(ctx, category)
	return translate(err)
}

func (s *CatalogStore) InsertSubCategory(ctx context.Context, sub *models.SubCategory) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	_, err := s.subCategories.InsertOne(ctx, sub)
	return translate(err)
}

func (s *CatalogStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.categories.Find(ctx, bson.M{"status": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := make([]models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *CatalogStore) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := s.categories.FindOne(ctx, bson.M{"slug": slug, "status": true}).Decode(&category)
	if err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (s *CatalogStore) FindSubCategoryBySlug(ctx context.Context, slug string) (*models.SubCategory, error) {
	var sub models.SubCategory
	err := s.subCategories.FindOne(ctx, bson.M{"slug": slug, "status": true}).Decode(&sub)
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

// ListProducts pages through active products. Search goes through the
// product_text index.
func (s *CatalogStore) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	filter := bson.M{"status": true}
	if !f.Category.IsZero() {
		filter["category"] = f.Category
	}
	if !f.SubCategory.IsZero() {
		filter["subCategory"] = f.SubCategory
	}
	if f.Search != "" {
		filter["$text"] = bson.M{"$search": f.Search}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["variants"] = bson.M{"$elemMatch": bson.M{"price": price}}
	}

	sort := bson.D{{Key: "createdAt", Value: -1}}
	switch f.Sort {
	case SortPriceAsc:
		sort = bson.D{{Key: "variants.price", Value: 1}, {Key: "createdAt", Value: -1}}
	case SortPriceDesc:
		sort = bson.D{{Key: "variants.price", Value: -1}, {Key: "createdAt", Value: -1}}
	}

	opts := options.Find().SetSort(sort)
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip((page - 1) * f.Limit).SetLimit(f.Limit)
	}

	cursor, err := s.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	total, err := s.products.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListSubCategories returns active subcategories, narrowed to one parent
// category when categoryID is set.
func (s *CatalogStore) ListSubCategories(ctx context.Context, categoryID primitive.ObjectID) ([]models.SubCategory, error) {
	filter := bson.M{"status": true}
	if !categoryID.IsZero() {
		filter["category"] = categoryID
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.subCategories.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := make([]models.SubCategory, 0)
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// DecrementVariantStock takes qty units from one variant only if at least
// qty remain. The guard and the $inc are one document update, so two
// concurrent checkouts cannot both take the last unit. It reports false
// when the guard did not match.
// Service tests run against fakeCatalog.DecrementVariantStock, which
// mirrors this filter; the query itself needs a live server to exercise.
func (s *CatalogStore) DecrementVariantStock(ctx context.Context, productID, variantID primitive.ObjectID, qty int) (bool, error) {
	filter := bson.M{
		"_id": productID,
		"variants": bson.M{"$elemMatch": bson.M{
			"_id":   variantID,
			"stock": bson.M{"$gte": qty},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"variants.$.stock": -qty},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	res, err := s.products.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *CatalogStore) IncrementVariantStock(ctx context.Context, productID, variantID primitive.ObjectID, qty int) error {
	res, err := s.products.UpdateOne(ctx,
		bson.M{"_id": productID, "variants._id": variantID},
		bson.M{
			"$inc": bson.M{"variants.$.stock": qty},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CatalogStore) SetVariantStock(ctx context.Context, productID, variantID primitive.ObjectID, stock int) error {
	res, err := s.products.UpdateOne(ctx,
		bson.M{"_id": productID, "variants._id": variantID},
		bson.M{"$set": bson.M{"variants.$.stock": stock, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
