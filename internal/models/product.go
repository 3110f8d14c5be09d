package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DiscountPercent = "PERCENT"
	DiscountFlat    = "FLAT"
)

type Discount struct {
	Type  string  `bson:"type,omitempty" json:"type,omitempty"`
	Value float64 `bson:"value" json:"value"`
}

// Variant is a purchasable unit of a product, embedded in the product
// document and addressed by its own id.
type Variant struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Label      string             `bson:"label" json:"label"`
	Price      float64            `bson:"price" json:"price"`
	Stock      int                `bson:"stock" json:"stock"`
	Discount   *Discount          `bson:"discount,omitempty" json:"discount,omitempty"`
	IsDefault  bool               `bson:"isDefault" json:"isDefault"`
	FinalPrice float64            `bson:"-" json:"finalPrice"`
	InStock    bool               `bson:"-" json:"inStock"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Images      StringList         `bson:"images" json:"images"`
	Category    primitive.ObjectID `bson:"category" json:"category"`
	SubCategory primitive.ObjectID `bson:"subCategory" json:"subCategory"`
	Variants    []Variant          `bson:"variants" json:"variants"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      bool               `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FindVariant returns a pointer into p.Variants, so callers see the same
// stock and price the product document carried when it was loaded.
func (p *Product) FindVariant(id primitive.ObjectID) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Categories group products; subcategories may sit under several categories.
type Category struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	Slug   string             `bson:"slug" json:"slug"`
	Status bool               `bson:"status" json:"status"`
}

type SubCategory struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name     string               `bson:"name" json:"name"`
	Slug     string               `bson:"slug" json:"slug"`
	Category []primitive.ObjectID `bson:"category" json:"category"`
	Status   bool                 `bson:"status" json:"status"`
}

// BelongsTo reports whether categoryID is one of the subcategory's parents.
// A zero id places no constraint.
func (s *SubCategory) BelongsTo(categoryID primitive.ObjectID) bool {
	if categoryID.IsZero() {
		return true
	}
	for _, parent := range s.Category {
		if parent == categoryID {
			return true
		}
	}
	return false
}
