package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// PricingPolicy supplies the order-level amounts that are not derived from
// the items themselves.
type PricingPolicy struct {
	DeliveryFee           float64
	FreeDeliveryThreshold float64
}

func (p PricingPolicy) deliveryFeeFor(totalAmount float64) float64 {
	if p.DeliveryFee <= 0 {
		return 0
	}
	if p.FreeDeliveryThreshold > 0 && totalAmount >= p.FreeDeliveryThreshold {
		return 0
	}
	return p.DeliveryFee
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func lineTotal(price float64, quantity int) float64 {
	return toFloat(money(price).Mul(decimal.NewFromInt(int64(quantity))))
}

func sumAmounts(values []float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(money(v))
	}
	return toFloat(total)
}

// finalAmount is total + fee - discount, never below zero.
func finalAmount(total, fee, discount float64) float64 {
	final := money(total).Add(money(fee)).Sub(money(discount))
	if final.IsNegative() {
		return 0
	}
	return toFloat(final)
}

func isVariantDiscounted(v models.Variant) bool {
	return v.Discount != nil && v.Discount.Type != "" && v.Discount.Value > 0
}

// variantFinalPrice is the display price after the variant's own discount.
// Checkout charges the live variant price; this only feeds catalog reads.
func variantFinalPrice(v models.Variant) float64 {
	if !isVariantDiscounted(v) {
		return v.Price
	}
	price := money(v.Price)
	switch v.Discount.Type {
	case models.DiscountPercent:
		off := price.Mul(money(v.Discount.Value)).Div(decimal.NewFromInt(100))
		price = price.Sub(off)
	case models.DiscountFlat:
		price = price.Sub(money(v.Discount.Value))
	}
	if price.IsNegative() {
		return 0
	}
	return toFloat(price)
}

func validateVariant(v models.Variant) error {
	if v.Price < 0 {
		return fmt.Errorf("variant %q: price must be zero or greater", v.Label)
	}
	if v.Stock < 0 {
		return fmt.Errorf("variant %q: stock must be zero or greater", v.Label)
	}
	if v.Discount == nil || v.Discount.Type == "" {
		return nil
	}
	if v.Discount.Value < 0 {
		return fmt.Errorf("variant %q: discount must be zero or greater", v.Label)
	}
	switch v.Discount.Type {
	case models.DiscountPercent:
		if v.Discount.Value > 100 {
			return fmt.Errorf("variant %q: percent discount cannot exceed 100", v.Label)
		}
	case models.DiscountFlat:
		if v.Discount.Value > v.Price {
			return fmt.Errorf("variant %q: flat discount cannot exceed price", v.Label)
		}
	default:
		return fmt.Errorf("variant %q: discount type must be PERCENT or FLAT", v.Label)
	}
	return nil
}
