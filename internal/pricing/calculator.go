// Package pricing computes final prices from an original price and a discount.
package pricing

import (
	"product-catalog/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount is the part of a discount the calculator needs.
type Discount struct {
	Type  model.DiscountType
	Value decimal.Decimal
}

// EffectivePrice is the outcome of resolving a product's active discount.
type EffectivePrice struct {
	FinalPrice       decimal.Decimal
	Discount         *model.ProductDiscount
	HasCouponApplied bool
}

// ComputeFinalPrice applies d to original.
//
// PERCENT discounts are rounded half-up to two decimal places. FIXED
// discounts are a plain subtraction. The result is never clamped; callers
// check it with MeetsMinimum.
func ComputeFinalPrice(original decimal.Decimal, d Discount) decimal.Decimal {
	if d.Type == model.DiscountPercent {
		amount := original.Mul(d.Value).Div(hundred)
		return original.Sub(amount).Round(2)
	}
	return original.Sub(d.Value)
}

// MeetsMinimum reports whether price is at least model.MinimumPrice.
func MeetsMinimum(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(model.MinimumPrice)
}

// FromProductDiscount extracts the calculator input from a stored discount.
func FromProductDiscount(d *model.ProductDiscount) Discount {
	return Discount{Type: d.Type, Value: d.Value}
}

// Resolve returns the effective price of a product given its active
// discount, which may be nil. A removed discount is ignored.
func Resolve(price decimal.Decimal, active *model.ProductDiscount) EffectivePrice {
	if active == nil || !active.IsActive() {
		return EffectivePrice{FinalPrice: price}
	}
	return EffectivePrice{
		FinalPrice:       ComputeFinalPrice(price, FromProductDiscount(active)),
		Discount:         active,
		HasCouponApplied: active.FromCoupon(),
	}
}

// View builds the read model for a product and its active discount.
func View(p *model.Product, active *model.ProductDiscount) model.ProductView {
	if active != nil && !active.IsActive() {
		active = nil
	}
	eff := Resolve(p.Price, active)
	v := model.ProductView{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Stock:            p.Stock,
		IsOutOfStock:     p.Stock == 0,
		Price:            p.Price,
		FinalPrice:       eff.FinalPrice,
		HasCouponApplied: eff.HasCouponApplied,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if active != nil {
		v.Discount = &model.AppliedDiscount{
			Type:      active.Type,
			Value:     active.Value,
			AppliedAt: active.AppliedAt,
		}
		v.CouponCode = active.CouponCode
	}
	return v
}
