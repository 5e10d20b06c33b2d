package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDiscount is a discount applied to a product. Type and Value are
// copied at application time so later coupon edits never change history.
type ProductDiscount struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ProductID  uuid.UUID       `json:"productId" db:"product_id"`
	CouponID   *uuid.UUID      `json:"couponId,omitempty" db:"coupon_id"`
	CouponCode *string         `json:"couponCode,omitempty"`
	Type       DiscountType    `json:"type" db:"discount_type"`
	Value      decimal.Decimal `json:"value" db:"discount_value"`
	AppliedAt  time.Time       `json:"appliedAt" db:"applied_at"`
	RemovedAt  *time.Time      `json:"removedAt,omitempty" db:"removed_at"`
}

// IsActive reports whether the discount has not been removed.
func (d *ProductDiscount) IsActive() bool {
	return d.RemovedAt == nil
}

// FromCoupon reports whether the discount was produced by a coupon redemption.
func (d *ProductDiscount) FromCoupon() bool {
	return d.CouponID != nil
}

// ApplyCouponRequest represents the payload for redeeming a coupon on a product.
type ApplyCouponRequest struct {
	Code string `json:"code"`
}

// ApplyPercentageRequest represents the payload for an ad-hoc percentage discount.
type ApplyPercentageRequest struct {
	Percentage *decimal.Decimal `json:"percentage"`
}

// Validate checks the percentage is present, within [1, 80] and has at most
// two decimal places, the precision the discount is stored with.
func (r *ApplyPercentageRequest) Validate() error {
	if r.Percentage == nil {
		return InvalidInput(ErrCodeInvalidPercentage, "percentage is required")
	}
	if r.Percentage.LessThan(MinPercentage) || r.Percentage.GreaterThan(MaxPercentage) {
		return ErrInvalidPercentage
	}
	if !HasCurrencyPrecision(*r.Percentage) {
		return InvalidInput(ErrCodeInvalidPercentage, "percentage must have at most two decimal places")
	}
	return nil
}
