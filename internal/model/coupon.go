package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported discount strategies.
type DiscountType string

const (
	// DiscountPercent removes a percentage of the original price.
	DiscountPercent DiscountType = "PERCENT"
	// DiscountFixed removes a fixed amount from the original price.
	DiscountFixed DiscountType = "FIXED"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercent || t == DiscountFixed
}

// Coupon limits.
const (
	CouponCodeMinLength = 4
	CouponCodeMaxLength = 20
	MaxCouponWindow     = 5 * 365 * 24 * time.Hour
)

var (
	// MinPercentage and MaxPercentage bound PERCENT discounts, inclusive.
	MinPercentage = decimal.NewFromInt(1)
	MaxPercentage = decimal.NewFromInt(80)
)

// Coupon is a redeemable discount definition with a validity window.
type Coupon struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Code       string          `json:"code" db:"code"`
	Type       DiscountType    `json:"type" db:"discount_type"`
	Value      decimal.Decimal `json:"value" db:"discount_value"`
	OneShot    bool            `json:"oneShot" db:"one_shot"`
	ValidFrom  time.Time       `json:"validFrom" db:"valid_from"`
	ValidUntil time.Time       `json:"validUntil" db:"valid_until"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
	DeletedAt  *time.Time      `json:"-" db:"deleted_at"`
}

// CouponRequest represents the payload for creating a coupon.
type CouponRequest struct {
	Code       string          `json:"code"`
	Type       DiscountType    `json:"type"`
	Value      decimal.Decimal `json:"value"`
	OneShot    *bool           `json:"oneShot"`
	ValidFrom  *time.Time      `json:"validFrom"`
	ValidUntil *time.Time      `json:"validUntil"`
}

// CouponUpdateRequest represents a partial coupon update. Nil fields are left untouched.
type CouponUpdateRequest struct {
	Type       *DiscountType    `json:"type,omitempty"`
	Value      *decimal.Decimal `json:"value,omitempty"`
	OneShot    *bool            `json:"oneShot,omitempty"`
	ValidFrom  *time.Time       `json:"validFrom,omitempty"`
	ValidUntil *time.Time       `json:"validUntil,omitempty"`
}

// CouponImportResult summarises a bulk coupon import.
type CouponImportResult struct {
	Created  []string          `json:"created"`
	Rejected []CouponRejection `json:"rejected"`
}

// CouponRejection records why an imported coupon was not created.
type CouponRejection struct {
	Source string `json:"source"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}
