package coupon

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"product-catalog/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	codePattern = regexp.MustCompile(`^[A-Z0-9]+$`)

	// maxCouponValue keeps values inside NUMERIC(10, 2).
	maxCouponValue = decimal.New(1, 8)
)

// NormalizeCode trims and upper-cases a coupon code. It is idempotent.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// validator implements Validator against the active coupon store.
type validator struct {
	lookup CodeLookup
	logger zerolog.Logger
}

// NewValidator creates a new coupon validator.
func NewValidator(lookup CodeLookup, logger zerolog.Logger) Validator {
	return &validator{
		lookup: lookup,
		logger: logger.With().Str("component", "coupon-validator").Logger(),
	}
}

// ValidateNewCode normalises and validates a code for a new coupon.
// Reserved words are rejected before the store is consulted.
func (v *validator) ValidateNewCode(ctx context.Context, raw string) (string, error) {
	code := NormalizeCode(raw)

	// Validate format first (cheap check)
	if len(code) < model.CouponCodeMinLength || len(code) > model.CouponCodeMaxLength {
		v.logger.Debug().
			Str("code", code).
			Int("length", len(code)).
			Msg("coupon code length invalid")
		return "", model.InvalidInput(model.ErrCodeInvalidCoupon, "coupon code must be between 4 and 20 characters")
	}
	if !codePattern.MatchString(code) {
		return "", model.InvalidInput(model.ErrCodeInvalidCoupon, "coupon code must contain only letters and digits")
	}

	if IsReserved(code) {
		v.logger.Debug().Str("code", code).Msg("reserved coupon code rejected")
		return "", model.Conflict(model.ErrCodeCouponCodeReserved, fmt.Sprintf("coupon code %s is reserved", code))
	}

	if err := v.EnsureUnique(ctx, code); err != nil {
		return "", err
	}

	return code, nil
}

// EnsureUnique fails with a conflict if an active coupon already uses code.
func (v *validator) EnsureUnique(ctx context.Context, code string) error {
	existing, err := v.lookup.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to check coupon code: %w", err)
	}
	if existing != nil {
		v.logger.Debug().Str("code", code).Msg("coupon code already in use")
		return model.Conflict(model.ErrCodeCouponCodeTaken, "a coupon with this code already exists")
	}
	return nil
}

// EnsureTemporallyValid fails if now is outside [ValidFrom, ValidUntil].
func (v *validator) EnsureTemporallyValid(coupon *model.Coupon, now time.Time) error {
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		v.logger.Debug().
			Str("code", coupon.Code).
			Time("valid_from", coupon.ValidFrom).
			Time("valid_until", coupon.ValidUntil).
			Time("now", now).
			Msg("coupon outside validity window")
		return model.ErrCouponNotValidNow
	}
	return nil
}

// EnsureWindowSane checks the validity window bounds.
func (v *validator) EnsureWindowSane(from, until time.Time) error {
	if !until.After(from) {
		return model.InvalidInput(model.ErrCodeInvalidCoupon, "validUntil must be after validFrom")
	}
	if until.Sub(from) > model.MaxCouponWindow {
		return model.InvalidInput(model.ErrCodeInvalidCoupon, "coupon validity must not exceed five years")
	}
	return nil
}

// ValidateValue checks that value is positive with currency precision and,
// for PERCENT coupons, within [1, 80].
func (v *validator) ValidateValue(discountType model.DiscountType, value decimal.Decimal) error {
	if !discountType.Valid() {
		return model.InvalidInput(model.ErrCodeInvalidCoupon, "type must be PERCENT or FIXED")
	}
	if !value.IsPositive() {
		return model.InvalidInput(model.ErrCodeInvalidCoupon, "value must be greater than zero")
	}
	if !model.HasCurrencyPrecision(value) {
		return model.InvalidInput(model.ErrCodeInvalidCoupon, "value must have at most two decimal places")
	}
	if value.GreaterThanOrEqual(maxCouponValue) {
		return model.InvalidInput(model.ErrCodeInvalidCoupon, "value is too large")
	}
	if discountType == model.DiscountPercent &&
		(value.LessThan(model.MinPercentage) || value.GreaterThan(model.MaxPercentage)) {
		return model.InvalidInput(model.ErrCodeInvalidCoupon, "percentage coupons must be between 1 and 80")
	}
	return nil
}
