// Package coupon validates coupon codes and definitions and loads coupon
// definitions for bulk import.
package coupon

import (
	"context"
	"time"

	"product-catalog/internal/model"

	"github.com/shopspring/decimal"
)

// Validator enforces the coupon code and definition rules.
type Validator interface {
	// ValidateNewCode normalises raw and checks that it is well-formed, not
	// reserved and not used by another active coupon. It returns the
	// normalised code.
	ValidateNewCode(ctx context.Context, raw string) (string, error)

	// EnsureUnique fails with a conflict if an active coupon already has code.
	EnsureUnique(ctx context.Context, code string) error

	// EnsureTemporallyValid fails if now is outside the coupon's validity window.
	EnsureTemporallyValid(coupon *model.Coupon, now time.Time) error

	// EnsureWindowSane checks that until is after from and the span is at most five years.
	EnsureWindowSane(from, until time.Time) error

	// ValidateValue checks the discount value against its type.
	ValidateValue(discountType model.DiscountType, value decimal.Decimal) error
}

// CodeLookup finds active coupons by normalised code.
type CodeLookup interface {
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
}

// CodeSet represents a set of coupon codes for fast lookup.
type CodeSet interface {
	// Contains checks if a coupon code exists in the set.
	Contains(code string) bool

	// Add inserts code and reports whether it was not already present.
	Add(code string) bool

	// Size returns the number of codes in the set.
	Size() int
}

// Definitions holds the coupon definitions read from one source file.
type Definitions struct {
	// Source is the path or key the definitions were read from.
	Source string

	// Coupons are the well-formed rows, in file order.
	Coupons []model.CouponRequest

	// Rejected are the rows that could not be parsed.
	Rejected []model.CouponRejection
}

// Loader defines the interface for loading coupon definition files.
type Loader interface {
	// Load reads a gzipped coupon definition file.
	Load(ctx context.Context, path string) (*Definitions, error)
}
