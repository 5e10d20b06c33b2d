package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product limits.
const (
	ProductNameMinLength   = 3
	ProductNameMaxLength   = 100
	ProductDescriptionMax  = 300
	ProductStockMax        = 999_999
	ProductPriceMaxIntPart = 8
)

var (
	// MinimumPrice is the smallest price a product may be sold for,
	// before or after a discount.
	MinimumPrice = decimal.RequireFromString("0.01")

	productNamePattern = regexp.MustCompile(`^[\p{L}0-9\s\-_,.]+$`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
)

// Product represents a product in the catalogue.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Stock       int             `json:"stock" db:"stock"`
	Price       decimal.Decimal `json:"price" db:"price"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
	DeletedAt   *time.Time      `json:"deletedAt,omitempty" db:"deleted_at"`
}

// ProductRequest represents the payload for creating a product.
type ProductRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Stock       *int            `json:"stock"`
	Price       decimal.Decimal `json:"price"`
}

// ProductUpdateRequest represents a partial product update. Nil fields are left untouched.
type ProductUpdateRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

// AppliedDiscount describes the active discount on a product view.
type AppliedDiscount struct {
	Type      DiscountType    `json:"type"`
	Value     decimal.Decimal `json:"value"`
	AppliedAt time.Time       `json:"appliedAt"`
}

// ProductView is a product with its effective price resolved.
type ProductView struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Description      *string          `json:"description,omitempty"`
	Stock            int              `json:"stock"`
	IsOutOfStock     bool             `json:"isOutOfStock"`
	Price            decimal.Decimal  `json:"price"`
	FinalPrice       decimal.Decimal  `json:"finalPrice"`
	Discount         *AppliedDiscount `json:"discount,omitempty"`
	HasCouponApplied bool             `json:"hasCouponApplied"`
	CouponCode       *string          `json:"couponCode,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// NormalizeProductName trims, collapses internal whitespace and case-folds a name.
func NormalizeProductName(name string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(name), " "))
}

// ValidateProductName checks the raw name before normalisation.
func ValidateProductName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return InvalidInput(ErrCodeInvalidProduct, "name must not be blank")
	}
	n := utf8.RuneCountInString(trimmed)
	if n < ProductNameMinLength || n > ProductNameMaxLength {
		return InvalidInput(ErrCodeInvalidProduct, "name must be between 3 and 100 characters")
	}
	if !productNamePattern.MatchString(trimmed) {
		return InvalidInput(ErrCodeInvalidProduct, "name contains invalid characters")
	}
	return nil
}

// ValidateDescription checks the optional description length.
func ValidateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > ProductDescriptionMax {
		return InvalidInput(ErrCodeInvalidProduct, "description must not exceed 300 characters")
	}
	return nil
}

// ValidateStock checks that stock is within [0, 999999].
func ValidateStock(stock int) error {
	if stock < 0 {
		return InvalidInput(ErrCodeInvalidProduct, "stock must not be negative")
	}
	if stock > ProductStockMax {
		return InvalidInput(ErrCodeInvalidProduct, "stock must not exceed 999999")
	}
	return nil
}

// ValidatePrice checks that a price is at least 0.01 with at most two
// fractional and eight integer digits.
func ValidatePrice(price decimal.Decimal) error {
	if price.LessThan(MinimumPrice) {
		return InvalidInput(ErrCodeInvalidProduct, "price must be at least 0.01")
	}
	if !HasCurrencyPrecision(price) {
		return InvalidInput(ErrCodeInvalidProduct, "price must have at most two decimal places")
	}
	if price.GreaterThanOrEqual(decimal.New(1, ProductPriceMaxIntPart)) {
		return InvalidInput(ErrCodeInvalidProduct, "price must have at most eight integer digits")
	}
	return nil
}

// HasCurrencyPrecision reports whether d has at most two fractional digits.
func HasCurrencyPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}
