// Package query composes product search filters into a SQL predicate.
//
// Every filter is a function that adds zero or more conditions to a
// Builder. Unset parameters contribute nothing and all conditions are
// joined with AND. The active-only filter is always part of a composed
// predicate so soft-deleted products never reach the default listing.
package query

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductAlias is the table alias filters use for the products table.
const ProductAlias = "p"

// Params holds the optional product search parameters.
type Params struct {
	Search            *string
	MinPrice          *decimal.Decimal
	MaxPrice          *decimal.Decimal
	HasDiscount       *bool
	OnlyOutOfStock    *bool
	WithCouponApplied *bool
}

// Builder accumulates SQL conditions and their positional arguments.
type Builder struct {
	conditions []string
	args       []any
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Arg registers a positional argument and returns its placeholder.
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// Where adds a condition.
func (b *Builder) Where(condition string) {
	b.conditions = append(b.conditions, condition)
}

// Clause returns the conditions joined with AND, or TRUE when empty.
func (b *Builder) Clause() string {
	if len(b.conditions) == 0 {
		return "TRUE"
	}
	return strings.Join(b.conditions, " AND ")
}

// Args returns the positional arguments in placeholder order.
func (b *Builder) Args() []any {
	return b.args
}

// Filter adds its conditions to a builder.
type Filter func(b *Builder)

// Predicate is an AND-composition of filters.
type Predicate []Filter

// And returns a predicate with the extra filters appended. Nil filters are skipped.
func (p Predicate) And(filters ...Filter) Predicate {
	out := make(Predicate, 0, len(p)+len(filters))
	out = append(out, p...)
	for _, f := range filters {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

// Apply renders every filter into b.
func (p Predicate) Apply(b *Builder) {
	for _, f := range p {
		f(b)
	}
}

// Build renders the predicate into a fresh builder.
func (p Predicate) Build() *Builder {
	b := NewBuilder()
	p.Apply(b)
	return b
}

// Compose builds the predicate for params on the active product set.
func Compose(params Params) Predicate {
	return Predicate{ActiveOnly()}.And(
		Text(params.Search),
		MinPrice(params.MinPrice),
		MaxPrice(params.MaxPrice),
		HasDiscount(params.HasDiscount),
		OnlyOutOfStock(params.OnlyOutOfStock),
		WithCouponApplied(params.WithCouponApplied),
	)
}

// ActiveOnly excludes soft-deleted products.
func ActiveOnly() Filter {
	return func(b *Builder) {
		b.Where(ProductAlias + ".deleted_at IS NULL")
	}
}

// Text matches search case-insensitively against name or description.
func Text(search *string) Filter {
	if search == nil || strings.TrimSpace(*search) == "" {
		return nil
	}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(*search))) + "%"
	return func(b *Builder) {
		ph := b.Arg(pattern)
		b.Where(fmt.Sprintf(
			"(LOWER(%[1]s.name) LIKE %[2]s OR LOWER(COALESCE(%[1]s.description, '')) LIKE %[2]s)",
			ProductAlias, ph,
		))
	}
}

// MinPrice keeps products priced at or above lower.
func MinPrice(lower *decimal.Decimal) Filter {
	if lower == nil {
		return nil
	}
	return func(b *Builder) {
		b.Where(fmt.Sprintf("%s.price >= %s", ProductAlias, b.Arg(*lower)))
	}
}

// MaxPrice keeps products priced at or below upper.
func MaxPrice(upper *decimal.Decimal) Filter {
	if upper == nil {
		return nil
	}
	return func(b *Builder) {
		b.Where(fmt.Sprintf("%s.price <= %s", ProductAlias, b.Arg(*upper)))
	}
}

// HasDiscount keeps products that currently have (true) or lack (false)
// an active discount.
func HasDiscount(has *bool) Filter {
	if has == nil {
		return nil
	}
	return activeDiscountExists(*has, "")
}

// OnlyOutOfStock keeps products with zero stock. It only triggers on true.
func OnlyOutOfStock(only *bool) Filter {
	if only == nil || !*only {
		return nil
	}
	return func(b *Builder) {
		b.Where(ProductAlias + ".stock = 0")
	}
}

// WithCouponApplied keeps products whose active discount came from a
// coupon (true), or that have no coupon-based active discount (false).
func WithCouponApplied(with *bool) Filter {
	if with == nil {
		return nil
	}
	return activeDiscountExists(*with, " AND d.coupon_id IS NOT NULL")
}

func activeDiscountExists(exists bool, extra string) Filter {
	op := "EXISTS"
	if !exists {
		op = "NOT EXISTS"
	}
	return func(b *Builder) {
		b.Where(fmt.Sprintf(
			"%s (SELECT 1 FROM product_discounts d WHERE d.product_id = %s.id AND d.removed_at IS NULL%s)",
			op, ProductAlias, extra,
		))
	}
}

// escapeLike escapes LIKE wildcards so search text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
