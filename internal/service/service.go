package service

import (
	"context"

	"product-catalog/internal/model"
	"product-catalog/internal/query"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService defines operations for product management and the
// soft-delete lifecycle.
type ProductService interface {
	// Create validates and stores a new product.
	Create(ctx context.Context, req *model.ProductRequest) (*model.ProductView, error)

	// GetByID retrieves an active product with its effective price.
	GetByID(ctx context.Context, id uuid.UUID) (*model.ProductView, error)

	// Update applies a partial update to an active product.
	Update(ctx context.Context, id uuid.UUID, req *model.ProductUpdateRequest) (*model.ProductView, error)

	// List returns one page of active products matching params.
	List(ctx context.Context, params query.Params, page query.PageRequest) (*model.Page[model.ProductView], error)

	// Delete soft-deletes an active product.
	Delete(ctx context.Context, id uuid.UUID) error

	// Restore makes a soft-deleted product active again.
	Restore(ctx context.Context, id uuid.UUID) (*model.ProductView, error)
}

// CouponService defines operations for coupon management.
type CouponService interface {
	// Create validates and stores a new coupon.
	Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error)

	// GetByCode retrieves an active coupon by code.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// List returns all active coupons.
	List(ctx context.Context) ([]model.Coupon, error)

	// Update applies a partial update to an active coupon.
	Update(ctx context.Context, code string, req *model.CouponUpdateRequest) (*model.Coupon, error)

	// Delete soft-deletes an active coupon. Discounts it produced are kept.
	Delete(ctx context.Context, code string) error

	// Import loads coupon definition files and creates every new, valid coupon.
	Import(ctx context.Context, paths []string) (*model.CouponImportResult, error)
}

// DiscountService defines operations for applying and removing product discounts.
type DiscountService interface {
	// ApplyCoupon redeems a coupon on an active product.
	ApplyCoupon(ctx context.Context, productID uuid.UUID, code string) (*model.ProductView, error)

	// ApplyPercentage applies an ad-hoc percentage discount to an active product.
	ApplyPercentage(ctx context.Context, productID uuid.UUID, percentage decimal.Decimal) (*model.ProductView, error)

	// RemoveDiscount retires the product's active discount.
	RemoveDiscount(ctx context.Context, productID uuid.UUID) (*model.ProductView, error)

	// ResolveEffectivePrice builds the product view from its active discount.
	ResolveEffectivePrice(ctx context.Context, product *model.Product) (*model.ProductView, error)

	// ResolveEffectivePrices builds views for several products with one lookup.
	ResolveEffectivePrices(ctx context.Context, products []model.Product) ([]model.ProductView, error)

	// History returns every discount applied to an active product, newest first.
	History(ctx context.Context, productID uuid.UUID) ([]model.ProductDiscount, error)
}
