package repository

import (
	"context"
	"time"

	"product-catalog/internal/model"
	"product-catalog/internal/query"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxBeginner starts database transactions.
type TxBeginner interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// ProductRepository defines the interface for product data access operations.
// Lookups return (nil, nil) when nothing matches.
type ProductRepository interface {
	TxBeginner

	// WithTx returns a repository bound to tx.
	WithTx(tx pgx.Tx) ProductRepository

	// GetByID retrieves an active product by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDForUpdate retrieves an active product and locks its row for the
	// rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByNormalizedName retrieves an active product by its normalised name.
	GetByNormalizedName(ctx context.Context, name string) (*model.Product, error)

	// ExistsActive reports whether an active product with id exists.
	ExistsActive(ctx context.Context, id uuid.UUID) (bool, error)

	// GetInactiveByID retrieves a soft-deleted product by its ID.
	GetInactiveByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// Update saves an active product's mutable fields.
	Update(ctx context.Context, product *model.Product) error

	// SoftDelete marks an active product as deleted and returns the rows affected.
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)

	// Restore clears the deleted marker of an inactive product and returns the rows affected.
	Restore(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)

	// Query returns one page of products matching pred and the total match count.
	Query(ctx context.Context, pred query.Predicate, page query.PageRequest) ([]model.Product, int64, error)
}

// CouponRepository defines the interface for coupon data access operations.
// Only active (not deleted) coupons are visible.
type CouponRepository interface {
	// WithTx returns a repository bound to tx.
	WithTx(tx pgx.Tx) CouponRepository

	// GetByCode retrieves an active coupon by its normalised code.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// Create inserts a new coupon.
	Create(ctx context.Context, coupon *model.Coupon) error

	// Update saves an active coupon's mutable fields.
	Update(ctx context.Context, coupon *model.Coupon) error

	// List returns all active coupons ordered by code.
	List(ctx context.Context) ([]model.Coupon, error)

	// SoftDelete marks an active coupon as deleted and returns the rows affected.
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
}

// DiscountRepository defines the interface for product discount data access.
// Discount rows are never deleted.
type DiscountRepository interface {
	TxBeginner

	// WithTx returns a repository bound to tx.
	WithTx(tx pgx.Tx) DiscountRepository

	// GetActiveByProductID retrieves the product's active discount.
	GetActiveByProductID(ctx context.Context, productID uuid.UUID) (*model.ProductDiscount, error)

	// GetActiveByProductIDs retrieves the active discounts of several products keyed by product ID.
	GetActiveByProductIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*model.ProductDiscount, error)

	// Create inserts a new active discount.
	Create(ctx context.Context, discount *model.ProductDiscount) error

	// MarkRemoved retires an active discount and returns the rows affected.
	MarkRemoved(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)

	// ListByProductID returns the product's discount history, newest first.
	ListByProductID(ctx context.Context, productID uuid.UUID) ([]model.ProductDiscount, error)
}
