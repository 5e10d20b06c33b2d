package repository

import (
	"context"
	"fmt"
	"time"

	"product-catalog/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// The coupon join is outer so discounts keep their code after the coupon is soft deleted.
const discountSelect = `
	SELECT d.id, d.product_id, d.coupon_id, c.code, d.discount_type, d.discount_value::text, d.applied_at, d.removed_at
	FROM product_discounts d
	LEFT JOIN coupons c ON c.id = d.coupon_id
`

// discountRepository implements the DiscountRepository interface using PostgreSQL.
type discountRepository struct {
	txStarter
	db     Querier
	logger zerolog.Logger
}

// NewDiscountRepository creates a new PostgreSQL-backed discount repository.
func NewDiscountRepository(pool *pgxpool.Pool, logger zerolog.Logger) DiscountRepository {
	l := logger.With().Str("repository", "discount").Logger()
	return &discountRepository{
		txStarter: txStarter{pool: pool, logger: l},
		db:        pool,
		logger:    l,
	}
}

// WithTx returns a copy of the repository that runs its statements inside tx.
func (r *discountRepository) WithTx(tx pgx.Tx) DiscountRepository {
	return &discountRepository{
		txStarter: r.txStarter,
		db:        tx,
		logger:    r.logger,
	}
}

// GetActiveByProductID retrieves the active discount of a product.
func (r *discountRepository) GetActiveByProductID(ctx context.Context, productID uuid.UUID) (*model.ProductDiscount, error) {
	q := discountSelect + ` WHERE d.product_id = $1 AND d.removed_at IS NULL`

	d, err := scanDiscount(r.db.QueryRow(ctx, q, productID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to query active discount")
		return nil, fmt.Errorf("failed to query active discount: %w", err)
	}

	return d, nil
}

// GetActiveByProductIDs retrieves the active discounts of several products.
// Products without an active discount are absent from the result.
func (r *discountRepository) GetActiveByProductIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*model.ProductDiscount, error) {
	result := make(map[uuid.UUID]*model.ProductDiscount, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	q := discountSelect + ` WHERE d.product_id = ANY($1) AND d.removed_at IS NULL`

	rows, err := r.db.Query(ctx, q, productIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(productIDs)).Msg("failed to query active discounts")
		return nil, fmt.Errorf("failed to query active discounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan discount row")
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		result[d.ProductID] = d
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating discount rows")
		return nil, fmt.Errorf("error iterating discounts: %w", err)
	}

	return result, nil
}

// Create inserts a new active discount. A concurrent insert that wins the
// race surfaces as ErrDiscountActive.
func (r *discountRepository) Create(ctx context.Context, discount *model.ProductDiscount) error {
	q := `
		INSERT INTO product_discounts (id, product_id, coupon_id, discount_type, discount_value, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, q,
		discount.ID,
		discount.ProductID,
		discount.CouponID,
		string(discount.Type),
		discount.Value,
		discount.AppliedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintActiveDiscount) {
			r.logger.Warn().Str("product_id", discount.ProductID.String()).Msg("concurrent discount application rejected")
			return model.ErrDiscountActive
		}
		r.logger.Error().Err(err).Str("product_id", discount.ProductID.String()).Msg("failed to insert discount")
		return fmt.Errorf("failed to insert discount: %w", err)
	}

	r.logger.Info().
		Str("discount_id", discount.ID.String()).
		Str("product_id", discount.ProductID.String()).
		Str("type", string(discount.Type)).
		Str("value", discount.Value.String()).
		Msg("discount applied")

	return nil
}

// MarkRemoved stamps removed_at on an active discount.
func (r *discountRepository) MarkRemoved(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	q := `UPDATE product_discounts SET removed_at = $2 WHERE id = $1 AND removed_at IS NULL`

	tag, err := r.db.Exec(ctx, q, id, at)
	if err != nil {
		r.logger.Error().Err(err).Str("discount_id", id.String()).Msg("failed to remove discount")
		return 0, fmt.Errorf("failed to remove discount: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListByProductID returns every discount ever applied to the product, newest first.
func (r *discountRepository) ListByProductID(ctx context.Context, productID uuid.UUID) ([]model.ProductDiscount, error) {
	q := discountSelect + ` WHERE d.product_id = $1 ORDER BY d.applied_at DESC, d.id`

	rows, err := r.db.Query(ctx, q, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to query discount history")
		return nil, fmt.Errorf("failed to query discount history: %w", err)
	}
	defer rows.Close()

	discounts := []model.ProductDiscount{}
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan discount row")
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		discounts = append(discounts, *d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating discount rows")
		return nil, fmt.Errorf("error iterating discounts: %w", err)
	}

	return discounts, nil
}

func scanDiscount(row pgx.Row) (*model.ProductDiscount, error) {
	var (
		d     model.ProductDiscount
		typ   string
		value string
	)
	err := row.Scan(&d.ID, &d.ProductID, &d.CouponID, &d.CouponCode, &typ, &value, &d.AppliedAt, &d.RemovedAt)
	if err != nil {
		return nil, err
	}
	d.Type = model.DiscountType(typ)
	if d.Value, err = parseDecimal("discount_value", value); err != nil {
		return nil, err
	}
	return &d, nil
}
