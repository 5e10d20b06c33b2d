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

const couponColumns = `id, code, discount_type, discount_value::text, one_shot, valid_from, valid_until, created_at, updated_at, deleted_at`

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	db     Querier
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		db:     pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// WithTx returns a copy of the repository that runs its statements inside tx.
func (r *couponRepository) WithTx(tx pgx.Tx) CouponRepository {
	return &couponRepository{db: tx, logger: r.logger}
}

// GetByCode retrieves an active coupon by its normalised code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	q := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 AND deleted_at IS NULL`

	c, err := scanCoupon(r.db.QueryRow(ctx, q, code))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return c, nil
}

// Create inserts a new coupon.
func (r *couponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	q := `
		INSERT INTO coupons (id, code, discount_type, discount_value, one_shot, valid_from, valid_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, q,
		coupon.ID,
		coupon.Code,
		string(coupon.Type),
		coupon.Value,
		coupon.OneShot,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintActiveCouponCode) {
			r.logger.Debug().Str("code", coupon.Code).Msg("coupon code already in use")
			return model.Conflict(model.ErrCodeCouponCodeTaken, "a coupon with this code already exists")
		}
		r.logger.Error().Err(err).Str("code", coupon.Code).Msg("failed to insert coupon")
		return fmt.Errorf("failed to insert coupon: %w", err)
	}

	r.logger.Info().Str("coupon_id", coupon.ID.String()).Str("code", coupon.Code).Msg("coupon created")

	return nil
}

// Update saves the mutable fields of an active coupon. The code is immutable.
func (r *couponRepository) Update(ctx context.Context, coupon *model.Coupon) error {
	q := `
		UPDATE coupons
		SET discount_type = $2, discount_value = $3, one_shot = $4, valid_from = $5, valid_until = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, q,
		coupon.ID,
		string(coupon.Type),
		coupon.Value,
		coupon.OneShot,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("code", coupon.Code).Msg("failed to update coupon")
		return fmt.Errorf("failed to update coupon: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrCouponNotFound
	}

	return nil
}

// List returns all active coupons ordered by code.
func (r *couponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	q := `SELECT ` + couponColumns + ` FROM coupons WHERE deleted_at IS NULL ORDER BY code`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query coupons")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan coupon row")
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating coupon rows")
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// SoftDelete stamps deleted_at on an active coupon. Discounts already
// produced by the coupon keep their snapshot.
func (r *couponRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	q := `UPDATE coupons SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, q, id, at)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to soft delete coupon")
		return 0, fmt.Errorf("failed to soft delete coupon: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var (
		c     model.Coupon
		typ   string
		value string
	)
	err := row.Scan(&c.ID, &c.Code, &typ, &value, &c.OneShot, &c.ValidFrom, &c.ValidUntil, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		return nil, err
	}
	c.Type = model.DiscountType(typ)
	if c.Value, err = parseDecimal("discount_value", value); err != nil {
		return nil, err
	}
	return &c, nil
}
