package repository

import (
	"context"
	"fmt"
	"time"

	"product-catalog/internal/model"
	"product-catalog/internal/query"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `p.id, p.name, p.description, p.stock, p.price::text, p.created_at, p.updated_at, p.deleted_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	txStarter
	db     Querier
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	l := logger.With().Str("repository", "product").Logger()
	return &productRepository{
		txStarter: txStarter{pool: pool, logger: l},
		db:        pool,
		logger:    l,
	}
}

// WithTx returns a copy of the repository that runs its statements inside tx.
func (r *productRepository) WithTx(tx pgx.Tx) ProductRepository {
	return &productRepository{
		txStarter: r.txStarter,
		db:        tx,
		logger:    r.logger,
	}
}

// GetByID retrieves a single active product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1 AND p.deleted_at IS NULL`

	p, err := scanProduct(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// GetByIDForUpdate retrieves an active product and locks its row until the
// surrounding transaction ends. It must run on a repository bound with WithTx.
func (r *productRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1 AND p.deleted_at IS NULL FOR UPDATE OF p`

	p, err := scanProduct(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to lock product")
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	return p, nil
}

// GetByNormalizedName retrieves an active product by its normalised name.
func (r *productRepository) GetByNormalizedName(ctx context.Context, name string) (*model.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products p WHERE p.name = $1 AND p.deleted_at IS NULL`

	p, err := scanProduct(r.db.QueryRow(ctx, q, name))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("name", name).Msg("failed to query product by name")
		return nil, fmt.Errorf("failed to query product by name: %w", err)
	}

	return p, nil
}

// ExistsActive reports whether an active product with the given ID exists.
func (r *productRepository) ExistsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	q := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.db.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to check product exists")
		return false, fmt.Errorf("failed to check product exists: %w", err)
	}

	return exists, nil
}

// GetInactiveByID retrieves a soft-deleted product by its ID.
func (r *productRepository) GetInactiveByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1 AND p.deleted_at IS NOT NULL`

	p, err := scanProduct(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("product_id", id.String()).Msg("inactive product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query inactive product")
		return nil, fmt.Errorf("failed to query inactive product: %w", err)
	}

	return p, nil
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	q := `
		INSERT INTO products (id, name, description, stock, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, q,
		product.ID,
		product.Name,
		product.Description,
		product.Stock,
		product.Price,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintActiveProductName) {
			r.logger.Debug().Str("name", product.Name).Msg("product name already in use")
			return model.Conflict(model.ErrCodeProductNameTaken, "a product with this name already exists")
		}
		r.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to insert product")
		return fmt.Errorf("failed to insert product: %w", err)
	}

	r.logger.Info().Str("product_id", product.ID.String()).Str("name", product.Name).Msg("product created")

	return nil
}

// Update saves the mutable fields of an active product.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	q := `
		UPDATE products
		SET name = $2, description = $3, stock = $4, price = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, q,
		product.ID,
		product.Name,
		product.Description,
		product.Stock,
		product.Price,
		product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintActiveProductName) {
			return model.Conflict(model.ErrCodeProductNameTaken, "a product with this name already exists")
		}
		r.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// SoftDelete stamps deleted_at on an active product.
func (r *productRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	q := `UPDATE products SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, q, id, at)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to soft delete product")
		return 0, fmt.Errorf("failed to soft delete product: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Restore clears deleted_at on an inactive product. Restoring a product whose
// name was taken by another active product is a conflict.
func (r *productRepository) Restore(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	q := `UPDATE products SET deleted_at = NULL, updated_at = $2 WHERE id = $1 AND deleted_at IS NOT NULL`

	tag, err := r.db.Exec(ctx, q, id, at)
	if err != nil {
		if isUniqueViolation(err, constraintActiveProductName) {
			return 0, model.Conflict(model.ErrCodeProductNameTaken, "an active product already uses this name")
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to restore product")
		return 0, fmt.Errorf("failed to restore product: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Query returns one page of products matching pred along with the total number of matches.
func (r *productRepository) Query(ctx context.Context, pred query.Predicate, page query.PageRequest) ([]model.Product, int64, error) {
	b := pred.Build()
	where := b.Clause()

	countSQL := `SELECT COUNT(*) FROM products p WHERE ` + where

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, b.Args()...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Str("where", where).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	limit := b.Arg(page.Size)
	offset := b.Arg(page.Offset())
	selectSQL := `SELECT ` + productColumns + ` FROM products p WHERE ` + where +
		` ORDER BY ` + page.OrderBy() +
		` LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := r.db.Query(ctx, selectSQL, b.Args()...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("page", page.Page).
			Int("size", page.Size).
			Msg("failed to query products")
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0, page.Size)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p     model.Product
		price string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Stock, &price, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		return nil, err
	}
	if p.Price, err = parseDecimal("price", price); err != nil {
		return nil, err
	}
	return &p, nil
}
