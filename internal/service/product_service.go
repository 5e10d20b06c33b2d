package service

import (
	"context"
	"fmt"
	"time"

	"product-catalog/internal/model"
	"product-catalog/internal/pricing"
	"product-catalog/internal/query"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	discounts   DiscountService
	paging      query.Defaults
	now         func() time.Time
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	discounts DiscountService,
	paging query.Defaults,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		discounts:   discounts,
		paging:      paging,
		now:         time.Now,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// Create validates and stores a new product under its normalised name.
func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.ProductView, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	name := model.NormalizeProductName(req.Name)

	existing, err := s.productRepo.GetByNormalizedName(ctx, name)
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to check product name")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if existing != nil {
		s.logger.Debug().Str("name", name).Msg("product name already in use")
		return nil, model.Conflict(model.ErrCodeProductNameTaken, "a product with this name already exists")
	}

	now := s.now()
	product := &model.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: req.Description,
		Stock:       *req.Stock,
		Price:       req.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	view := pricing.View(product, nil)
	return &view, nil
}

// GetByID retrieves an active product with its effective price.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.ProductView, error) {
	product, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.discounts.ResolveEffectivePrice(ctx, product)
}

// Update applies a partial update. A new price must keep the effective
// price at or above the minimum when a discount is active. The product row
// stays locked from the check to the write so a concurrent discount apply
// waits and prices against the new value.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req *model.ProductUpdateRequest) (view *model.ProductView, err error) {
	if req == nil {
		return nil, model.InvalidInput(model.ErrCodeInvalidJSON, "request body is required")
	}

	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	products := s.productRepo.WithTx(tx)

	product, err := products.GetByIDForUpdate(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to lock product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	if err = applyProductUpdate(ctx, products, product, req); err != nil {
		return nil, err
	}

	view, err = s.discounts.ResolveEffectivePrice(ctx, product)
	if err != nil {
		return nil, err
	}
	if view.Discount != nil && !pricing.MeetsMinimum(view.FinalPrice) {
		return nil, model.ErrPriceBelowMinimum
	}

	product.UpdatedAt = s.now()
	if err = products.Update(ctx, product); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	view.UpdatedAt = product.UpdatedAt

	s.logger.Info().Str("product_id", id.String()).Msg("product updated")

	return view, nil
}

// applyProductUpdate validates the request and copies the set fields onto product.
func applyProductUpdate(ctx context.Context, products repository.ProductRepository, product *model.Product, req *model.ProductUpdateRequest) error {
	if req.Name != nil {
		if err := model.ValidateProductName(*req.Name); err != nil {
			return err
		}
		name := model.NormalizeProductName(*req.Name)
		if name != product.Name {
			other, err := products.GetByNormalizedName(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}
			if other != nil && other.ID != product.ID {
				return model.Conflict(model.ErrCodeProductNameTaken, "a product with this name already exists")
			}
			product.Name = name
		}
	}
	if req.Description != nil {
		if err := model.ValidateDescription(req.Description); err != nil {
			return err
		}
		product.Description = req.Description
	}
	if req.Stock != nil {
		if err := model.ValidateStock(*req.Stock); err != nil {
			return err
		}
		product.Stock = *req.Stock
	}
	if req.Price != nil {
		if err := model.ValidatePrice(*req.Price); err != nil {
			return err
		}
		product.Price = *req.Price
	}
	return nil
}

// List returns one page of active products matching params.
func (s *productService) List(ctx context.Context, params query.Params, page query.PageRequest) (*model.Page[model.ProductView], error) {
	page = page.Normalize(s.paging)
	if !page.InRange() {
		return nil, model.InvalidInput(model.ErrCodeInvalidPaginationArg, "page is out of range")
	}

	products, total, err := s.productRepo.Query(ctx, query.Compose(params), page)
	if err != nil {
		s.logger.Error().Err(err).
			Int("page", page.Page).
			Int("size", page.Size).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	views, err := s.discounts.ResolveEffectivePrices(ctx, products)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(views)).
		Int64("total", total).
		Int("page", page.Page).
		Msg("retrieved products")

	return &model.Page[model.ProductView]{
		Items: views,
		Meta:  model.NewPageMeta(page.Page, page.Size, total),
	}, nil
}

// Delete soft-deletes an active product. Its discount history is kept.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.productRepo.SoftDelete(ctx, id, s.now())
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n == 0 {
		s.logger.Debug().Str("product_id", id.String()).Msg("no active product to delete")
		return model.ErrProductNotFound
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")

	return nil
}

// Restore makes a soft-deleted product active again.
func (s *productService) Restore(ctx context.Context, id uuid.UUID) (view *model.ProductView, err error) {
	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore product: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	products := s.productRepo.WithTx(tx)

	product, err := products.GetInactiveByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to restore product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("no inactive product to restore")
		return nil, model.NotFound(model.ErrCodeProductNotFound, "no deleted product with this id")
	}

	now := s.now()
	n, err := products.Restore(ctx, id, now)
	if err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to restore product: %w", err)
	}
	if n == 0 {
		s.logger.Warn().Str("product_id", id.String()).Msg("restore affected no rows")
		return nil, model.NotFound(model.ErrCodeRestoreAffectedNone, "product could not be restored")
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to restore product: %w", err)
	}

	product.DeletedAt = nil
	product.UpdatedAt = now

	s.logger.Info().Str("product_id", id.String()).Msg("product restored")

	return s.discounts.ResolveEffectivePrice(ctx, product)
}

func (s *productService) getActive(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// validateProductRequest validates a product creation request.
func validateProductRequest(req *model.ProductRequest) error {
	if req == nil {
		return model.InvalidInput(model.ErrCodeInvalidJSON, "request body is required")
	}
	if err := model.ValidateProductName(req.Name); err != nil {
		return err
	}
	if err := model.ValidateDescription(req.Description); err != nil {
		return err
	}
	if req.Stock == nil {
		return model.InvalidInput(model.ErrCodeInvalidProduct, "stock is required")
	}
	if err := model.ValidateStock(*req.Stock); err != nil {
		return err
	}
	return model.ValidatePrice(req.Price)
}
