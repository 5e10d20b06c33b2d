package service

import (
	"context"
	"fmt"
	"time"

	"product-catalog/internal/coupon"
	"product-catalog/internal/model"
	"product-catalog/internal/pricing"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// discountService implements DiscountService.
type discountService struct {
	discountRepo repository.DiscountRepository
	productRepo  repository.ProductRepository
	couponRepo   repository.CouponRepository
	validator    coupon.Validator
	now          func() time.Time
	logger       zerolog.Logger
}

// NewDiscountService creates a new discount service.
func NewDiscountService(
	discountRepo repository.DiscountRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	validator coupon.Validator,
	logger zerolog.Logger,
) DiscountService {
	return &discountService{
		discountRepo: discountRepo,
		productRepo:  productRepo,
		couponRepo:   couponRepo,
		validator:    validator,
		now:          time.Now,
		logger:       logger.With().Str("service", "discount").Logger(),
	}
}

// ApplyCoupon redeems a coupon on an active product inside one transaction.
func (s *discountService) ApplyCoupon(ctx context.Context, productID uuid.UUID, rawCode string) (view *model.ProductView, err error) {
	code := coupon.NormalizeCode(rawCode)
	if code == "" {
		return nil, model.InvalidInput(model.ErrCodeInvalidCoupon, "coupon code is required")
	}

	tx, err := s.discountRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to apply coupon: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer s.rollbackOnError(ctx, tx, &err)

	products := s.productRepo.WithTx(tx)
	discounts := s.discountRepo.WithTx(tx)

	product, err := s.loadUndiscountedProduct(ctx, products, discounts, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.couponRepo.WithTx(tx).GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to apply coupon: %w", err)
	}
	if c == nil {
		s.logger.Debug().Str("code", code).Msg("coupon not found")
		return nil, model.ErrCouponNotFound
	}

	now := s.now()
	if err = s.validator.EnsureTemporallyValid(c, now); err != nil {
		return nil, err
	}

	discount := &model.ProductDiscount{
		ID:         uuid.New(),
		ProductID:  product.ID,
		CouponID:   &c.ID,
		CouponCode: &c.Code,
		Type:       c.Type,
		Value:      c.Value,
		AppliedAt:  now,
	}

	if err = s.insert(ctx, discounts, product, discount); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to apply coupon: %w", err)
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("code", c.Code).
		Msg("coupon applied")

	v := pricing.View(product, discount)
	return &v, nil
}

// ApplyPercentage applies an ad-hoc percentage discount. The [1, 80] range
// is enforced by the caller.
func (s *discountService) ApplyPercentage(ctx context.Context, productID uuid.UUID, percentage decimal.Decimal) (view *model.ProductView, err error) {
	tx, err := s.discountRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to apply discount: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer s.rollbackOnError(ctx, tx, &err)

	products := s.productRepo.WithTx(tx)
	discounts := s.discountRepo.WithTx(tx)

	product, err := s.loadUndiscountedProduct(ctx, products, discounts, productID)
	if err != nil {
		return nil, err
	}

	discount := &model.ProductDiscount{
		ID:        uuid.New(),
		ProductID: product.ID,
		Type:      model.DiscountPercent,
		Value:     percentage,
		AppliedAt: s.now(),
	}

	if err = s.insert(ctx, discounts, product, discount); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to apply discount: %w", err)
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("percentage", percentage.String()).
		Msg("percentage discount applied")

	v := pricing.View(product, discount)
	return &v, nil
}

// RemoveDiscount stamps the active discount as removed.
func (s *discountService) RemoveDiscount(ctx context.Context, productID uuid.UUID) (view *model.ProductView, err error) {
	tx, err := s.discountRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to remove discount: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer s.rollbackOnError(ctx, tx, &err)

	discounts := s.discountRepo.WithTx(tx)

	product, err := s.productRepo.WithTx(tx).GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove discount: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	active, err := discounts.GetActiveByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove discount: %w", err)
	}
	if active == nil {
		return nil, model.ErrNoActiveDiscount
	}

	n, err := discounts.MarkRemoved(ctx, active.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to remove discount: %w", err)
	}
	if n == 0 {
		// Removed concurrently.
		return nil, model.ErrNoActiveDiscount
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to remove discount: %w", err)
	}

	s.logger.Info().
		Str("product_id", productID.String()).
		Str("discount_id", active.ID.String()).
		Msg("discount removed")

	v := pricing.View(product, nil)
	return &v, nil
}

// ResolveEffectivePrice looks up the product's active discount and prices it.
func (s *discountService) ResolveEffectivePrice(ctx context.Context, product *model.Product) (*model.ProductView, error) {
	active, err := s.discountRepo.GetActiveByProductID(ctx, product.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to resolve effective price")
		return nil, fmt.Errorf("failed to resolve effective price: %w", err)
	}

	v := pricing.View(product, active)
	return &v, nil
}

// ResolveEffectivePrices prices several products with a single discount lookup.
func (s *discountService) ResolveEffectivePrices(ctx context.Context, products []model.Product) ([]model.ProductView, error) {
	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}

	active, err := s.discountRepo.GetActiveByProductIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to resolve effective prices")
		return nil, fmt.Errorf("failed to resolve effective prices: %w", err)
	}

	views := make([]model.ProductView, len(products))
	for i := range products {
		views[i] = pricing.View(&products[i], active[products[i].ID])
	}

	return views, nil
}

// History returns the discount history of an active product.
func (s *discountService) History(ctx context.Context, productID uuid.UUID) ([]model.ProductDiscount, error) {
	exists, err := s.productRepo.ExistsActive(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get discount history: %w", err)
	}
	if !exists {
		return nil, model.ErrProductNotFound
	}

	history, err := s.discountRepo.ListByProductID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to get discount history")
		return nil, fmt.Errorf("failed to get discount history: %w", err)
	}

	return history, nil
}

// loadUndiscountedProduct locks the active product and fails if it already has
// an active discount. The row lock serialises applies with price updates.
func (s *discountService) loadUndiscountedProduct(
	ctx context.Context,
	products repository.ProductRepository,
	discounts repository.DiscountRepository,
	productID uuid.UUID,
) (*model.Product, error) {
	product, err := products.GetByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("product_id", productID.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	active, err := discounts.GetActiveByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active discount: %w", err)
	}
	if active != nil {
		s.logger.Debug().
			Str("product_id", productID.String()).
			Str("discount_id", active.ID.String()).
			Msg("product already has an active discount")
		return nil, model.ErrDiscountActive
	}

	return product, nil
}

// insert prices the discount and persists it when the result stays at or
// above the minimum price.
func (s *discountService) insert(ctx context.Context, discounts repository.DiscountRepository, product *model.Product, discount *model.ProductDiscount) error {
	final := pricing.ComputeFinalPrice(product.Price, pricing.FromProductDiscount(discount))
	if !pricing.MeetsMinimum(final) {
		s.logger.Debug().
			Str("product_id", product.ID.String()).
			Str("price", product.Price.String()).
			Str("final_price", final.String()).
			Msg("discount would push price below minimum")
		return model.ErrPriceBelowMinimum
	}

	return discounts.Create(ctx, discount)
}

func (s *discountService) rollbackOnError(ctx context.Context, tx pgx.Tx, err *error) {
	if *err == nil {
		return
	}
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
	}
}
