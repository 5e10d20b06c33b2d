package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"product-catalog/internal/coupon"
	"product-catalog/internal/model"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// couponService implements CouponService.
type couponService struct {
	couponRepo repository.CouponRepository
	validator  coupon.Validator
	loader     coupon.Loader
	now        func() time.Time
	logger     zerolog.Logger
}

// NewCouponService creates a new coupon service. loader may be nil when
// bulk import is not configured.
func NewCouponService(
	couponRepo repository.CouponRepository,
	validator coupon.Validator,
	loader coupon.Loader,
	logger zerolog.Logger,
) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		validator:  validator,
		loader:     loader,
		now:        time.Now,
		logger:     logger.With().Str("service", "coupon").Logger(),
	}
}

// Create validates and stores a new coupon under its normalised code.
func (s *couponService) Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
	if req == nil {
		return nil, model.InvalidInput(model.ErrCodeInvalidJSON, "request body is required")
	}

	code, err := s.validator.ValidateNewCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	discountType := normalizeType(req.Type)
	if err := s.validator.ValidateValue(discountType, req.Value); err != nil {
		return nil, err
	}

	if req.ValidFrom == nil || req.ValidUntil == nil {
		return nil, model.InvalidInput(model.ErrCodeInvalidCoupon, "validFrom and validUntil are required")
	}
	if err := s.validator.EnsureWindowSane(*req.ValidFrom, *req.ValidUntil); err != nil {
		return nil, err
	}

	oneShot := false
	if req.OneShot != nil {
		oneShot = *req.OneShot
	}

	now := s.now()
	c := &model.Coupon{
		ID:         uuid.New(),
		Code:       code,
		Type:       discountType,
		Value:      req.Value,
		OneShot:    oneShot,
		ValidFrom:  *req.ValidFrom,
		ValidUntil: *req.ValidUntil,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.couponRepo.Create(ctx, c); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	return c, nil
}

// GetByCode retrieves an active coupon by code.
func (s *couponService) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	normalized := coupon.NormalizeCode(code)
	if normalized == "" {
		return nil, model.ErrCouponNotFound
	}

	c, err := s.couponRepo.GetByCode(ctx, normalized)
	if err != nil {
		s.logger.Error().Err(err).Str("code", normalized).Msg("failed to get coupon")
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	if c == nil {
		return nil, model.ErrCouponNotFound
	}

	return c, nil
}

// List returns all active coupons ordered by code.
func (s *couponService) List(ctx context.Context) ([]model.Coupon, error) {
	coupons, err := s.couponRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list coupons")
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// Update applies a partial update. The merged value and window are
// validated whenever one of their parts changes.
func (s *couponService) Update(ctx context.Context, code string, req *model.CouponUpdateRequest) (*model.Coupon, error) {
	if req == nil {
		return nil, model.InvalidInput(model.ErrCodeInvalidJSON, "request body is required")
	}

	c, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if req.Type != nil || req.Value != nil {
		if req.Type != nil {
			c.Type = normalizeType(*req.Type)
		}
		if req.Value != nil {
			c.Value = *req.Value
		}
		if err := s.validator.ValidateValue(c.Type, c.Value); err != nil {
			return nil, err
		}
	}

	if req.ValidFrom != nil || req.ValidUntil != nil {
		if req.ValidFrom != nil {
			c.ValidFrom = *req.ValidFrom
		}
		if req.ValidUntil != nil {
			c.ValidUntil = *req.ValidUntil
		}
		if err := s.validator.EnsureWindowSane(c.ValidFrom, c.ValidUntil); err != nil {
			return nil, err
		}
	}

	if req.OneShot != nil {
		c.OneShot = *req.OneShot
	}

	c.UpdatedAt = s.now()
	if err := s.couponRepo.Update(ctx, c); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}

	s.logger.Info().Str("code", c.Code).Msg("coupon updated")

	return c, nil
}

// Delete soft-deletes an active coupon.
func (s *couponService) Delete(ctx context.Context, code string) error {
	c, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	n, err := s.couponRepo.SoftDelete(ctx, c.ID, s.now())
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	if n == 0 {
		return model.ErrCouponNotFound
	}

	s.logger.Info().Str("code", c.Code).Msg("coupon deleted")

	return nil
}

// Import loads the coupon files concurrently and creates each definition
// through Create. Codes already seen in an earlier row or file are skipped.
// Invalid definitions are reported, store failures abort the import.
func (s *couponService) Import(ctx context.Context, paths []string) (*model.CouponImportResult, error) {
	if s.loader == nil {
		return nil, errors.New("coupon import is not configured")
	}

	all, err := coupon.LoadAll(ctx, s.loader, paths, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to import coupons: %w", err)
	}

	result := &model.CouponImportResult{
		Created:  []string{},
		Rejected: []model.CouponRejection{},
	}
	seen := coupon.NewCodeSet()

	for _, defs := range all {
		result.Rejected = append(result.Rejected, defs.Rejected...)

		for i := range defs.Coupons {
			req := defs.Coupons[i]
			code := coupon.NormalizeCode(req.Code)

			if !seen.Add(code) {
				result.Rejected = append(result.Rejected, model.CouponRejection{
					Source: defs.Source,
					Code:   code,
					Reason: "duplicate definition",
				})
				continue
			}

			c, err := s.Create(ctx, &req)
			if err != nil {
				de, ok := model.AsDomainError(err)
				if !ok {
					return nil, fmt.Errorf("failed to import coupon %s: %w", code, err)
				}
				result.Rejected = append(result.Rejected, model.CouponRejection{
					Source: defs.Source,
					Code:   code,
					Reason: de.Message,
				})
				continue
			}
			result.Created = append(result.Created, c.Code)
		}
	}

	s.logger.Info().
		Int("files", len(paths)).
		Int("created", len(result.Created)).
		Int("rejected", len(result.Rejected)).
		Msg("coupon import finished")

	return result, nil
}

func normalizeType(t model.DiscountType) model.DiscountType {
	return model.DiscountType(strings.ToUpper(strings.TrimSpace(string(t))))
}
