package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"product-catalog/internal/model"
	"product-catalog/internal/query"
	"product-catalog/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service   service.ProductService
	discounts service.DiscountService
	logger    zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, discounts service.DiscountService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:   service,
		discounts: discounts,
		logger:    logger.With().Str("handler", "product").Logger(),
	}
}

// Create handles POST /products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+product.ID.String())
	writeJSON(w, http.StatusCreated, product)
}

// List handles GET /products requests with filters and pagination.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params, page, err := parseListQuery(r.URL.Query())
	if err != nil {
		if _, ok := model.AsDomainError(err); ok {
			writeServiceError(w, r, err, h.logger)
			return
		}
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, err.Error(), h.logger)
		return
	}

	result, err := h.service.List(r.Context(), params, page)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetByID handles GET /products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid product ID format", h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Update handles PATCH /products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid product ID format", h.logger)
		return
	}

	var req model.ProductUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid product ID format", h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST /products/{id}/restore requests.
func (h *ProductHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid product ID format", h.logger)
		return
	}

	product, err := h.service.Restore(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// ApplyCoupon handles POST /products/{id}/discount/coupon requests.
func (h *ProductHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid product ID format", h.logger)
		return
	}

	var req model.ApplyCouponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	product, err := h.discounts.ApplyCoupon(r.Context(), id, req.Code)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// ApplyPercentage handles POST /products/{id}/discount/percent requests.
func (h *ProductHandler) ApplyPercentage(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid product ID format", h.logger)
		return
	}

	var req model.ApplyPercentageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	product, err := h.discounts.ApplyPercentage(r.Context(), id, *req.Percentage)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// RemoveDiscount handles DELETE /products/{id}/discount requests.
func (h *ProductHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid product ID format", h.logger)
		return
	}

	if _, err := h.discounts.RemoveDiscount(r.Context(), id); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /products/{id}/discounts requests.
func (h *ProductHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid product ID format", h.logger)
		return
	}

	history, err := h.discounts.History(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// parseListQuery reads filter and paging parameters. Missing parameters
// stay nil so the service applies its defaults.
func parseListQuery(values url.Values) (query.Params, query.PageRequest, error) {
	var params query.Params
	var page query.PageRequest

	if search := values.Get("search"); search != "" {
		params.Search = &search
	}

	var err error
	if params.MinPrice, err = optionalDecimal(values, "minPrice"); err != nil {
		return params, page, err
	}
	if params.MaxPrice, err = optionalDecimal(values, "maxPrice"); err != nil {
		return params, page, err
	}
	if params.MinPrice != nil && params.MaxPrice != nil && params.MinPrice.GreaterThan(*params.MaxPrice) {
		return params, page, fmt.Errorf("minPrice cannot exceed maxPrice")
	}
	if params.HasDiscount, err = optionalBool(values, "hasDiscount"); err != nil {
		return params, page, err
	}
	if params.OnlyOutOfStock, err = optionalBool(values, "onlyOutOfStock"); err != nil {
		return params, page, err
	}
	if params.WithCouponApplied, err = optionalBool(values, "withCouponApplied"); err != nil {
		return params, page, err
	}

	if page.Page, err = optionalInt(values, "page", 0); err != nil {
		return params, page, model.InvalidInput(model.ErrCodeInvalidPaginationArg, err.Error())
	}
	if page.Size, err = optionalInt(values, "size", 0); err != nil {
		return params, page, model.InvalidInput(model.ErrCodeInvalidPaginationArg, err.Error())
	}
	if page.Page < 0 || page.Size < 0 {
		return params, page, model.InvalidInput(model.ErrCodeInvalidPaginationArg, "page and size must not be negative")
	}
	if page.Page > query.MaxOffset {
		return params, page, model.InvalidInput(model.ErrCodeInvalidPaginationArg, "page is out of range")
	}
	if page.Sort, page.Desc, err = query.ParseSort(values.Get("sort")); err != nil {
		return params, page, err
	}

	return params, page, nil
}

func optionalDecimal(values url.Values, key string) (*decimal.Decimal, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter", key)
	}
	return &d, nil
}

func optionalBool(values url.Values, key string) (*bool, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter", key)
	}
	return &b, nil
}

func optionalInt(values url.Values, key string, defaultValue int) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", key)
	}
	return n, nil
}
