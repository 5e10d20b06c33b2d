package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"product-catalog/internal/model"
	"product-catalog/internal/query"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newRequest builds a request with chi URL params and a request ID in its context.
func newRequest(method, target, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "test-req-1")
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sampleView() *model.ProductView {
	return &model.ProductView{
		ID:         uuid.New(),
		Name:       "café premium",
		Stock:      5,
		Price:      decimal.RequireFromString("59.90"),
		FinalPrice: decimal.RequireFromString("44.93"),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func TestProductHandler_Create(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		body           string
		serviceResult  *model.ProductView
		serviceError   error
		expectService  bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Created",
			body:           `{"name":"Café Premium","stock":5,"price":59.90}`,
			serviceResult:  sampleView(),
			expectService:  true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Malformed JSON",
			body:           `{"name":`,
			expectService:  false,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Unknown field",
			body:           `{"name":"x","stock":1,"price":1,"color":"red"}`,
			expectService:  false,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Name taken",
			body:           `{"name":"Café Premium","stock":5,"price":59.90}`,
			serviceError:   model.Conflict(model.ErrCodeProductNameTaken, "a product with this name already exists"),
			expectService:  true,
			expectedStatus: http.StatusConflict,
			expectedCode:   model.ErrCodeProductNameTaken,
		},
		{
			name:           "Validation failure",
			body:           `{"name":"ab","stock":5,"price":1}`,
			serviceError:   model.InvalidInput(model.ErrCodeInvalidProduct, "name too short"),
			expectService:  true,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidProduct,
		},
		{
			name:           "Unexpected error",
			body:           `{"name":"Café Premium","stock":5,"price":59.90}`,
			serviceError:   errors.New("database error"),
			expectService:  true,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := new(MockProductService)
			h := NewProductHandler(products, new(MockDiscountService), logger)

			if tt.expectService {
				products.On("Create", mock.Anything, mock.AnythingOfType("*model.ProductRequest")).
					Return(tt.serviceResult, tt.serviceError)
			}

			req := newRequest(http.MethodPost, "/api/v1/products", tt.body, nil)
			w := httptest.NewRecorder()

			h.Create(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.expectedCode != "" {
				body := decodeError(t, w)
				assert.Equal(t, tt.expectedCode, body.Error)
				assert.Equal(t, "test-req-1", body.CorrelationID)
			}
			if tt.expectedStatus == http.StatusCreated {
				assert.Equal(t, "/api/v1/products/"+tt.serviceResult.ID.String(), w.Header().Get("Location"))
			}
			if tt.expectService {
				products.AssertExpectations(t)
			} else {
				products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestProductHandler_Create_UnexpectedErrorHidesDetails(t *testing.T) {
	products := new(MockProductService)
	h := NewProductHandler(products, new(MockDiscountService), zerolog.Nop())
	products.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("pq: relation does not exist"))

	w := httptest.NewRecorder()
	h.Create(w, newRequest(http.MethodPost, "/api/v1/products", `{"name":"abc","stock":1,"price":1}`, nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestProductHandler_List(t *testing.T) {
	logger := zerolog.Nop()
	page := &model.Page[model.ProductView]{
		Items: []model.ProductView{*sampleView()},
		Meta:  model.NewPageMeta(0, 10, 1),
	}

	ten := decimal.NewFromInt(10)
	fifty := decimal.NewFromInt(50)
	yes := true
	no := false
	search := "café"

	tests := []struct {
		name           string
		query          string
		expectService  bool
		params         query.Params
		page           query.PageRequest
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Defaults",
			query:          "",
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Price range and out of stock",
			query:          "?minPrice=10&maxPrice=50&onlyOutOfStock=true",
			expectService:  true,
			params:         query.Params{MinPrice: &ten, MaxPrice: &fifty, OnlyOutOfStock: &yes},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Search, discount flags, paging and sort",
			query:          "?search=" + url.QueryEscape(search) + "&hasDiscount=false&withCouponApplied=true&page=2&size=5&sort=price,desc",
			expectService:  true,
			params:         query.Params{Search: &search, HasDiscount: &no, WithCouponApplied: &yes},
			page:           query.PageRequest{Page: 2, Size: 5, Sort: query.SortByPrice, Desc: true},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid minPrice",
			query:          "?minPrice=cheap",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidParameter,
		},
		{
			name:           "Inverted price range",
			query:          "?minPrice=50&maxPrice=10",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidParameter,
		},
		{
			name:           "Invalid boolean",
			query:          "?hasDiscount=maybe",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidParameter,
		},
		{
			name:           "Invalid page",
			query:          "?page=first",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidPaginationArg,
		},
		{
			name:           "Negative size",
			query:          "?size=-1",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidPaginationArg,
		},
		{
			name:           "Page beyond offset bound",
			query:          "?page=4611686018427387904&size=10",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidPaginationArg,
		},
		{
			name:           "Unsupported sort",
			query:          "?sort=color",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := new(MockProductService)
			h := NewProductHandler(products, new(MockDiscountService), logger)

			if tt.expectService {
				products.On("List", mock.Anything, tt.params, tt.page).Return(page, nil)
			}

			w := httptest.NewRecorder()
			h.List(w, newRequest(http.MethodGet, "/api/v1/products"+tt.query, "", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectService {
				products.AssertExpectations(t)

				var got struct {
					Items []map[string]any `json:"items"`
					Meta  model.PageMeta   `json:"meta"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Len(t, got.Items, 1)
				assert.Equal(t, int64(1), got.Meta.TotalItems)
			} else {
				products.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}
		})
	}
}

func TestProductHandler_GetByID(t *testing.T) {
	logger := zerolog.Nop()
	view := sampleView()

	tests := []struct {
		name           string
		id             string
		serviceResult  *model.ProductView
		serviceError   error
		expectService  bool
		expectedStatus int
	}{
		{
			name:           "Found",
			id:             view.ID.String(),
			serviceResult:  view,
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Not found",
			id:             view.ID.String(),
			serviceError:   model.ErrProductNotFound,
			expectService:  true,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Invalid UUID",
			id:             "not-a-uuid",
			expectService:  false,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := new(MockProductService)
			h := NewProductHandler(products, new(MockDiscountService), logger)

			if tt.expectService {
				products.On("GetByID", mock.Anything, view.ID).Return(tt.serviceResult, tt.serviceError)
			}

			w := httptest.NewRecorder()
			h.GetByID(w, newRequest(http.MethodGet, "/api/v1/products/"+tt.id, "", map[string]string{"id": tt.id}))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var got model.ProductView
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, view.ID, got.ID)
				assert.True(t, got.FinalPrice.Equal(view.FinalPrice))
			}
			if !tt.expectService {
				products.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestProductHandler_Update(t *testing.T) {
	products := new(MockProductService)
	h := NewProductHandler(products, new(MockDiscountService), zerolog.Nop())
	view := sampleView()

	products.On("Update", mock.Anything, view.ID, mock.MatchedBy(func(req *model.ProductUpdateRequest) bool {
		return req.Stock != nil && *req.Stock == 0 && req.Name == nil && req.Price == nil
	})).Return(view, nil)

	w := httptest.NewRecorder()
	h.Update(w, newRequest(http.MethodPatch, "/api/v1/products/"+view.ID.String(), `{"stock":0}`, map[string]string{"id": view.ID.String()}))

	assert.Equal(t, http.StatusOK, w.Code)
	products.AssertExpectations(t)
}

func TestProductHandler_DeleteAndRestore(t *testing.T) {
	id := uuid.New()
	params := map[string]string{"id": id.String()}

	t.Run("Delete returns no content", func(t *testing.T) {
		products := new(MockProductService)
		h := NewProductHandler(products, new(MockDiscountService), zerolog.Nop())
		products.On("Delete", mock.Anything, id).Return(nil)

		w := httptest.NewRecorder()
		h.Delete(w, newRequest(http.MethodDelete, "/api/v1/products/"+id.String(), "", params))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("Delete of inactive product", func(t *testing.T) {
		products := new(MockProductService)
		h := NewProductHandler(products, new(MockDiscountService), zerolog.Nop())
		products.On("Delete", mock.Anything, id).Return(model.ErrProductNotFound)

		w := httptest.NewRecorder()
		h.Delete(w, newRequest(http.MethodDelete, "/api/v1/products/"+id.String(), "", params))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Restore", func(t *testing.T) {
		products := new(MockProductService)
		h := NewProductHandler(products, new(MockDiscountService), zerolog.Nop())
		view := sampleView()
		products.On("Restore", mock.Anything, id).Return(view, nil)

		w := httptest.NewRecorder()
		h.Restore(w, newRequest(http.MethodPost, "/api/v1/products/"+id.String()+"/restore", "", params))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Restore of active product", func(t *testing.T) {
		products := new(MockProductService)
		h := NewProductHandler(products, new(MockDiscountService), zerolog.Nop())
		products.On("Restore", mock.Anything, id).
			Return(nil, model.NotFound(model.ErrCodeProductNotFound, "no deleted product with this id"))

		w := httptest.NewRecorder()
		h.Restore(w, newRequest(http.MethodPost, "/api/v1/products/"+id.String()+"/restore", "", params))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProductHandler_ApplyCoupon(t *testing.T) {
	id := uuid.New()
	params := map[string]string{"id": id.String()}

	tests := []struct {
		name           string
		body           string
		serviceError   error
		expectService  bool
		expectedStatus int
	}{
		{"Applied", `{"code":"natal25"}`, nil, true, http.StatusOK},
		{"Already discounted", `{"code":"natal25"}`, model.ErrDiscountActive, true, http.StatusConflict},
		{"Coupon expired", `{"code":"natal25"}`, model.ErrCouponNotValidNow, true, http.StatusUnprocessableEntity},
		{"Below minimum", `{"code":"natal25"}`, model.ErrPriceBelowMinimum, true, http.StatusUnprocessableEntity},
		{"Coupon missing", `{"code":"natal25"}`, model.ErrCouponNotFound, true, http.StatusNotFound},
		{"Bad body", `[]`, nil, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discounts := new(MockDiscountService)
			h := NewProductHandler(new(MockProductService), discounts, zerolog.Nop())

			if tt.expectService {
				var result *model.ProductView
				if tt.serviceError == nil {
					result = sampleView()
				}
				discounts.On("ApplyCoupon", mock.Anything, id, "natal25").Return(result, tt.serviceError)
			}

			w := httptest.NewRecorder()
			h.ApplyCoupon(w, newRequest(http.MethodPost, "/api/v1/products/"+id.String()+"/discount/coupon", tt.body, params))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectService {
				discounts.AssertExpectations(t)
			}
		})
	}
}

func TestProductHandler_ApplyPercentage(t *testing.T) {
	id := uuid.New()
	params := map[string]string{"id": id.String()}

	tests := []struct {
		name           string
		body           string
		expectService  bool
		expectedStatus int
		expectedCode   string
	}{
		{"Within range", `{"percentage":15}`, true, http.StatusOK, ""},
		{"Lower bound", `{"percentage":1}`, true, http.StatusOK, ""},
		{"Upper bound", `{"percentage":80}`, true, http.StatusOK, ""},
		{"Above range", `{"percentage":81}`, false, http.StatusBadRequest, model.ErrCodeInvalidPercentage},
		{"Below range", `{"percentage":0.5}`, false, http.StatusBadRequest, model.ErrCodeInvalidPercentage},
		{"Missing", `{}`, false, http.StatusBadRequest, model.ErrCodeInvalidPercentage},
		{"Two decimal places", `{"percentage":12.35}`, true, http.StatusOK, ""},
		{"Three decimal places", `{"percentage":12.345}`, false, http.StatusBadRequest, model.ErrCodeInvalidPercentage},
		{"Three decimal places as string", `{"percentage":"12.345"}`, false, http.StatusBadRequest, model.ErrCodeInvalidPercentage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discounts := new(MockDiscountService)
			h := NewProductHandler(new(MockProductService), discounts, zerolog.Nop())

			if tt.expectService {
				discounts.On("ApplyPercentage", mock.Anything, id, mock.AnythingOfType("decimal.Decimal")).Return(sampleView(), nil)
			}

			w := httptest.NewRecorder()
			h.ApplyPercentage(w, newRequest(http.MethodPost, "/api/v1/products/"+id.String()+"/discount/percent", tt.body, params))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}
			if !tt.expectService {
				discounts.AssertNotCalled(t, "ApplyPercentage", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestProductHandler_RemoveDiscount(t *testing.T) {
	id := uuid.New()
	params := map[string]string{"id": id.String()}

	t.Run("Removed", func(t *testing.T) {
		discounts := new(MockDiscountService)
		h := NewProductHandler(new(MockProductService), discounts, zerolog.Nop())
		discounts.On("RemoveDiscount", mock.Anything, id).Return(sampleView(), nil)

		w := httptest.NewRecorder()
		h.RemoveDiscount(w, newRequest(http.MethodDelete, "/api/v1/products/"+id.String()+"/discount", "", params))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Nothing to remove", func(t *testing.T) {
		discounts := new(MockDiscountService)
		h := NewProductHandler(new(MockProductService), discounts, zerolog.Nop())
		discounts.On("RemoveDiscount", mock.Anything, id).Return(nil, model.ErrNoActiveDiscount)

		w := httptest.NewRecorder()
		h.RemoveDiscount(w, newRequest(http.MethodDelete, "/api/v1/products/"+id.String()+"/discount", "", params))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, model.ErrCodeDiscountNotFound, decodeError(t, w).Error)
	})
}

func TestProductHandler_History(t *testing.T) {
	id := uuid.New()
	discounts := new(MockDiscountService)
	h := NewProductHandler(new(MockProductService), discounts, zerolog.Nop())

	removed := time.Now()
	discounts.On("History", mock.Anything, id).Return([]model.ProductDiscount{
		{ID: uuid.New(), ProductID: id, Type: model.DiscountPercent, Value: decimal.NewFromInt(10), AppliedAt: time.Now()},
		{ID: uuid.New(), ProductID: id, Type: model.DiscountFixed, Value: decimal.NewFromInt(2), AppliedAt: removed.Add(-time.Hour), RemovedAt: &removed},
	}, nil)

	w := httptest.NewRecorder()
	h.History(w, newRequest(http.MethodGet, "/api/v1/products/"+id.String()+"/discounts", "", map[string]string{"id": id.String()}))

	assert.Equal(t, http.StatusOK, w.Code)
	var got []model.ProductDiscount
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}
