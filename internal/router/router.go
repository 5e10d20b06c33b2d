package router

import (
	"net/http"

	"product-catalog/internal/handler"
	"product-catalog/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// APIPrefix is the versioned path every catalogue route lives under.
const APIPrefix = "/api/v1"

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	couponHandler *handler.CouponHandler,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware runs in order: RequestID -> Recovery -> Logging -> CORS
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestIDHeader)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.NotFound(handler.NotFound(logger))
	r.MethodNotAllowed(handler.MethodNotAllowed(logger))

	r.Get("/health", handler.Health)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Post("/", productHandler.Create)
			r.Get("/", productHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", productHandler.GetByID)
				r.Patch("/", productHandler.Update)
				r.Delete("/", productHandler.Delete)
				r.Post("/restore", productHandler.Restore)
				r.Post("/discount/coupon", productHandler.ApplyCoupon)
				r.Post("/discount/percent", productHandler.ApplyPercentage)
				r.Delete("/discount", productHandler.RemoveDiscount)
				r.Get("/discounts", productHandler.History)
			})
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Post("/", couponHandler.Create)
			r.Get("/", couponHandler.List)
			r.Get("/{code}", couponHandler.GetByCode)
			r.Patch("/{code}", couponHandler.Update)
			r.Delete("/{code}", couponHandler.Delete)
		})
	})

	return r
}
