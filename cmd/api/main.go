package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product-catalog/internal/config"
	"product-catalog/internal/coupon"
	"product-catalog/internal/database"
	"product-catalog/internal/handler"
	"product-catalog/internal/query"
	"product-catalog/internal/repository"
	"product-catalog/internal/router"
	"product-catalog/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting product catalog API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	discountRepo := repository.NewDiscountRepository(pool, logger)

	// Coupon codes are checked against the coupon store
	validator := coupon.NewValidator(couponRepo, logger)
	couponLoader := newCouponLoader(ctx, cfg.S3, logger)

	// Initialize services
	paging := query.Defaults{
		PageSize:    cfg.Catalog.DefaultPageSize,
		MaxPageSize: cfg.Catalog.MaxPageSize,
		Sort:        query.SortField(cfg.Catalog.DefaultSort),
	}
	discountService := service.NewDiscountService(discountRepo, productRepo, couponRepo, validator, logger)
	productService := service.NewProductService(productRepo, discountService, paging, logger)
	couponService := service.NewCouponService(couponRepo, validator, couponLoader, logger)

	if len(cfg.CouponImport.Files) > 0 {
		result, err := couponService.Import(ctx, cfg.CouponImport.Files)
		if err != nil {
			return fmt.Errorf("failed to import coupons: %w", err)
		}
		for _, rejected := range result.Rejected {
			logger.Warn().
				Str("source", rejected.Source).
				Str("code", rejected.Code).
				Str("reason", rejected.Reason).
				Msg("coupon definition rejected")
		}
	}

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, discountService, logger)
	couponHandler := handler.NewCouponHandler(couponService, logger)

	// Initialize router
	mux := router.New(productHandler, couponHandler, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newCouponLoader reads coupon import files from S3 with a local fallback,
// or from the local file system only when S3 is disabled.
func newCouponLoader(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) coupon.Loader {
	fileLoader := coupon.NewFileLoader(logger)
	if !cfg.Enabled {
		logger.Info().Msg("using local file system for coupon files (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := coupon.NewS3Loader(ctx, cfg.Bucket, cfg.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}

	return coupon.NewFallbackLoader(s3Loader, fileLoader, cfg.Prefix, true, logger)
}
