package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"product-catalog/internal/config"
	"product-catalog/internal/coupon"
	"product-catalog/internal/database"
	"product-catalog/internal/handler"
	"product-catalog/internal/query"
	"product-catalog/internal/repository"
	"product-catalog/internal/router"
	"product-catalog/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and a migrated connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	// Create connection pool the way the server does, migrations included
	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
		Migrate:         true,
	}

	pool, err := database.NewPool(ctx, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// App bundles the wired services and HTTP handler under test.
type App struct {
	Handler   http.Handler
	Products  service.ProductService
	Coupons   service.CouponService
	Discounts service.DiscountService
}

// NewApp wires repositories, services and the router over the test pool.
func NewApp(t *testing.T, testDB *TestDB) *App {
	t.Helper()

	logger := zerolog.Nop()

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	couponRepo := repository.NewCouponRepository(testDB.Pool, logger)
	discountRepo := repository.NewDiscountRepository(testDB.Pool, logger)

	validator := coupon.NewValidator(couponRepo, logger)

	discounts := service.NewDiscountService(discountRepo, productRepo, couponRepo, validator, logger)
	products := service.NewProductService(productRepo, discounts, query.DefaultPaging(), logger)
	coupons := service.NewCouponService(couponRepo, validator, coupon.NewFileLoader(logger), logger)

	return &App{
		Handler: router.New(
			handler.NewProductHandler(products, discounts, logger),
			handler.NewCouponHandler(coupons, logger),
			logger,
		),
		Products:  products,
		Coupons:   coupons,
		Discounts: discounts,
	}
}

// CleanupDB removes all rows from the catalogue tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), "TRUNCATE product_discounts, coupons, products")
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}
