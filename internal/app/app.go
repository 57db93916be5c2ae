// Package app wires configuration, storage, and the HTTP server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/order-valuation/internal/catalog"
	"github.com/xenking/order-valuation/internal/domain/order"
	"github.com/xenking/order-valuation/internal/domain/product"
	"github.com/xenking/order-valuation/internal/handler"
	"github.com/xenking/order-valuation/internal/storage/memory"
	"github.com/xenking/order-valuation/internal/storage/postgres"
	"github.com/xenking/order-valuation/pkg/health"
	"github.com/xenking/order-valuation/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("catalog", cfg.Catalog.Driver),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	products, closeCatalog, err := openCatalog(ctx, lg, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer closeCatalog()

	products, err = catalog.NewInstrumented(products, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "instrument catalog")
	}

	if cfg.Cache.Enabled {
		cache, err := catalog.NewRedisCacheFromURL(cfg.Cache.Addr)
		if err != nil {
			return errors.Wrap(err, "create redis cache")
		}
		defer func() { _ = cache.Close() }()

		healthSvc.AddReadinessCheck("redis", 2*time.Second, cache.Ping)
		products = catalog.NewCached(products, cache, cfg.Cache.TTL)
	}

	// Domain services.
	orderService := order.NewService(products)
	h := handler.NewHandler(products, orderService)

	// Router: health endpoints + API routes on one server.
	mux := chi.NewRouter()
	mux.Get("/livez", healthSvc.LiveEndpoint)
	mux.Get("/readyz", healthSvc.ReadyEndpoint)
	mux.Mount("/api", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(
			httpmiddleware.Wrap(mux,
				httpmiddleware.Recovery(),
				httpmiddleware.InjectLogger(zctx.From(ctx)),
				httpmiddleware.RequestID(),
				httpmiddleware.LogRequests(),
			),
			"valuation-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}
	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// openCatalog builds the configured product catalog and registers its
// readiness checks. The returned func releases its resources.
func openCatalog(ctx context.Context, lg *zap.Logger, cfg *Config, hs *health.Health) (product.Repository, func(), error) {
	switch cfg.Catalog.Driver {
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Catalog.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		hs.AddReadinessCheck("postgres", 5*time.Second, pool.Ping)
		return postgres.NewProductRepository(pool), pool.Close, nil
	default:
		c, err := memory.LoadFile(ctx, cfg.Catalog.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		lg.Info("Catalog loaded", zap.String("file", cfg.Catalog.SeedFile), zap.Int("products", c.Len()))
		return c, func() {}, nil
	}
}
