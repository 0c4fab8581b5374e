package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/velvetrow/salon-platform/internal/api/router"
	"github.com/velvetrow/salon-platform/internal/booking"
	"github.com/velvetrow/salon-platform/internal/catalog"
	"github.com/velvetrow/salon-platform/internal/clients"
	appconfig "github.com/velvetrow/salon-platform/internal/config"
	"github.com/velvetrow/salon-platform/internal/connect"
	"github.com/velvetrow/salon-platform/internal/identity"
	"github.com/velvetrow/salon-platform/internal/observability/metrics"
	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/internal/stylists"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting salon-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"square_sandbox", cfg.SquareSandbox,
	)

	ctx := context.Background()

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	// Redis (optional; the catalog works uncached without it)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, catalog cache disabled", "error", err)
			rdb = nil
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	squareMetrics := metrics.NewSquareMetrics(registry)
	syncMetrics := metrics.NewSyncMetrics(registry)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Square client
	squareClient := square.NewClient(logger,
		square.WithMaxPages(cfg.MaxSyncPages),
		square.WithMetrics(squareMetrics),
	)

	// Repositories
	clientsRepo := clients.NewPostgresRepository(pool)
	stylistsRepo := stylists.NewPostgresRepository(pool)
	connectionsRepo := connect.NewPostgresRepository(pool)
	idProvider := identity.NewPostgresProvider(pool)

	// Catalog
	var catalogCache *catalog.Cache
	if rdb != nil {
		catalogCache = catalog.NewCache(rdb, cfg.CatalogCacheTTL)
	}
	catalogFetcher := catalog.NewFetcher(squareClient, catalogCache, logger)

	// Square connection flow
	oauthService := connect.NewOAuthService(connect.OAuthConfig{
		ClientID:     cfg.SquareClientID,
		ClientSecret: cfg.SquareClientSecret,
		RedirectURI:  cfg.SquareRedirectURI,
		Sandbox:      cfg.SquareSandbox,
	}, logger)
	syncer := connect.NewSyncer(squareClient, clientsRepo, stylistsRepo, logger,
		connect.WithSyncMetrics(syncMetrics),
		connect.WithCatalogWarmer(catalogFetcher),
	)
	connectService := connect.NewService(oauthService, squareClient, connectionsRepo, idProvider, syncer, logger)

	// Booking
	orchestrator := booking.NewOrchestrator(squareClient, logger,
		booking.WithSearchWindowDays(cfg.SearchWindowDays),
		booking.WithMetrics(bookingMetrics),
	)

	// Initialize handlers
	authHandler := identity.NewHandler(idProvider, cfg.AdminJWTSecret, logger)
	connectHandler := connect.NewHandler(connectService, oauthService, connectionsRepo, cfg.SquareSuccessURL, logger)
	clientsHandler := clients.NewHandler(clientsRepo, logger)
	stylistsHandler := stylists.NewHandler(stylistsRepo, logger)
	catalogHandler := catalog.NewHandler(catalogFetcher, connectionsRepo, logger)
	bookingHandler := booking.NewHandler(orchestrator, squareClient, connectionsRepo, logger)

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		AuthHandler:        authHandler,
		ConnectHandler:     connectHandler,
		ClientsHandler:     clientsHandler,
		StylistsHandler:    stylistsHandler,
		CatalogHandler:     catalogHandler,
		BookingHandler:     bookingHandler,
		SessionSecret:      cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
