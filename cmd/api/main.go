// Command api is the Fieldmark booking analytics API server.
//
// Usage:
//
//	fieldmark-api
//	API_PORT=8080 fieldmark-api

// @title Fieldmark Booking Analytics API
// @version 1.0.0
// @description Read-only analytics over the facility booking data: inactive users, low-rating users, and unused availability slots.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Fieldmark
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/fieldmark/booking-analytics/internal/analytics"
	"github.com/fieldmark/booking-analytics/internal/api"
	"github.com/fieldmark/booking-analytics/internal/cache"
	"github.com/fieldmark/booking-analytics/internal/config"
	"github.com/fieldmark/booking-analytics/internal/db"
	"github.com/fieldmark/booking-analytics/internal/storage/postgres"

	_ "github.com/fieldmark/booking-analytics/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Analytics service over the Postgres store
	svc := analytics.New(postgres.New(pool.Pool), logger, analyticsOptions(cfg))

	// Create router
	router := api.NewRouter(pool.Pool, svc, appCache, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Fieldmark Booking Analytics API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

func analyticsOptions(cfg *config.Config) analytics.Options {
	boundary := analytics.BoundaryStrict
	if cfg.SlotBoundaryInclusive {
		boundary = analytics.BoundaryInclusiveStart
	}
	return analytics.Options{
		Workers:      cfg.AnalyticsWorkers,
		FetchTimeout: cfg.AnalyticsFetchTimeout,
		Boundary:     boundary,
	}
}
