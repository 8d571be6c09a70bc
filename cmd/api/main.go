// Command api is the Phiz notification service.
//
// It consumes data-mutation events over Postgres LISTEN/NOTIFY, runs the
// scheduled digest and inactivity jobs, and serves the on-demand send API.
//
// Usage:
//
//	phiz-api
//	API_PORT=8080 phiz-api
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

	"github.com/omkrako/phiz/internal/api"
	"github.com/omkrako/phiz/internal/config"
	"github.com/omkrako/phiz/internal/db"
	"github.com/omkrako/phiz/internal/gateway"
	"github.com/omkrako/phiz/internal/listener"
	"github.com/omkrako/phiz/internal/maintenance"
	"github.com/omkrako/phiz/internal/notifications"
	"github.com/omkrako/phiz/internal/store"
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

	// Assemble the pipeline
	push := gateway.New(cfg.FCMEndpoint, cfg.FCMProjectID, cfg.FCMAuthToken, logger)
	if _, disabled := push.(*gateway.Disabled); disabled {
		logger.Info("Push delivery disabled (no FCM_PROJECT_ID / FCM_AUTH_TOKEN)")
	}
	dispatcher := notifications.New(store.New(pool.Pool), push, cfg.NotifyOptions(), logger)

	// Start LISTEN/NOTIFY consumer for data-mutation events
	go listener.Start(ctx, cfg.DatabaseURL, dispatcher, logger)

	// Start schedule tickers (weekly digest, daily inactivity sweep)
	go maintenance.Start(ctx, dispatcher, maintenance.Config{
		DigestInterval:     cfg.DigestInterval,
		InactivityInterval: cfg.InactivityInterval,
	}, logger)

	// Create router
	router := api.NewRouter(pool, dispatcher, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Phiz Notification Service",
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
