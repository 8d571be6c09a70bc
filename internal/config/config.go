// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/phizctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/omkrako/phiz/internal/notifications"
)

// Config struct — populated from environment variables
type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Push gateway (FCM HTTP v1)
	FCMEndpoint  string
	FCMProjectID string
	FCMAuthToken string

	// Pipeline thresholds
	InactivityThresholdDays int
	LowScoreThreshold       int // percent
	DigestWindowDays        int
	FanOutWorkers           int
	AggregateWorkers        int

	// Schedule cadences for the in-process tickers. Zero disables a job.
	DigestInterval     time.Duration
	InactivityInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		FCMEndpoint:  envOr("FCM_ENDPOINT", ""),
		FCMProjectID: envOr("FCM_PROJECT_ID", ""),
		FCMAuthToken: envOr("FCM_AUTH_TOKEN", ""),

		InactivityThresholdDays: envInt("INACTIVITY_THRESHOLD_DAYS", 3),
		LowScoreThreshold:       envInt("LOW_SCORE_THRESHOLD", 50),
		DigestWindowDays:        envInt("DIGEST_WINDOW_DAYS", 7),
		FanOutWorkers:           envInt("FANOUT_WORKERS", 8),
		AggregateWorkers:        envInt("AGGREGATE_WORKERS", 4),

		DigestInterval:     time.Duration(envInt("DIGEST_INTERVAL_HOURS", 168)) * time.Hour,
		InactivityInterval: time.Duration(envInt("INACTIVITY_INTERVAL_HOURS", 24)) * time.Hour,
	}, nil
}

// NotifyOptions maps configuration onto pipeline options.
func (c *Config) NotifyOptions() notifications.Options {
	return notifications.Options{
		InactivityThreshold: time.Duration(c.InactivityThresholdDays) * 24 * time.Hour,
		LowScoreThreshold:   c.LowScoreThreshold,
		DigestWindow:        time.Duration(c.DigestWindowDays) * 24 * time.Hour,
		FanOutWorkers:       c.FanOutWorkers,
		AggregateWorkers:    c.AggregateWorkers,
	}
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
