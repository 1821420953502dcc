// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration values for the API server and transportctl.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `envconfig:"PORT" default:"8080"`

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// LogLevel controls the minimum log level.
	// Valid values: debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to the Vite dev server. Set CORS_ORIGINS to a comma-separated
	// list to override.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`

	// MaxBodyBytes caps request bodies; manifest imports are the largest.
	MaxBodyBytes int64 `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	// NotifyAMQPURL selects the RabbitMQ notifier. Empty means notifications
	// are only logged.
	NotifyAMQPURL     string `envconfig:"NOTIFY_AMQP_URL"`
	NotifyExchange    string `envconfig:"NOTIFY_EXCHANGE" default:"wedding.notifications"`
	NotifyConcurrency int    `envconfig:"NOTIFY_CONCURRENCY" default:"8"`

	// OTLPEndpoint is the OTLP/gRPC collector address. Empty disables tracing.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"wedding-transport"`
	Environment  string `envconfig:"APP_ENV" default:"development"`

	// AutoMigrate applies pending goose migrations at API start-up.
	AutoMigrate bool `envconfig:"AUTO_MIGRATE" default:"false"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// Load reads a .env file from the working directory when one exists, then
// reads configuration from environment variables and returns a Config.
// Variables already set in the environment win over .env entries.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config.Load: read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if cfg.MaxBodyBytes < 1 {
		return Config{}, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", cfg.MaxBodyBytes)
	}
	if cfg.NotifyConcurrency < 1 {
		return Config{}, fmt.Errorf("NOTIFY_CONCURRENCY must be positive, got %d", cfg.NotifyConcurrency)
	}
	return cfg, nil
}

// trimAll trims each entry and drops empty ones, so "a, b," reads as [a b].
func trimAll(in []string) []string {
	var out []string
	for _, part := range in {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
