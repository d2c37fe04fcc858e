// Package config loads and validates the service configuration from the
// environment.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/reviews-service/pkg/config"
)

// Backend names selectable via configuration.
const (
	BackendMemory        = "memory"
	BackendCommercetools = "commercetools"
	BackendPostgres      = "postgres"
)

// Config holds all configuration for the reviews service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"REVIEWS_HTTP_PORT" envDefault:"8080"`

	// Review submission bounds
	MinRating           int `env:"REVIEW_MIN_RATING" envDefault:"1"`
	MaxRating           int `env:"REVIEW_MAX_RATING" envDefault:"5"`
	MaxCommentLength    int `env:"REVIEW_MAX_COMMENT_LENGTH" envDefault:"1000"`
	MaxAuthorNameLength int `env:"REVIEW_MAX_AUTHOR_NAME_LENGTH" envDefault:"100"`

	// Storage backend. Empty selects automatically: commercetools when
	// credentials are present, postgres when a DSN opt-in is set,
	// otherwise memory.
	Backend string `env:"REVIEWS_BACKEND"`

	// commercetools
	CTProjectKey   string `env:"CTP_PROJECT_KEY"`
	CTClientID     string `env:"CTP_CLIENT_ID"`
	CTClientSecret string `env:"CTP_CLIENT_SECRET"`
	CTAuthURL      string `env:"CTP_AUTH_URL"`
	CTAPIURL       string `env:"CTP_API_URL"`
	CTScopes       string `env:"CTP_SCOPES"`

	// PostgreSQL (used when Backend is postgres)
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"reviews"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"reviews_secret"`
	PostgresDB   string `env:"REVIEWS_DB_NAME" envDefault:"reviews_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka. Empty brokers disable event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Redis rating cache. Disabled unless a host is set.
	RedisHost      string        `env:"REDIS_HOST"`
	RedisPort      int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	RatingCacheTTL time.Duration `env:"RATING_CACHE_TTL" envDefault:"60s"`

	// JWT
	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTExpiry time.Duration `env:"JWT_TOKEN_EXPIRY" envDefault:"15m"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load reviews config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.MinRating >= cfg.MaxRating {
		return nil, fmt.Errorf("invalid rating bounds: min %d, max %d", cfg.MinRating, cfg.MaxRating)
	}

	switch cfg.Backend {
	case "", BackendMemory, BackendCommercetools, BackendPostgres:
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	if cfg.Environment != "development" && cfg.Environment != "test" {
		if cfg.JWTSecret == "change-this-to-a-secure-secret" {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}

	return cfg, nil
}

// SelectedBackend resolves the storage backend. An explicit setting wins;
// otherwise commercetools is chosen when credentials are complete outside
// the test environment, falling back to memory.
func (c *Config) SelectedBackend() string {
	if c.Backend != "" {
		return c.Backend
	}
	if c.Environment != "test" && c.commercetoolsConfigured() {
		return BackendCommercetools
	}
	return BackendMemory
}

func (c *Config) commercetoolsConfigured() bool {
	return c.CTProjectKey != "" && c.CTClientID != "" && c.CTClientSecret != "" &&
		c.CTAuthURL != "" && c.CTAPIURL != ""
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
