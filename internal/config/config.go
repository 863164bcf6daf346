package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// DefaultDatabaseURL is an absolute SQLite path inside the container volume.
const DefaultDatabaseURL = "sqlite:////data/app.db"

// Config holds all configuration for the application.
type Config struct {
	Port          string
	Env           string
	WebhookSecret string
	DatabaseURL   string
	RedisURL      string // optional; enables rate limiting
	LogLevel      zerolog.Level
	EnableMetrics bool

	// Rate limiting
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled   bool     // Enable auto-blocking after repeated violations
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics when WEBHOOK_SECRET is missing.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		DatabaseURL:      getEnv("DATABASE_URL", DefaultDatabaseURL),
		RedisURL:         os.Getenv("REDIS_URL"),
		LogLevel:         parseLevel(getEnv("LOG_LEVEL", "info")),
		EnableMetrics:    getEnv("ENABLE_METRICS", "false") == "true",
		AutoBlockEnabled: getEnv("AUTO_BLOCK_ENABLED", "false") == "true",
	}

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	if cfg.Env == "production" && cfg.WebhookSecret == "" {
		panic("WEBHOOK_SECRET is required in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// parseLevel accepts zerolog level names in any case and falls back to info.
func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
