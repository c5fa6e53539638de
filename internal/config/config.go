package config

import (
	"os"
	"strings"
	"time"

	"github.com/storecraft/backend/pkg/database"
)

// StripeConfig holds Stripe API credentials
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
}

// Config holds the full server configuration
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
	Port        string

	Database database.Config

	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	KafkaBrokers []string

	Stripe StripeConfig
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		ServiceName: getEnv("OTEL_SERVICE_NAME", "storefront"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnv("PORT", "8080"),
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "storefrontdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionTTL:    getDuration("SESSION_TTL", 30*24*time.Hour),
		KafkaBrokers:  getList("KAFKA_BROKERS"),
		Stripe: StripeConfig{
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
	}
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
