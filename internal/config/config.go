package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string // sqlite, postgres, mysql
	DatabasePath   string // sqlite only
	DatabaseURL    string // postgres/mysql
	MigrationsPath string

	SessionDuration time.Duration
	InvitationTTL   time.Duration
	PlanCacheTTL    time.Duration

	CSRFSecret           string
	BillingWebhookSecret string
	AppBaseURL           string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./linkdeck.db"),
		DatabaseURL:    getEnv("DB_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),
		InvitationTTL:   getEnvDuration("INVITATION_TTL", 7*24*time.Hour),
		PlanCacheTTL:    getEnvDuration("PLAN_CACHE_TTL", 5*time.Minute),

		CSRFSecret:           getEnv("CSRF_SECRET", "dev-only-csrf-secret"),
		BillingWebhookSecret: getEnv("BILLING_WEBHOOK_SECRET", ""),
		AppBaseURL:           getEnv("APP_BASE_URL", "http://localhost:8080"),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "LinkDeck"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration reads a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
