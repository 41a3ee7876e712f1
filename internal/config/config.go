package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Stripe configuration
	Stripe StripeConfig

	// Booking rules
	Booking BookingConfig

	// Redis cache configuration
	Redis RedisConfig

	// RabbitMQ configuration
	RabbitMQ RabbitMQConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig

	// Bootstrap admin account
	Admin AdminConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	DataDir     string // file fallback store and activity log
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// StripeConfig holds Stripe checkout configuration
type StripeConfig struct {
	SecretKey     string // SECRET - never expose to client
	WebhookSecret string // signing secret of the webhook endpoint
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// BookingConfig holds booking rules
type BookingConfig struct {
	ReferencePrefix       string
	LateDropoffCutoffHour int
	LateDropoffFee        float64
	StaleDraftAge         time.Duration
	SnapshotSchedule      string // cron spec with seconds
	CleanupSchedule       string
}

// RedisConfig holds redis connection configuration
type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// RabbitMQConfig holds broker configuration
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// AdminConfig holds the bootstrap staff account
type AdminConfig struct {
	Email        string
	PasswordHash string // bcrypt hash, see cmd/generate-secrets
	FullName     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			DataDir:     getEnv("DATA_DIR", "./data"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "eur")),
			SuccessURL:    getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/booking/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:     getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/booking/cancel"),
		},
		Booking: BookingConfig{
			ReferencePrefix:       getEnv("BOOKING_REFERENCE_PREFIX", "CR"),
			LateDropoffCutoffHour: getEnvAsInt("LATE_DROPOFF_CUTOFF_HOUR", 20),
			LateDropoffFee:        getEnvAsFloat("LATE_DROPOFF_FEE", 15),
			StaleDraftAge:         time.Duration(getEnvAsInt("STALE_DRAFT_HOURS", 72)) * time.Hour,
			SnapshotSchedule:      getEnv("SNAPSHOT_SCHEDULE", "0 */5 * * * *"),
			CleanupSchedule:       getEnv("DRAFT_CLEANUP_SCHEDULE", "0 30 3 * * *"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: time.Duration(getEnvAsInt("BOOKING_CACHE_TTL", 300)) * time.Second,
		},
		RabbitMQ: RabbitMQConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("RABBITMQ_QUEUE", "booking.status"),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 28800)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Admin: AdminConfig{
			Email:        strings.ToLower(getEnv("ADMIN_EMAIL", "")),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			FullName:     getEnv("ADMIN_FULL_NAME", "Administrator"),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Server.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if c.Booking.LateDropoffCutoffHour < 0 || c.Booking.LateDropoffCutoffHour > 23 {
		return fmt.Errorf("LATE_DROPOFF_CUTOFF_HOUR must be between 0 and 23")
	}

	// Payment and the relational store are mandatory only in production
	if c.IsProduction() {
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}

		if c.Stripe.SecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
		}

		if c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required in production")
		}
	}

	if (c.Admin.Email == "") != (c.Admin.PasswordHash == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD_HASH must be set together")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid number value for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
