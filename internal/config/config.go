package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	Auth      AuthConfig
	Geocoder  GeocoderConfig
	Payment   PaymentConfig
	ImageHost ImageHostConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig holds session token configuration.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	AdminToken string
}

// GeocoderConfig holds the address-resolution API configuration.
type GeocoderConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PaymentConfig holds the redirect payment gateway configuration.
type PaymentConfig struct {
	GatewayURL  string
	MerchantID  string
	CallbackURL string // base for success/cancel/error callbacks
}

// ImageHostConfig holds the hosted image upload configuration.
type ImageHostConfig struct {
	UploadURL    string
	UploadPreset string
	Timeout      time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "haul"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "haul-dispatch"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:   getDurationEnv("JWT_TOKEN_TTL", 24*time.Hour),
			AdminToken: getEnv("ADMIN_TOKEN", ""),
		},
		Geocoder: GeocoderConfig{
			BaseURL: getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org/search"),
			Timeout: getDurationEnv("GEOCODER_TIMEOUT", 5*time.Second),
		},
		Payment: PaymentConfig{
			GatewayURL:  getEnv("PAYMENT_GATEWAY_URL", "https://sandbox.payfast.co.za/eng/process"),
			MerchantID:  getEnv("PAYMENT_MERCHANT_ID", ""),
			CallbackURL: getEnv("PAYMENT_CALLBACK_URL", "https://localhost:8080/v1/payments/callback"),
		},
		ImageHost: ImageHostConfig{
			UploadURL:    getEnv("IMAGE_UPLOAD_URL", ""),
			UploadPreset: getEnv("IMAGE_UPLOAD_PRESET", ""),
			Timeout:      getDurationEnv("IMAGE_UPLOAD_TIMEOUT", 15*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
