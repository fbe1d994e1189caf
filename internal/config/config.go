package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	TwelveAPIKey   string
	TwelveBaseURL  string
	HTTPAddr       string
	RequestTimeout int // seconds
	RequestsPerSec float64
	MaxRetries     int
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	CacheEnabled   bool
	CacheTTL       int // seconds
	TablesPath     string
	LogLevel       string

	Tables Tables
}

// Load initializes configuration from environment variables and the
// optional tables file, then validates it. A validation failure is a
// startup-fatal ConfigurationError.
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.TwelveBaseURL = getEnvWithDefault("TWELVE_BASE_URL", "https://api.twelvedata.com")
	cfg.HTTPAddr = getEnvWithDefault("HTTP_ADDR", ":8080")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvFloatWithDefault("REQUESTS_PER_SEC", 8)
	cfg.MaxRetries = getEnvIntWithDefault("MAX_RETRIES", 3)
	cfg.RedisAddr = getEnvWithDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvIntWithDefault("REDIS_DB", 0)
	cfg.CacheEnabled = getEnvBoolWithDefault("CACHE_ENABLED", false)
	cfg.CacheTTL = getEnvIntWithDefault("CACHE_TTL", 300)
	cfg.TablesPath = os.Getenv("TABLES_PATH")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	tables, err := LoadTables(cfg.TablesPath)
	if err != nil {
		return nil, err
	}
	cfg.Tables = tables

	if err := cfg.Tables.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
