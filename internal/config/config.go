package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	CoinGecko CoinGeckoConfig
	Fernet    FernetConfig
	Logging   LoggingConfig
	Scheduler SchedulerConfig
	Registry  RegistryConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// CoinGeckoConfig holds settings for the CoinGecko market data client.
type CoinGeckoConfig struct {
	BaseURL        string
	APIKey         string // optional env override; the stored setting wins when present
	RequestTimeout time.Duration
	RatePerSecond  float64
	RateBurst      int
}

// FernetConfig holds the key used to encrypt stored secrets.
type FernetConfig struct {
	Key string // base64url-encoded 32-byte fernet key; empty disables encrypted settings
}

// LoggingConfig holds logger construction settings.
type LoggingConfig struct {
	Level string
	File  string // optional JSON log file; empty logs to stdout only
}

// SchedulerConfig holds cron schedules for background jobs.
type SchedulerConfig struct {
	PriceRefreshSpec    string
	PriceRefreshTimeout time.Duration // upper bound for one scheduled refresh run
}

// RegistryConfig holds the location of the asset seed registry.
type RegistryConfig struct {
	Path string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/cryptovalhalla.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:        getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			APIKey:         getEnv("COINGECKO_API_KEY", ""),
			RequestTimeout: getEnvDuration("COINGECKO_TIMEOUT", 15*time.Second),
			RatePerSecond:  getEnvFloat("COINGECKO_RATE_PER_SECOND", 0.6),
			RateBurst:      getEnvInt("COINGECKO_RATE_BURST", 1),
		},
		Fernet: FernetConfig{
			Key: getEnv("FERNET_KEY", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Scheduler: SchedulerConfig{
			PriceRefreshSpec:    getEnv("PRICE_REFRESH_SCHEDULE", "0 6 * * *"),
			PriceRefreshTimeout: getEnvDuration("PRICE_REFRESH_TIMEOUT", 10*time.Minute),
		},
		Registry: RegistryConfig{
			Path: getEnv("ASSET_REGISTRY_PATH", "./config/assets.yaml"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvFloat gets a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration gets a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
