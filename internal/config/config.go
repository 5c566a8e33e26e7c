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

// Platform modes
const (
	PlatformModeSandbox = "sandbox"
	PlatformModeHTTP    = "http"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Logging    LoggingConfig
	OpenAI     OpenAIConfig
	Platform   PlatformConfig
	Policy     PolicyConfig
}

// PostgreSQLConfig holds the sandbox inventory database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, wins over the individual fields
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// OpenAIConfig holds the classifier's OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey          string
	APIBase         string
	ChatModel       string
	ChatTemperature float64
	ChatTopP        float64
	ChatMaxTokens   int
	Timeout         time.Duration
	Enabled         bool
}

// PlatformConfig selects and configures the marketplace adapter
type PlatformConfig struct {
	Mode     string // sandbox or http
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// PolicyConfig holds house policy for command execution
type PolicyConfig struct {
	MaxDiscountPercent float64
	PriceFloor         float64
	MinConfidence      float64
	BulkConcurrency    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "seller_sandbox"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			APIBase:         getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature: getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.1),
			ChatTopP:        getEnvAsFloat("OPENAI_CHAT_TOP_P", 1.0),
			ChatMaxTokens:   getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 1024),
			Timeout:         getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
			Enabled:         getEnv("OPENAI_API_KEY", "") != "",
		},
		Platform: PlatformConfig{
			Mode:     strings.ToLower(getEnv("PLATFORM_MODE", PlatformModeSandbox)),
			BaseURL:  getEnv("PLATFORM_BASE_URL", "http://localhost:3000"),
			APIToken: getEnv("PLATFORM_API_TOKEN", ""),
			Timeout:  getEnvAsDuration("PLATFORM_TIMEOUT", 20*time.Second),
		},
		Policy: PolicyConfig{
			MaxDiscountPercent: getEnvAsFloat("POLICY_MAX_DISCOUNT_PERCENT", 40),
			PriceFloor:         getEnvAsFloat("POLICY_PRICE_FLOOR", 0.99),
			MinConfidence:      getEnvAsFloat("POLICY_MIN_CONFIDENCE", 0),
			BulkConcurrency:    getEnvAsInt("POLICY_BULK_CONCURRENCY", 1),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the pipeline misbehave.
func (c *Config) Validate() error {
	switch c.Platform.Mode {
	case PlatformModeSandbox, PlatformModeHTTP:
	default:
		return fmt.Errorf("invalid PLATFORM_MODE %q: must be %s or %s", c.Platform.Mode, PlatformModeSandbox, PlatformModeHTTP)
	}
	if c.Policy.MaxDiscountPercent <= 0 || c.Policy.MaxDiscountPercent > 100 {
		return fmt.Errorf("POLICY_MAX_DISCOUNT_PERCENT must be in (0, 100], got %v", c.Policy.MaxDiscountPercent)
	}
	if c.Policy.PriceFloor < 0 {
		return fmt.Errorf("POLICY_PRICE_FLOOR must not be negative, got %v", c.Policy.PriceFloor)
	}
	if c.Policy.MinConfidence < 0 || c.Policy.MinConfidence > 1 {
		return fmt.Errorf("POLICY_MIN_CONFIDENCE must be in [0, 1], got %v", c.Policy.MinConfidence)
	}
	if c.Policy.BulkConcurrency < 1 {
		return fmt.Errorf("POLICY_BULK_CONCURRENCY must be at least 1, got %d", c.Policy.BulkConcurrency)
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
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
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
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
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}
