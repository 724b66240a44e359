package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Validator *validator.Validate
}

// AppConfig represents the application configuration
type AppConfig struct {
	Port           string
	APIKey         string
	Environment    string
	LoggingLevel   string
	RequestTimeout time.Duration

	// Ledger
	LedgerDriver string // "sqlite" or "postgres"
	SQLitePath   string
	PostgresDSN  string

	// Order lock, disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OrderLockTTL  time.Duration

	// Log shipping
	OpenSearchURL  string
	OpenSearchUser string
	OpenSearchPass string
	EnableLogging  bool

	RateLimit int
}

var (
	instance     *Config
	instanceOnce sync.Once
)

// App returns the process-wide validator holder.
func App() *Config {
	instanceOnce.Do(func() {
		v := validator.New()
		// report json field names so errors match the request payload
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		instance = &Config{Validator: v}
	})
	return instance
}

// Load reads the application configuration from the environment. It is
// called once at startup; nothing reads the environment afterwards.
func Load() *AppConfig {
	return &AppConfig{
		Port:           GetEnv("APP_PORT", "9999"),
		APIKey:         GetEnv("API_KEY", ""),
		Environment:    GetEnv("ENVIRONMENT", "development"),
		LoggingLevel:   GetEnv("LOGGING_LEVEL", "info"),
		RequestTimeout: GetDurationEnv("PROVIDER_TIMEOUT", 30*time.Second),
		LedgerDriver:   GetEnv("LEDGER_DRIVER", "sqlite"),
		SQLitePath:     GetEnv("SQLITE_DB_PATH", "./data/posgate.db"),
		PostgresDSN:    GetEnv("POSTGRES_DSN", ""),
		RedisAddr:      GetEnv("REDIS_ADDR", ""),
		RedisPassword:  GetEnv("REDIS_PASSWORD", ""),
		RedisDB:        GetIntEnv("REDIS_DB", 0),
		OrderLockTTL:   GetDurationEnv("ORDER_LOCK_TTL", 45*time.Second),
		OpenSearchURL:  GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
		OpenSearchUser: GetEnv("OPENSEARCH_USER", ""),
		OpenSearchPass: GetEnv("OPENSEARCH_PASSWORD", ""),
		EnableLogging:  GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
		RateLimit:      GetIntEnv("RATE_LIMIT_PER_MINUTE", 120),
	}
}

// IsProduction reports whether the process runs against live providers.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetDurationEnv parses values like "30s" or "2m"
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
