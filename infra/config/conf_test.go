package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp(t *testing.T) {
	config1 := App()
	config2 := App()

	require.NotNil(t, config1)
	assert.Same(t, config1, config2, "App() should return singleton instance")
	assert.NotNil(t, config1.Validator, "Validator should be initialized")
}

func TestApp_ValidatorUsesJSONNames(t *testing.T) {
	type sample struct {
		OrderID string `json:"orderId" validate:"required"`
	}

	err := App().Validator.Struct(sample{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample.orderId")
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, c *AppConfig)
	}{
		{
			name:    "default_values",
			envVars: map[string]string{},
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, "9999", c.Port)
				assert.Equal(t, "sqlite", c.LedgerDriver)
				assert.Equal(t, "./data/posgate.db", c.SQLitePath)
				assert.Equal(t, 30*time.Second, c.RequestTimeout)
				assert.Equal(t, 45*time.Second, c.OrderLockTTL)
				assert.Empty(t, c.RedisAddr)
				assert.False(t, c.EnableLogging)
				assert.False(t, c.IsProduction())
			},
		},
		{
			name: "custom_values",
			envVars: map[string]string{
				"APP_PORT":                  "8080",
				"ENVIRONMENT":               "production",
				"LEDGER_DRIVER":             "postgres",
				"POSTGRES_DSN":              "postgres://u:p@localhost/posgate",
				"REDIS_ADDR":                "localhost:6379",
				"REDIS_DB":                  "2",
				"PROVIDER_TIMEOUT":          "5s",
				"ENABLE_OPENSEARCH_LOGGING": "true",
			},
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, "8080", c.Port)
				assert.True(t, c.IsProduction())
				assert.Equal(t, "postgres", c.LedgerDriver)
				assert.Equal(t, "postgres://u:p@localhost/posgate", c.PostgresDSN)
				assert.Equal(t, "localhost:6379", c.RedisAddr)
				assert.Equal(t, 2, c.RedisDB)
				assert.Equal(t, 5*time.Second, c.RequestTimeout)
				assert.True(t, c.EnableLogging)
			},
		},
		{
			name: "invalid_values_fall_back",
			envVars: map[string]string{
				"PROVIDER_TIMEOUT":          "soon",
				"REDIS_DB":                  "two",
				"ENABLE_OPENSEARCH_LOGGING": "maybe",
			},
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, 30*time.Second, c.RequestTimeout)
				assert.Equal(t, 0, c.RedisDB)
				assert.False(t, c.EnableLogging)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}
			tt.check(t, Load())
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("POSGATE_TEST_VAR", "custom")

	assert.Equal(t, "custom", GetEnv("POSGATE_TEST_VAR", "default"))
	assert.Equal(t, "default", GetEnv("POSGATE_MISSING_VAR", "default"))
}

func TestGetBoolEnv(t *testing.T) {
	tests := []struct {
		value    string
		def      bool
		expected bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"invalid", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("POSGATE_BOOL", tt.value)
			assert.Equal(t, tt.expected, GetBoolEnv("POSGATE_BOOL", tt.def))
		})
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("POSGATE_INT", "42")
	assert.Equal(t, 42, GetIntEnv("POSGATE_INT", 1))

	t.Setenv("POSGATE_INT", "x")
	assert.Equal(t, 1, GetIntEnv("POSGATE_INT", 1))
}
