package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// providerEnv maps each provider id to its environment prefix and the
// credential keys read under that prefix.
var providerEnv = map[string]struct {
	prefix string
	keys   map[string]string // credential key -> env suffix
}{
	"iyzico": {
		prefix: "IYZICO_",
		keys: map[string]string{
			"apiKey":    "API_KEY",
			"secretKey": "SECRET_KEY",
			"baseURL":   "BASE_URL",
		},
	},
	"sipay": {
		prefix: "SIPAY_",
		keys: map[string]string{
			"merchantKey": "MERCHANT_KEY",
			"merchantId":  "MERCHANT_ID",
			"baseURL":     "BASE_URL",
		},
	},
	"kuveytturk": {
		prefix: "KUVEYT_TURK_",
		keys: map[string]string{
			"merchantId": "MERCHANT_ID",
			"customerId": "CUSTOMER_ID",
			"username":   "USERNAME",
			"password":   "PASSWORD",
			"baseURL":    "BASE_URL",
		},
	},
}

// ProviderConfig manages payment provider credentials
type ProviderConfig struct {
	configs map[string]map[string]string
	mu      sync.RWMutex
}

// NewProviderConfig creates an empty provider configuration
func NewProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		configs: make(map[string]map[string]string),
	}
}

// LoadFromEnv reads every known provider's credentials from the environment.
// Providers with no variable set are skipped.
func (c *ProviderConfig) LoadFromEnv() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, env := range providerEnv {
		values := make(map[string]string)
		for key, suffix := range env.keys {
			if v := strings.TrimSpace(os.Getenv(env.prefix + suffix)); v != "" {
				values[key] = v
			}
		}
		if len(values) == 0 {
			continue
		}
		if v := os.Getenv(env.prefix + "ENVIRONMENT"); v != "" {
			values["environment"] = v
		}
		c.configs[name] = values
	}
}

// SetConfig sets configuration for a provider
func (c *ProviderConfig) SetConfig(providerName string, config map[string]string) error {
	if providerName == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if len(config) == 0 {
		return fmt.Errorf("config cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.configs[strings.ToLower(providerName)] = copyConfig(config)
	return nil
}

// GetConfig returns a copy of the configuration for a provider
func (c *ProviderConfig) GetConfig(providerName string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	config, exists := c.configs[strings.ToLower(providerName)]
	if !exists {
		return nil, fmt.Errorf("no configuration found for provider: %s", providerName)
	}
	return copyConfig(config), nil
}

// GetAvailableProviders returns all providers that have configurations, sorted
func (c *ProviderConfig) GetAvailableProviders() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	providers := make([]string, 0, len(c.configs))
	for provider := range c.configs {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	return providers
}

// All returns a deep copy of every provider configuration.
func (c *ProviderConfig) All() map[string]map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]map[string]string, len(c.configs))
	for name, config := range c.configs {
		out[name] = copyConfig(config)
	}
	return out
}

func copyConfig(config map[string]string) map[string]string {
	out := make(map[string]string, len(config))
	for k, v := range config {
		out[k] = v
	}
	return out
}
