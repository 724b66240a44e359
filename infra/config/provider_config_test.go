package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderConfig(t *testing.T) {
	config := NewProviderConfig()

	assert.NotNil(t, config)
	assert.NotNil(t, config.configs)
	assert.Empty(t, config.GetAvailableProviders())
}

func TestProviderConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("IYZICO_API_KEY", "iyz-key")
	t.Setenv("IYZICO_SECRET_KEY", "iyz-secret")
	t.Setenv("KUVEYT_TURK_MERCHANT_ID", "496")
	t.Setenv("KUVEYT_TURK_USERNAME", "apitest")
	t.Setenv("KUVEYT_TURK_PASSWORD", "api123")
	t.Setenv("KUVEYT_TURK_ENVIRONMENT", "sandbox")
	t.Setenv("SIPAY_MERCHANT_KEY", "")

	config := NewProviderConfig()
	config.LoadFromEnv()

	assert.Equal(t, []string{"iyzico", "kuveytturk"}, config.GetAvailableProviders())

	iyzico, err := config.GetConfig("iyzico")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"apiKey": "iyz-key", "secretKey": "iyz-secret"}, iyzico)

	kuveyt, err := config.GetConfig("kuveytturk")
	require.NoError(t, err)
	assert.Equal(t, "496", kuveyt["merchantId"])
	assert.Equal(t, "apitest", kuveyt["username"])
	assert.Equal(t, "api123", kuveyt["password"])
	assert.Equal(t, "sandbox", kuveyt["environment"])

	_, err = config.GetConfig("sipay")
	assert.Error(t, err)
}

func TestProviderConfig_SetConfig(t *testing.T) {
	tests := []struct {
		name         string
		providerName string
		configData   map[string]string
		errorMsg     string
	}{
		{
			name:         "valid_sipay_config",
			providerName: "Sipay",
			configData:   map[string]string{"merchantKey": "MK", "merchantId": "M1"},
		},
		{
			name:         "empty_provider_name",
			providerName: "",
			configData:   map[string]string{"merchantKey": "MK"},
			errorMsg:     "provider name cannot be empty",
		},
		{
			name:         "empty_config",
			providerName: "sipay",
			configData:   map[string]string{},
			errorMsg:     "config cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewProviderConfig()
			err := config.SetConfig(tt.providerName, tt.configData)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)

			got, err := config.GetConfig("sipay")
			require.NoError(t, err)
			assert.Equal(t, tt.configData, got)
		})
	}
}

func TestProviderConfig_ReturnsCopies(t *testing.T) {
	config := NewProviderConfig()
	source := map[string]string{"merchantKey": "MK"}
	require.NoError(t, config.SetConfig("sipay", source))

	source["merchantKey"] = "changed"
	got, err := config.GetConfig("sipay")
	require.NoError(t, err)
	assert.Equal(t, "MK", got["merchantKey"])

	got["merchantKey"] = "mutated"
	all := config.All()
	assert.Equal(t, "MK", all["sipay"]["merchantKey"])
}
