package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProviders []string

func (s staticProviders) Names() []string { return s }

func TestHealthHandler_CheckHealth(t *testing.T) {
	tests := []struct {
		name       string
		providers  ProviderLister
		ledger     LedgerPinger
		wantStatus int
		wantHealth string
	}{
		{"healthy", staticProviders{"iyzico", "sipay"}, &fakeRecorder{}, http.StatusOK, "healthy"},
		{"no providers", staticProviders{}, &fakeRecorder{}, http.StatusOK, "degraded"},
		{"ledger down", staticProviders{"sipay"}, &fakeRecorder{pingErr: errors.New("database is locked")}, http.StatusServiceUnavailable, "unhealthy"},
		{"no ledger", staticProviders{"sipay"}, nil, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.providers, tt.ledger, "test")

			rec := httptest.NewRecorder()
			h.CheckHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			data, ok := decodeResponse(t, rec).Data.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.wantHealth, data["status"])
			assert.Equal(t, "test", data["environment"])
		})
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KB", formatBytes(1024))
	assert.Equal(t, "1.5 MB", formatBytes(1536*1024))
}
