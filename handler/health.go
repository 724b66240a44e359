package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/mstgnz/posgate/infra/response"
)

const serviceVersion = "1.0.0"

// LedgerPinger is the part of the ledger the health check needs
type LedgerPinger interface {
	Driver() string
	Ping(ctx context.Context) error
}

// ProviderLister lists configured providers
type ProviderLister interface {
	Names() []string
}

// HealthHandler handles health check requests
type HealthHandler struct {
	providers   ProviderLister
	ledger      LedgerPinger
	environment string
	startTime   time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string        `json:"status"`
	Version     string        `json:"version"`
	Timestamp   time.Time     `json:"timestamp"`
	Uptime      string        `json:"uptime"`
	Environment string        `json:"environment"`
	Providers   []string      `json:"providers"`
	Ledger      *LedgerHealth `json:"ledger"`
	System      *SystemHealth `json:"system"`
}

// LedgerHealth represents ledger storage health
type LedgerHealth struct {
	Status       string `json:"status"`
	Driver       string `json:"driver,omitempty"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// SystemHealth represents runtime resource usage
type SystemHealth struct {
	Alloc      string `json:"alloc"`
	Sys        string `json:"sys"`
	GCRuns     uint32 `json:"gc_runs"`
	GoRoutines int    `json:"goroutines"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(providers ProviderLister, ledger LedgerPinger, environment string) *HealthHandler {
	return &HealthHandler{
		providers:   providers,
		ledger:      ledger,
		environment: environment,
		startTime:   time.Now(),
	}
}

// CheckHealth reports ledger reachability and the configured providers
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := &HealthStatus{
		Version:     serviceVersion,
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: h.environment,
		Providers:   []string{},
		Ledger:      h.checkLedger(ctx),
		System:      checkSystem(),
	}
	if h.providers != nil {
		health.Providers = h.providers.Names()
	}

	health.Status = determineOverallStatus(health)

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	response.WriteJSON(w, statusCode, response.Response{
		Code:    statusCode,
		Success: health.Status != "unhealthy",
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func (h *HealthHandler) checkLedger(ctx context.Context) *LedgerHealth {
	if h.ledger == nil {
		return &LedgerHealth{Status: "not_configured"}
	}

	start := time.Now()
	err := h.ledger.Ping(ctx)
	health := &LedgerHealth{
		Status:       "healthy",
		Driver:       h.ledger.Driver(),
		ResponseTime: time.Since(start).String(),
	}
	if err != nil {
		health.Status = "unhealthy"
		health.Error = err.Error()
	}
	return health
}

func checkSystem() *SystemHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	return &SystemHealth{
		Alloc:      formatBytes(memStats.Alloc),
		Sys:        formatBytes(memStats.Sys),
		GCRuns:     memStats.NumGC,
		GoRoutines: runtime.NumGoroutine(),
	}
}

// determineOverallStatus: an unreachable ledger is fatal, no providers is degraded
func determineOverallStatus(health *HealthStatus) string {
	switch {
	case health.Ledger.Status == "unhealthy" || health.Ledger.Status == "not_configured":
		return "unhealthy"
	case len(health.Providers) == 0:
		return "degraded"
	default:
		return "healthy"
	}
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
