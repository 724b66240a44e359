package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "posgate"

var (
	registry = prometheus.NewRegistry()
	initOnce sync.Once

	// PaymentInitiations counts initiation outcomes per provider.
	PaymentInitiations *prometheus.CounterVec
	// PaymentInitiationLatency records initiation latency in milliseconds.
	PaymentInitiationLatency *prometheus.HistogramVec
	// CallbacksTotal counts processed provider callbacks by result.
	CallbacksTotal *prometheus.CounterVec
	// LedgerWrites counts ledger write results.
	LedgerWrites *prometheus.CounterVec
	// HTTPRequests counts served HTTP requests.
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration records HTTP latency in milliseconds.
	HTTPDuration *prometheus.HistogramVec
)

func ensure() {
	initOnce.Do(func() {
		PaymentInitiations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_initiations_total",
			Help:      "Count of payment initiation outcomes.",
		}, []string{"provider", "outcome", "failure"})
		PaymentInitiationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_initiation_duration_ms",
			Help:      "Payment initiation latency in milliseconds.",
			Buckets:   []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"provider"})
		CallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_callbacks_total",
			Help:      "Count of processed payment callbacks by result.",
		}, []string{"provider", "result"})
		LedgerWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_writes_total",
			Help:      "Count of ledger write results.",
		}, []string{"driver", "result"})
		HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"})
		HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"})

		registry.MustRegister(
			PaymentInitiations,
			PaymentInitiationLatency,
			CallbacksTotal,
			LedgerWrites,
			HTTPRequests,
			HTTPDuration,
		)
	})
}

// Registry returns the registry holding every collector.
func Registry() *prometheus.Registry {
	ensure()
	return registry
}

// Handler serves the metrics in the Prometheus exposition format.
func Handler() http.Handler {
	ensure()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveInitiation records one payment initiation.
func ObserveInitiation(provider, outcome, failure string, d time.Duration) {
	ensure()
	PaymentInitiations.WithLabelValues(provider, outcome, failure).Inc()
	PaymentInitiationLatency.WithLabelValues(provider).Observe(durationMillis(d))
}

// ObserveCallback records one callback result, e.g. "recorded", "duplicate", "rejected".
func ObserveCallback(provider, result string) {
	ensure()
	CallbacksTotal.WithLabelValues(provider, result).Inc()
}

// ObserveLedgerWrite records one ledger write result.
func ObserveLedgerWrite(driver, result string) {
	ensure()
	LedgerWrites.WithLabelValues(driver, result).Inc()
}

// Middleware instruments requests with counters and latency histograms.
func Middleware(next http.Handler) http.Handler {
	ensure()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)

		route := "unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(durationMillis(time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
