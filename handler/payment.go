package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/posgate/infra/lock"
	"github.com/mstgnz/posgate/infra/logger"
	"github.com/mstgnz/posgate/infra/middle"
	"github.com/mstgnz/posgate/infra/opensearch"
	"github.com/mstgnz/posgate/infra/response"
	"github.com/mstgnz/posgate/provider"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultLockTTL        = 30 * time.Second
	eventLogTimeout       = 5 * time.Second
)

var (
	errOrderLocked     = errors.New("payment for this order is already in progress")
	errLockUnavailable = errors.New("order lock is unavailable")
)

// Initiator starts payments with a named provider
type Initiator interface {
	Initiate(ctx context.Context, intent provider.PaymentIntent, providerID string) (provider.Outcome, error)
}

// OrderLocker serializes work on a single order across instances
type OrderLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// EventLogger ships payment events to the search backend
type EventLogger interface {
	LogPaymentEvent(ctx context.Context, event opensearch.PaymentEvent) error
}

// PaymentHandlerOptions holds the optional collaborators of PaymentHandler
type PaymentHandlerOptions struct {
	Locker  OrderLocker
	LockTTL time.Duration
	Timeout time.Duration
	Events  EventLogger
}

// PaymentHandler handles payment initiation requests
type PaymentHandler struct {
	gateway Initiator
	locker  OrderLocker
	lockTTL time.Duration
	timeout time.Duration
	events  EventLogger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(gateway Initiator, opts PaymentHandlerOptions) *PaymentHandler {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRequestTimeout
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	return &PaymentHandler{
		gateway: gateway,
		locker:  opts.Locker,
		lockTTL: opts.LockTTL,
		timeout: opts.Timeout,
		events:  opts.Events,
	}
}

// ProcessPayment handles POST /v1/payments/{provider}
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	providerID := chi.URLParam(r, "provider")

	var intent provider.PaymentIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if intent.Buyer.IP == "" {
		intent.Buyer.IP = middle.GetClientIP(r)
	}

	start := time.Now()
	outcome, err := h.initiate(ctx, providerID, intent)
	h.logEvent(r, providerID, intent, outcome, err, time.Since(start))

	if err != nil {
		writeInitiateError(w, r, providerID, err)
		return
	}
	writeOutcome(w, outcome)
}

func (h *PaymentHandler) initiate(ctx context.Context, providerID string, intent provider.PaymentIntent) (provider.Outcome, error) {
	// without an order id there is nothing to lock on; the gateway rejects it
	if h.locker == nil || intent.OrderID == "" {
		return h.gateway.Initiate(ctx, intent, providerID)
	}

	var (
		outcome provider.Outcome
		initErr error
	)
	err := h.locker.WithLock(ctx, lock.OrderKey(providerID, intent.OrderID), h.lockTTL, func(ctx context.Context) error {
		outcome, initErr = h.gateway.Initiate(ctx, intent, providerID)
		return nil
	})
	switch {
	case err == nil:
		return outcome, initErr
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return provider.Outcome{}, fmt.Errorf("%w: %v", errOrderLocked, err)
	default:
		return provider.Outcome{}, fmt.Errorf("%w: %w", errLockUnavailable, err)
	}
}

func writeInitiateError(w http.ResponseWriter, r *http.Request, providerID string, err error) {
	var (
		unknown *provider.UnknownProviderError
		invalid *provider.ValidationError
		conf    *provider.ConfigurationError
	)
	switch {
	case errors.As(err, &unknown):
		response.Error(w, http.StatusNotFound, "Unknown payment provider", err)
	case errors.As(err, &invalid):
		response.ErrorWithData(w, http.StatusBadRequest, "Validation error", err, invalid.Fields)
	case errors.Is(err, errOrderLocked):
		response.Error(w, http.StatusConflict, "Payment already in progress", errOrderLocked)
	case errors.Is(err, errLockUnavailable):
		logger.Error("Order lock failed", err, logger.LogContext{
			Provider:  providerID,
			RequestID: middle.GetRequestID(r.Context()),
		})
		response.Error(w, http.StatusServiceUnavailable, "Payment service temporarily unavailable", nil)
	case errors.As(err, &conf):
		logger.Error("Provider is misconfigured", err, logger.LogContext{
			Provider:  providerID,
			RequestID: middle.GetRequestID(r.Context()),
		})
		response.Error(w, http.StatusInternalServerError, "Payment provider is misconfigured", nil)
	default:
		logger.Error("Payment initiation failed", err, logger.LogContext{
			Provider:  providerID,
			RequestID: middle.GetRequestID(r.Context()),
		})
		response.Error(w, http.StatusInternalServerError, "Payment failed", nil)
	}
}

// writeOutcome renders browser redirects as HTML and everything else as JSON.
func writeOutcome(w http.ResponseWriter, outcome provider.Outcome) {
	switch outcome.Kind {
	case provider.OutcomeRedirect:
		if outcome.Redirect.HTML != "" {
			response.HTML(w, http.StatusOK, outcome.Redirect.HTML)
			return
		}
		response.Success(w, http.StatusOK, "Redirect required", outcome)
	case provider.OutcomeSuccess:
		response.Success(w, http.StatusOK, "Payment completed", outcome)
	case provider.OutcomeFailure:
		response.ErrorWithData(w, failureStatus(outcome.Failure.Kind), outcome.Failure.Message, nil, outcome)
	default:
		response.Error(w, http.StatusInternalServerError, "Payment failed", nil)
	}
}

func failureStatus(kind provider.ErrorKind) int {
	switch kind {
	case provider.ErrorDeclined:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadGateway
	}
}

func (h *PaymentHandler) logEvent(r *http.Request, providerID string, intent provider.PaymentIntent, outcome provider.Outcome, err error, elapsed time.Duration) {
	if h.events == nil {
		return
	}

	event := opensearch.PaymentEvent{
		Event:      "initiate",
		Provider:   providerID,
		OrderID:    intent.OrderID,
		Outcome:    string(outcome.Kind),
		RequestID:  middle.GetRequestID(r.Context()),
		ClientIP:   middle.GetClientIP(r),
		DurationMs: elapsed.Milliseconds(),
		Request:    sanitizedIntent(intent),
	}
	switch {
	case err != nil:
		event.Outcome = "error"
		event.Message = err.Error()
	case outcome.Failure != nil:
		event.FailureKind = string(outcome.Failure.Kind)
		event.Message = outcome.Failure.Message
	case outcome.Redirect != nil:
		event.TransactionID = outcome.Redirect.TransactionID
	case outcome.Success != nil:
		event.TransactionID = outcome.Success.TransactionID
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), eventLogTimeout)
	defer cancel()
	if err := h.events.LogPaymentEvent(ctx, event); err != nil {
		logger.Warn("Failed to ship payment event", logger.LogContext{
			Provider: providerID,
			Fields:   map[string]any{"order_id": intent.OrderID, "error": err.Error()},
		})
	}
}

// sanitizedIntent round-trips the intent through JSON so the sanitizer sees
// the wire field names.
func sanitizedIntent(intent provider.PaymentIntent) map[string]any {
	raw, err := json.Marshal(intent)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return provider.SanitizeForLog(m)
}
