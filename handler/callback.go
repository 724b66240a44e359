package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/posgate/infra/ledger"
	"github.com/mstgnz/posgate/infra/logger"
	"github.com/mstgnz/posgate/infra/metrics"
	"github.com/mstgnz/posgate/infra/middle"
	"github.com/mstgnz/posgate/infra/opensearch"
	"github.com/mstgnz/posgate/infra/response"
	"github.com/mstgnz/posgate/provider"
)

const (
	maxMultipartMemory = 1 << 20

	// unknownProviderLabel keeps unresolved path segments out of metric labels.
	unknownProviderLabel = "unknown"
)

// PaymentRecorder persists normalized callbacks
type PaymentRecorder interface {
	Record(ctx context.Context, req provider.RecordingRequest) (bool, error)
}

// CallbackResult is the body returned to the notifying party
type CallbackResult struct {
	Record    provider.RecordingRequest `json:"record"`
	Duplicate bool                      `json:"duplicate"`
}

// CallbackHandler receives provider notifications and records them
type CallbackHandler struct {
	processor *provider.CallbackProcessor
	recorder  PaymentRecorder
	events    EventLogger
	timeout   time.Duration
}

// NewCallbackHandler creates a new callback handler. events may be nil.
func NewCallbackHandler(processor *provider.CallbackProcessor, recorder PaymentRecorder, events EventLogger) *CallbackHandler {
	return &CallbackHandler{
		processor: processor,
		recorder:  recorder,
		events:    events,
		timeout:   defaultRequestTimeout,
	}
}

// HandleCallback handles GET/POST /callback/{provider}
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	start := time.Now()
	rawID := chi.URLParam(r, "provider")
	providerID, err := h.processor.ProviderName(rawID)
	if err != nil {
		metrics.ObserveCallback(unknownProviderLabel, "unknown_provider")
		response.Error(w, http.StatusNotFound, "Unknown payment provider", err)
		return
	}
	logCtx := logger.LogContext{
		Provider:  providerID,
		RequestID: middle.GetRequestID(r.Context()),
	}

	values, err := callbackValues(r)
	if err != nil {
		metrics.ObserveCallback(providerID, "invalid")
		response.Error(w, http.StatusBadRequest, "Invalid callback payload", err)
		return
	}

	event, err := h.processor.Decode(providerID, values)
	if err != nil {
		logger.Error("Callback decoding failed", err, logCtx)
		response.Error(w, http.StatusInternalServerError, "Callback processing failed", nil)
		return
	}

	req, err := h.processor.Process(event, providerID)
	if err != nil {
		var (
			authErr *provider.CallbackAuthenticationError
			invalid *provider.ValidationError
		)
		switch {
		case errors.As(err, &authErr):
			metrics.ObserveCallback(providerID, "rejected")
			logCtx.Fields = map[string]any{"order_id": event.OrderID}
			logger.Warn("Callback signature rejected", logCtx)
			h.logEvent(r, providerID, event, "rejected", false, time.Since(start))
			response.Error(w, http.StatusUnauthorized, "Callback signature is invalid", nil)
		case errors.As(err, &invalid):
			metrics.ObserveCallback(providerID, "invalid")
			response.ErrorWithData(w, http.StatusBadRequest, "Validation error", err, invalid.Fields)
		default:
			response.Error(w, http.StatusInternalServerError, "Callback processing failed", nil)
		}
		return
	}

	written, err := h.recorder.Record(ctx, req)
	if err != nil {
		logCtx.Fields = map[string]any{"order_id": req.OrderID, "transaction_id": req.TransactionID}
		if errors.Is(err, ledger.ErrStatusConflict) {
			metrics.ObserveCallback(req.Provider, "conflict")
			logger.Warn("Callback conflicts with recorded status", logCtx)
			response.Error(w, http.StatusConflict, "Payment already recorded with a different status", err)
			return
		}
		metrics.ObserveCallback(req.Provider, "error")
		logger.Error("Failed to record callback", err, logCtx)
		response.Error(w, http.StatusInternalServerError, "Failed to record payment", nil)
		return
	}

	result := "recorded"
	if !written {
		result = "duplicate"
	}
	metrics.ObserveCallback(req.Provider, result)
	h.logEvent(r, req.Provider, event, string(req.Status), req.Verified, time.Since(start))

	logCtx.Provider = req.Provider
	logCtx.Fields = map[string]any{
		"order_id": req.OrderID,
		"status":   string(req.Status),
		"verified": req.Verified,
		"result":   result,
	}
	logger.Info("Callback processed", logCtx)

	response.Success(w, http.StatusOK, "Callback processed", CallbackResult{
		Record:    req,
		Duplicate: !written,
	})
}

// callbackValues flattens query, form and JSON bodies into one map.
// Body fields win over query parameters.
func callbackValues(r *http.Request) (map[string]string, error) {
	values := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			values[k] = v[0]
		}
	}
	if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Body == nil {
		return values, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("decoding JSON body: %w", err)
		}
		for k, v := range body {
			switch tv := v.(type) {
			case nil:
			case string:
				values[k] = tv
			case json.Number:
				values[k] = tv.String()
			case bool:
				values[k] = fmt.Sprint(tv)
			}
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, fmt.Errorf("parsing multipart form: %w", err)
		}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				values[k] = v[0]
			}
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parsing form: %w", err)
		}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				values[k] = v[0]
			}
		}
	}
	return values, nil
}

func (h *CallbackHandler) logEvent(r *http.Request, providerID string, event provider.CallbackEvent, status string, verified bool, elapsed time.Duration) {
	if h.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), eventLogTimeout)
	defer cancel()

	err := h.events.LogPaymentEvent(ctx, opensearch.PaymentEvent{
		Event:         "callback",
		Provider:      providerID,
		OrderID:       event.OrderID,
		TransactionID: event.TransactionID,
		Status:        status,
		Verified:      verified,
		RequestID:     middle.GetRequestID(r.Context()),
		ClientIP:      middle.GetClientIP(r),
		DurationMs:    elapsed.Milliseconds(),
	})
	if err != nil {
		logger.Warn("Failed to ship callback event", logger.LogContext{
			Provider: providerID,
			Fields:   map[string]any{"order_id": event.OrderID, "error": err.Error()},
		})
	}
}
