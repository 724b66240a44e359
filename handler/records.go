package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/posgate/infra/ledger"
	"github.com/mstgnz/posgate/infra/opensearch"
	"github.com/mstgnz/posgate/infra/response"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// RecordLookup reads recorded payments
type RecordLookup interface {
	ByOrder(ctx context.Context, orderID string) ([]ledger.Entry, error)
}

// EventSearcher reads shipped payment events
type EventSearcher interface {
	PaymentEvents(ctx context.Context, provider, orderID string, limit int) ([]opensearch.PaymentEvent, error)
}

// OrderRecords is the body of a records lookup
type OrderRecords struct {
	OrderID     string                    `json:"orderId"`
	Records     []ledger.Entry            `json:"records"`
	Events      []opensearch.PaymentEvent `json:"events,omitempty"`
	EventsError string                    `json:"eventsError,omitempty"`
}

// RecordsHandler serves the ledger and event history of an order
type RecordsHandler struct {
	records RecordLookup
	events  EventSearcher
}

// NewRecordsHandler creates a new records handler. events may be nil.
func NewRecordsHandler(records RecordLookup, events EventSearcher) *RecordsHandler {
	return &RecordsHandler{
		records: records,
		events:  events,
	}
}

// GetRecords handles GET /v1/records/{orderId}
//
// Passing ?provider=<name> also returns the order's events from OpenSearch,
// at most ?limit of them (default 50, capped at 500).
func (h *RecordsHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		response.Error(w, http.StatusBadRequest, "Order ID is required", nil)
		return
	}

	entries, err := h.records.ByOrder(ctx, orderID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to read payment records", err)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}

	body := OrderRecords{OrderID: orderID, Records: entries}

	if providerID := r.URL.Query().Get("provider"); providerID != "" && h.events != nil {
		limit := eventLimit(r.URL.Query().Get("limit"))
		eventCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		events, err := h.events.PaymentEvents(eventCtx, providerID, orderID, limit)
		if err != nil {
			body.EventsError = err.Error()
		} else {
			body.Events = events
		}
	}

	if len(body.Records) == 0 && len(body.Events) == 0 {
		response.ErrorWithData(w, http.StatusNotFound, "No records for order", nil, body)
		return
	}
	response.Success(w, http.StatusOK, "Payment records retrieved", body)
}

func eventLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil || n <= 0:
		return defaultEventLimit
	case n > maxEventLimit:
		return maxEventLimit
	default:
		return n
	}
}
