package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// PaymentEvent is one initiation or callback, as shipped to OpenSearch.
// Request must already be sanitized.
type PaymentEvent struct {
	Timestamp     time.Time      `json:"timestamp"`
	Event         string         `json:"event"` // "initiate" or "callback"
	Provider      string         `json:"provider"`
	OrderID       string         `json:"order_id"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Outcome       string         `json:"outcome,omitempty"`
	Status        string         `json:"status,omitempty"`
	FailureKind   string         `json:"failure_kind,omitempty"`
	Message       string         `json:"message,omitempty"`
	Verified      bool           `json:"verified,omitempty"`
	RequestID     string         `json:"request_id"`
	ClientIP      string         `json:"client_ip,omitempty"`
	DurationMs    int64          `json:"duration_ms"`
	Request       map[string]any `json:"request,omitempty"`
}

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogPaymentEvent indexes a payment event
func (l *Logger) LogPaymentEvent(ctx context.Context, event PaymentEvent) error {
	if l == nil || !l.client.IsEnabled() {
		return nil
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = uuid.New().String()
	}

	return l.index(ctx, PaymentEventIndex, event)
}

// LogSystemEvent logs a system event to OpenSearch
func (l *Logger) LogSystemEvent(ctx context.Context, entry any) error {
	if l == nil || !l.client.IsEnabled() {
		return nil
	}
	return l.index(ctx, SystemLogIndex, entry)
}

func (l *Logger) index(ctx context.Context, indexName string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// PaymentEvents returns the most recent events for an order, newest first
func (l *Logger) PaymentEvents(ctx context.Context, provider, orderID string, limit int) ([]PaymentEvent, error) {
	if l == nil || !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"provider": provider}},
					{"term": map[string]any{"order_id": orderID}},
				},
			},
		},
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": limit,
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{PaymentEventIndex},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source PaymentEvent `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	events := make([]PaymentEvent, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		events[i] = hit.Source
	}

	return events, nil
}
