package provider

import "strings"

// CallbackProcessor turns inbound provider notifications into recording
// requests. It performs no I/O; the same input always yields the same output.
type CallbackProcessor struct {
	registry *Registry
}

// NewCallbackProcessor creates a callback processor over a configured registry
func NewCallbackProcessor(registry *Registry) *CallbackProcessor {
	return &CallbackProcessor{registry: registry}
}

// ProviderName resolves providerID to the name its adapter is registered
// under, or returns an *UnknownProviderError.
func (p *CallbackProcessor) ProviderName(providerID string) (string, error) {
	adapter, err := p.registry.Resolve(providerID)
	if err != nil {
		return "", err
	}
	return adapter.Name(), nil
}

// Decode maps raw callback fields onto a CallbackEvent using the provider's
// field names, falling back to the generic orderId/transactionId/status names.
func (p *CallbackProcessor) Decode(providerID string, values map[string]string) (CallbackEvent, error) {
	adapter, err := p.registry.Resolve(providerID)
	if err != nil {
		return CallbackEvent{}, err
	}
	return DecodeCallback(adapter, values), nil
}

// Process verifies the event where the provider signs its callbacks and
// normalizes it into a RecordingRequest.
//
// Providers without a callback signature produce unverified requests, and a
// completed status from them is held at pending until confirmed out of band.
func (p *CallbackProcessor) Process(event CallbackEvent, providerID string) (RecordingRequest, error) {
	adapter, err := p.registry.Resolve(providerID)
	if err != nil {
		return RecordingRequest{}, err
	}

	if strings.TrimSpace(event.OrderID) == "" {
		return RecordingRequest{}, &ValidationError{Fields: []FieldError{{Field: "orderId", Reason: "is required"}}}
	}

	verified := false
	if auth, ok := adapter.(CallbackAuthenticator); ok {
		if !auth.VerifyCallback(event) {
			return RecordingRequest{}, &CallbackAuthenticationError{Provider: adapter.Name(), OrderID: event.OrderID}
		}
		verified = true
	}

	var status RecordedStatus
	if n, ok := adapter.(StatusNormalizer); ok {
		status = n.NormalizeStatus(event.Status)
	} else {
		status = NormalizeStatus(event.Status)
	}

	if !verified && status == StatusCompleted {
		status = StatusPending
	}

	return RecordingRequest{
		Provider:      adapter.Name(),
		OrderID:       event.OrderID,
		TransactionID: event.TransactionID,
		Status:        status,
		Verified:      verified,
	}, nil
}

// DecodeCallback uses the adapter's decoder when it has one.
func DecodeCallback(adapter Adapter, values map[string]string) CallbackEvent {
	if d, ok := adapter.(CallbackDecoder); ok {
		return d.DecodeCallback(values)
	}
	return CallbackEvent{
		OrderID:       FirstOf(values, "orderId", "order_id"),
		TransactionID: FirstOf(values, "transactionId", "transaction_id"),
		Status:        FirstOf(values, "status"),
		Signature:     FirstOf(values, "signature", "hash"),
	}
}

// NormalizeStatus is the shared status vocabulary.
func NormalizeStatus(status string) RecordedStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "successful", "approved", "completed", "paid", "1", "00":
		return StatusCompleted
	case "failure", "failed", "fail", "declined", "error", "cancelled", "canceled", "0":
		return StatusFailed
	default:
		return StatusPending
	}
}

// FirstOf returns the first non-empty value among keys.
func FirstOf(values map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(values[k]); v != "" {
			return v
		}
	}
	return ""
}
