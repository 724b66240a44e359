package provider

import (
	"fmt"
	"strings"
)

// ConfigurationError reports missing or invalid provider credentials.
// It is fatal at startup and never recovered per call.
type ConfigurationError struct {
	Provider string
	Field    string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Provider != "" && e.Field != "":
		return fmt.Sprintf("%s: configuration field '%s' %s", e.Provider, e.Field, e.Reason)
	case e.Provider != "":
		return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
	default:
		return "configuration error: " + e.Reason
	}
}

// FieldError describes a single invalid intent field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every missing or invalid intent field. No remote
// call is made when it is returned.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return "invalid payment intent: " + strings.Join(parts, ", ")
}

// Has reports whether field is among the invalid fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// UnknownProviderError is returned when a provider id has no registered adapter.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("payment provider '%s' is not registered", e.Provider)
}

// TransportError covers network failures, timeouts and non-2xx responses.
// The gateway absorbs it into a Failure outcome.
type TransportError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("request to %s timed out: %v", e.URL, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("HTTP error %d from %s", e.StatusCode, e.URL)
	default:
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError is returned by adapters when a provider response
// lacks an expected field or cannot be decoded.
type MalformedResponseError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed response: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: malformed response: %s", e.Provider, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// CallbackAuthenticationError is returned when an inbound notification's
// signature does not match. The caller must reject the notification.
type CallbackAuthenticationError struct {
	Provider string
	OrderID  string
}

func (e *CallbackAuthenticationError) Error() string {
	return fmt.Sprintf("%s: callback signature mismatch for order '%s'", e.Provider, e.OrderID)
}
