package provider

import (
	"fmt"
	"sort"
	"strings"
)

// Adapter translates between the generic intent/outcome model and one
// provider's wire format. Implementations own their credentials and must be
// safe for concurrent use.
type Adapter interface {
	// Name returns the provider id the adapter is registered under
	Name() string

	// RequiredConfig returns the credential fields the adapter needs
	RequiredConfig() []ConfigField

	// BuildRequest shapes and signs the intent into a call descriptor
	BuildRequest(intent PaymentIntent) (CallDescriptor, error)

	// ParseResponse normalizes a raw provider response into an outcome
	ParseResponse(intent PaymentIntent, raw RawResponse) (Outcome, error)
}

// CallbackDecoder maps raw callback fields onto a CallbackEvent using the
// provider's own field names.
type CallbackDecoder interface {
	DecodeCallback(values map[string]string) CallbackEvent
}

// CallbackAuthenticator is implemented by adapters whose callback contract
// carries a signature.
type CallbackAuthenticator interface {
	VerifyCallback(event CallbackEvent) bool
}

// StatusNormalizer maps a provider status into the recorded vocabulary.
type StatusNormalizer interface {
	NormalizeStatus(status string) RecordedStatus
}

// ConfigField represents a required configuration field for a payment provider
type ConfigField struct {
	Key         string `json:"key"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // "string", "number", "url"
	Description string `json:"description"`
	Example     string `json:"example"`
	Pattern     string `json:"pattern,omitempty"`
	MinLength   int    `json:"minLength,omitempty"`
	MaxLength   int    `json:"maxLength,omitempty"`
}

// Credentials is an opaque provider secret bundle. It is read-only for the
// process lifetime and formats redacted so it never reaches a log line.
type Credentials map[string]string

// Get returns the value stored under key.
func (c Credentials) Get(key string) string {
	return c[key]
}

// GetOr returns the value stored under key or def when it is empty.
func (c Credentials) GetOr(key, def string) string {
	if v := strings.TrimSpace(c[key]); v != "" {
		return v
	}
	return def
}

// Clone returns an independent copy.
func (c Credentials) Clone() Credentials {
	out := make(Credentials, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Keys returns the configured keys in sorted order.
func (c Credentials) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c Credentials) String() string {
	parts := make([]string, 0, len(c))
	for _, k := range c.Keys() {
		parts = append(parts, k+":[REDACTED]")
	}
	return fmt.Sprintf("Credentials{%s}", strings.Join(parts, " "))
}

func (c Credentials) GoString() string {
	return c.String()
}
