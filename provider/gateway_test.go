package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_Initiate_Success(t *testing.T) {
	adapter := &fakeAdapter{
		name:    "sipay",
		call:    serverCall(),
		outcome: SuccessOutcome(Success{TransactionID: "TX-1", ProviderReference: "ORD-1"}),
	}
	transport := &fakeTransport{raw: RawResponse{StatusCode: 200, Body: []byte(`{}`)}}
	gateway := NewGateway(registryWith(t, adapter), transport)

	outcome, err := gateway.Initiate(context.Background(), validIntent(), "sipay")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "TX-1", outcome.Success.TransactionID)
	assert.EqualValues(t, 1, transport.calls.Load())
}

func TestGateway_Initiate_CallerErrors(t *testing.T) {
	adapter := &fakeAdapter{name: "sipay", call: serverCall()}

	invalid := validIntent()
	invalid.Amount = 0
	invalid.Currency = ""

	tests := []struct {
		name     string
		intent   PaymentIntent
		provider string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "unknown provider",
			intent:   validIntent(),
			provider: "paypal",
			check: func(t *testing.T, err error) {
				var unknown *UnknownProviderError
				assert.ErrorAs(t, err, &unknown)
			},
		},
		{
			name:     "invalid intent",
			intent:   invalid,
			provider: "sipay",
			check: func(t *testing.T, err error) {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.True(t, verr.Has("amount"))
				assert.True(t, verr.Has("currency"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &fakeTransport{}
			gateway := NewGateway(registryWith(t, adapter), transport)

			_, err := gateway.Initiate(context.Background(), tt.intent, tt.provider)
			tt.check(t, err)
			assert.Zero(t, transport.calls.Load())
		})
	}
}

func TestGateway_Initiate_BuildError(t *testing.T) {
	buildErr := &ConfigurationError{Provider: "sipay", Reason: "signature secret is empty"}
	transport := &fakeTransport{}
	gateway := NewGateway(registryWith(t, &fakeAdapter{name: "sipay", buildErr: buildErr}), transport)

	_, err := gateway.Initiate(context.Background(), validIntent(), "sipay")
	assert.ErrorIs(t, err, buildErr)
	assert.Zero(t, transport.calls.Load())
}

func TestGateway_Initiate_TransportFailure(t *testing.T) {
	transport := &fakeTransport{err: &TransportError{URL: "https://psp.example.com/pay", Err: errors.New("connection refused")}}
	gateway := NewGateway(registryWith(t, &fakeAdapter{name: "sipay", call: serverCall()}), transport)

	outcome, err := gateway.Initiate(context.Background(), validIntent(), "sipay")
	require.NoError(t, err)
	require.Equal(t, OutcomeFailure, outcome.Kind)
	assert.Equal(t, ErrorProviderUnreachable, outcome.Failure.Kind)
}

func TestGateway_Initiate_Timeout(t *testing.T) {
	transport := &fakeTransport{wait: true}
	gateway := NewGateway(registryWith(t, &fakeAdapter{name: "sipay", call: serverCall()}), transport)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	outcome, err := gateway.Initiate(ctx, validIntent(), "sipay")
	require.NoError(t, err)
	assert.Equal(t, ErrorProviderUnreachable, outcome.Failure.Kind)
}

func TestGateway_Initiate_TimeoutOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	call := NewServerCall(http.MethodPost, server.URL, nil, []byte(`{}`))
	gateway := NewGateway(registryWith(t, &fakeAdapter{name: "sipay", call: call}), NewHTTPTransport(HTTPClientConfig{Timeout: 5 * time.Second}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	outcome, err := gateway.Initiate(ctx, validIntent(), "sipay")
	require.NoError(t, err)
	assert.Equal(t, ErrorProviderUnreachable, outcome.Failure.Kind)
}

func TestGateway_Initiate_Malformed(t *testing.T) {
	adapter := &fakeAdapter{
		name:     "iyzico",
		call:     serverCall(),
		parseErr: &MalformedResponseError{Provider: "iyzico", Reason: "missing threeDSHtmlContent"},
	}
	gateway := NewGateway(registryWith(t, adapter), &fakeTransport{raw: RawResponse{StatusCode: 200, Body: []byte(`{"status":"success"}`)}})

	outcome, err := gateway.Initiate(context.Background(), validIntent(), "iyzico")
	require.NoError(t, err)
	require.Equal(t, OutcomeFailure, outcome.Kind)
	assert.Equal(t, ErrorMalformedResponse, outcome.Failure.Kind)
}

func TestGateway_Initiate_Declined(t *testing.T) {
	adapter := &fakeAdapter{
		name:    "iyzico",
		call:    serverCall(),
		outcome: FailureOutcome(ErrorDeclined, "10051", "insufficient funds"),
	}
	gateway := NewGateway(registryWith(t, adapter), &fakeTransport{raw: RawResponse{StatusCode: 200}})

	outcome, err := gateway.Initiate(context.Background(), validIntent(), "iyzico")
	require.NoError(t, err)
	assert.Equal(t, Failure{Kind: ErrorDeclined, Code: "10051", Message: "insufficient funds"}, *outcome.Failure)
}

func TestGateway_Initiate_BrowserDelivery(t *testing.T) {
	doc := []byte(`<form id="paymentForm"></form>`)
	adapter := &fakeAdapter{
		name:     "kuveytturk",
		call:     NewBrowserCall("https://bank.example.com/pay", []FormField{{Name: "OrderId", Value: "ORD-1"}}, doc),
		parseErr: errors.New("must not be called"),
	}
	transport := &fakeTransport{}
	gateway := NewGateway(registryWith(t, adapter), transport)

	outcome, err := gateway.Initiate(context.Background(), validIntent(), "kuveytturk")
	require.NoError(t, err)
	require.Equal(t, OutcomeRedirect, outcome.Kind)
	assert.Equal(t, string(doc), outcome.Redirect.HTML)
	assert.Equal(t, "ORD-1", outcome.Redirect.ID)
	assert.Zero(t, transport.calls.Load())
}

func TestCallDescriptor_Immutable(t *testing.T) {
	body := []byte(`{"a":1}`)
	headers := Headers{{Name: "X-Api-Key", Value: "k"}}
	call := NewServerCall(http.MethodPost, "https://psp.example.com", headers, body)

	body[0] = 'x'
	headers[0].Value = "changed"
	call.Headers()[0].Value = "changed again"

	assert.Equal(t, `{"a":1}`, string(call.Body()))
	assert.Equal(t, "k", call.Headers().Get("x-api-key"))
	assert.Equal(t, DeliveryServer, call.Delivery())
}
