package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Transport performs a server-delivered provider call. Implementations own
// cancellation and timeouts and report every failure as a *TransportError.
type Transport interface {
	Do(ctx context.Context, call CallDescriptor) (RawResponse, error)
}

// HTTPClientConfig represents configuration for HTTP client
type HTTPClientConfig struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	MaxResponseBytes   int64
}

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	config HTTPClientConfig
	client *http.Client
}

// NewHTTPTransport creates a new provider HTTP transport
func NewHTTPTransport(config HTTPClientConfig) *HTTPTransport {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxResponseBytes == 0 {
		config.MaxResponseBytes = 4 << 20
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		},
	}

	return &HTTPTransport{
		config: config,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// NewHTTPTransportWithClient wraps an existing client, mostly for tests.
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	return &HTTPTransport{
		config: HTTPClientConfig{Timeout: client.Timeout, MaxResponseBytes: 4 << 20},
		client: client,
	}
}

// Do sends the call and returns the raw response. Non-2xx statuses, network
// failures and timeouts come back as *TransportError.
func (t *HTTPTransport) Do(ctx context.Context, call CallDescriptor) (RawResponse, error) {
	if call.Delivery() != DeliveryServer {
		return RawResponse{}, fmt.Errorf("call to %s must be delivered by the browser", call.URL())
	}

	httpReq, err := http.NewRequestWithContext(ctx, call.Method(), call.URL(), bytes.NewReader(call.Body()))
	if err != nil {
		return RawResponse{}, &TransportError{URL: call.URL(), Err: fmt.Errorf("failed to create HTTP request: %w", err)}
	}

	// assign directly so header names keep the provider's casing
	for _, h := range call.Headers() {
		httpReq.Header[h.Name] = append(httpReq.Header[h.Name], h.Value)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return RawResponse{}, &TransportError{URL: call.URL(), Timeout: isTimeout(ctx, err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.config.MaxResponseBytes))
	if err != nil {
		return RawResponse{}, &TransportError{URL: call.URL(), Timeout: isTimeout(ctx, err), Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	raw := RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &TransportError{URL: call.URL(), StatusCode: resp.StatusCode}
	}

	return raw, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
