package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/posgate/infra/ledger"
	"github.com/mstgnz/posgate/infra/opensearch"
	"github.com/mstgnz/posgate/infra/response"
	"github.com/mstgnz/posgate/provider"
	"github.com/stretchr/testify/require"
)

type fakeInitiator struct {
	outcome    provider.Outcome
	err        error
	calls      int
	intent     provider.PaymentIntent
	providerID string
}

func (f *fakeInitiator) Initiate(_ context.Context, intent provider.PaymentIntent, providerID string) (provider.Outcome, error) {
	f.calls++
	f.intent = intent
	f.providerID = providerID
	return f.outcome, f.err
}

type fakeLocker struct {
	err  error
	keys []string
}

func (l *fakeLocker) WithLock(ctx context.Context, key string, _ time.Duration, fn func(context.Context) error) error {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return l.err
	}
	return fn(ctx)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []opensearch.PaymentEvent
	err    error
	limit  int
}

func (f *fakeEvents) LogPaymentEvent(_ context.Context, event opensearch.PaymentEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeEvents) PaymentEvents(_ context.Context, providerID, orderID string, limit int) ([]opensearch.PaymentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	var out []opensearch.PaymentEvent
	for _, e := range f.events {
		if e.Provider == providerID && e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRecorder struct {
	written bool
	err     error
	got     []provider.RecordingRequest
	entries []ledger.Entry
	pingErr error
}

func (f *fakeRecorder) Record(_ context.Context, req provider.RecordingRequest) (bool, error) {
	f.got = append(f.got, req)
	return f.written, f.err
}

func (f *fakeRecorder) ByOrder(_ context.Context, orderID string) ([]ledger.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []ledger.Entry
	for _, e := range f.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRecorder) Driver() string             { return "fake" }
func (f *fakeRecorder) Ping(context.Context) error { return f.pingErr }

// withURLParams attaches chi route parameters to r.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}
