package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mstgnz/posgate/handler"
	"github.com/mstgnz/posgate/infra/ledger"
	"github.com/mstgnz/posgate/provider"
	_ "github.com/mstgnz/posgate/provider/kuveytturk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-api-key"

const kuveytIntent = `{
	"amount": 10000,
	"currency": "TRY",
	"orderId": "ORD-1",
	"returnUrl": "https://shop.example/return",
	"card": {
		"holderName": "Ada Lovelace",
		"number": "4111111111111111",
		"expireMonth": "12",
		"expireYear": "30",
		"cvv": "123"
	}
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	registry, err := provider.BuildRegistry(map[string]provider.Credentials{
		"kuveytturk": {
			"merchantId": "496",
			"customerId": "400235",
			"username":   "apitest",
			"password":   "api123",
		},
	})
	require.NoError(t, err)

	recorder, err := ledger.NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = recorder.Close() })

	gateway := provider.NewGateway(registry, provider.NewHTTPTransport(provider.HTTPClientConfig{}))
	r := New(Handlers{
		Health:   handler.NewHealthHandler(registry, recorder, "test"),
		Payment:  handler.NewPaymentHandler(gateway, handler.PaymentHandlerOptions{}),
		Callback: handler.NewCallbackHandler(provider.NewCallbackProcessor(registry), recorder, nil),
		Records:  handler.NewRecordsHandler(recorder, nil),
	}, Options{APIKey: testAPIKey})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, target, contentType, body string, auth bool) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, target, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/health", "", "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "kuveytturk")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

	resp, body = do(t, http.MethodGet, srv.URL+"/metrics", "", "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "posgate_http_requests_total")

	resp, _ = do(t, http.MethodGet, srv.URL+"/nowhere", "", "", false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_PaymentsRequireAPIKey(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, http.MethodPost, srv.URL+"/v1/payments/kuveytturk", "application/json", kuveytIntent, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/v1/records/ORD-1", "", "", false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_PaymentRendersBankForm(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/v1/payments/kuveytturk", "application/json", kuveytIntent, true)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "form-action https:")
	assert.Contains(t, body, `id="paymentForm"`)
	assert.NotContains(t, body, "api123")

	resp, _ = do(t, http.MethodPost, srv.URL+"/v1/payments/kuveytturk", "text/plain", kuveytIntent, true)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/v1/payments/unknown", "application/json", kuveytIntent, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_CallbackThenRecords(t *testing.T) {
	srv := newTestServer(t)

	form := url.Values{"MerchantOrderId": {"ORD-1"}, "OrderId": {"88001"}, "ResponseCode": {"05"}}
	for _, path := range []string{"/callback/kuveytturk", "/v1/callback/kuveytturk"} {
		resp, body := do(t, http.MethodPost, srv.URL+path, "application/x-www-form-urlencoded", form.Encode(), false)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
	}

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/records/ORD-1", "", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"status":"failed"`)
	assert.Equal(t, 1, strings.Count(body, `"transactionId":"88001"`))
}
