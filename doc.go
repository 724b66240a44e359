// Package posgate is a payment gateway service that puts several virtual POS
// providers behind one API. Callers describe a payment once; posgate shapes,
// signs and sends it the way each provider expects, and turns the provider's
// asynchronous notifications into idempotent ledger records.
//
// # Architecture
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│   Your Apps     │◄──►│    posgate      │◄──►│   Payment       │
//	│                 │    │   (Gateway)     │    │   Providers     │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └────────┬────────┘    └─────────────────┘
//	                                │
//	                       ┌────────▼────────┐
//	                       │ ledger (SQLite/ │
//	                       │   PostgreSQL)   │
//	                       └─────────────────┘
//
// # Supported Providers
//
//   - iyzico: JSON 3-D Secure initialize, IYZWS header authentication
//   - Sipay: JSON payment with a merchant-key prefixed hash
//   - Kuveyt Türk: auto-submitting browser form posted to the bank
//
// # Quick Start
//
//	import (
//	    "github.com/mstgnz/posgate/provider"
//	    _ "github.com/mstgnz/posgate/provider/sipay" // Import to register provider
//	)
//
//	registry, err := provider.BuildRegistry(map[string]provider.Credentials{
//	    "sipay": {"merchantKey": "...", "merchantId": "..."},
//	})
//	gateway := provider.NewGateway(registry, provider.NewHTTPTransport(provider.HTTPClientConfig{}))
//	outcome, err := gateway.Initiate(ctx, intent, "sipay")
//
// # HTTP Service
//
// cmd/main.go wires the same pieces behind a chi router:
//
//	POST /v1/payments/{provider}   start a payment (API key)
//	GET  /v1/records/{orderId}     ledger entries for an order (API key)
//	POST /callback/{provider}      provider notifications (public)
//	GET  /health                   ledger and provider status
//	GET  /metrics                  Prometheus metrics
//
// # Configuration
//
// Everything is read from the environment (a .env file is loaded when
// present):
//
//	APP_PORT=9999
//	API_KEY=change-me
//	LEDGER_DRIVER=sqlite            # or postgres
//	SQLITE_DB_PATH=./data/posgate.db
//	POSTGRES_DSN=postgres://...
//	REDIS_ADDR=localhost:6379       # enables per-order locking
//	ENABLE_OPENSEARCH_LOGGING=true
//
//	IYZICO_API_KEY=...  IYZICO_SECRET_KEY=...
//	SIPAY_MERCHANT_KEY=...  SIPAY_MERCHANT_ID=...
//	KUVEYT_TURK_MERCHANT_ID=...  KUVEYT_TURK_CUSTOMER_ID=...
//	KUVEYT_TURK_USERNAME=...  KUVEYT_TURK_PASSWORD=...
//
// Credentials are only ever read. They are never logged, and request
// payloads are masked before they reach a log or OpenSearch.
package posgate
