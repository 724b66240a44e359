// Package handler provides the HTTP handlers of the posgate service.
//
//   - PaymentHandler starts a payment with a named provider. Browser-delivered
//     redirects are written as HTML; every other outcome is a JSON envelope.
//   - CallbackHandler accepts provider notifications as form, multipart or
//     JSON, verifies them and records them in the ledger.
//   - RecordsHandler returns the ledger entries of an order, optionally with
//     the payment events shipped to OpenSearch.
//   - HealthHandler reports ledger reachability and configured providers.
//
// Status codes:
//
//	200 redirect, success, recorded or duplicate callback
//	400 malformed body or invalid intent
//	401 callback signature mismatch
//	402 provider declined the payment
//	404 unknown provider or order
//	409 order already in progress, or callback conflicts with a final status
//	502 provider unreachable or returned an unreadable response
//	503 order lock backend unreachable
package handler
