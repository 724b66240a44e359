// Package provider is the provider-agnostic core of posgate.
//
// # Core Concepts
//
//   - PaymentIntent: what the caller wants to charge, in minor units
//   - Adapter: shapes and signs an intent for one provider and parses the
//     reply; optional CallbackDecoder, CallbackAuthenticator and
//     StatusNormalizer extend it for notifications
//   - CallDescriptor: a server call (method, URL, ordered headers, body) or
//     a browser call (ordered form fields plus a rendered document)
//   - Registry: adapters keyed by case-insensitive provider id
//   - Gateway: resolve, validate, build, send, parse
//   - CallbackProcessor: decode, verify and normalize notifications into a
//     RecordingRequest
//
// # Outcomes and Errors
//
// Gateway.Initiate returns an error only for caller mistakes: an unknown
// provider (*UnknownProviderError), an invalid intent (*ValidationError) or
// broken credentials (*ConfigurationError). Nothing is sent in those cases.
// Once a request has left, every problem is folded into a Failure outcome:
//
//	provider_unreachable          transport error, timeout or non-2xx
//	malformed_provider_response   the reply could not be read
//	provider_declined             the provider said no
//
// # Signatures
//
// Sign and Verify build every provider hash from a SignatureScheme:
//
//	scheme := provider.SignatureScheme{
//	    Algorithm: provider.SHA256,
//	    Encoding:  provider.Hex,
//	    Placement: provider.SecretPrefix,
//	}
//	hash, err := provider.Sign(scheme, []string{"10000", "TRY", "ORD-1", "M1"}, merchantKey)
//
// Verify compares in constant time and accepts either hex case.
//
// # Adding a Provider
//
// Implement Adapter in its own package and register a factory from init:
//
//	func init() {
//	    provider.RegisterFactory("mybank", NewProvider)
//	}
//
// Importing the package for side effects makes it available to
// BuildRegistry:
//
//	import _ "github.com/mstgnz/posgate/provider/sipay" // Auto-registers sipay
//
// # Callbacks
//
// Providers without a callback signature yield unverified records, and a
// completed status from them is recorded as pending until it is confirmed
// out of band.
package provider
