package provider

import (
	"context"
	"errors"
	"time"

	"github.com/mstgnz/posgate/infra/logger"
	"github.com/mstgnz/posgate/infra/metrics"
)

// Gateway orchestrates a payment initiation: resolve the adapter, validate
// the intent, build the call, send it and normalize the response.
type Gateway struct {
	registry  *Registry
	transport Transport
}

// NewGateway creates a gateway over a configured registry
func NewGateway(registry *Registry, transport Transport) *Gateway {
	return &Gateway{
		registry:  registry,
		transport: transport,
	}
}

// Registry returns the registry the gateway resolves against
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Initiate starts a payment with the given provider.
//
// Caller errors (unknown provider, invalid intent, bad credentials) are
// returned as errors and no remote call is made. Anything that goes wrong
// past that point comes back as a Failure outcome with a nil error.
func (g *Gateway) Initiate(ctx context.Context, intent PaymentIntent, providerID string) (Outcome, error) {
	start := time.Now()

	adapter, err := g.registry.Resolve(providerID)
	if err != nil {
		return Outcome{}, err
	}

	if err := ValidateIntent(intent); err != nil {
		return Outcome{}, err
	}

	call, err := adapter.BuildRequest(intent)
	if err != nil {
		return Outcome{}, err
	}

	outcome := g.dispatch(ctx, adapter, intent, call)
	metrics.ObserveInitiation(adapter.Name(), string(outcome.Kind), failureKind(outcome), time.Since(start))

	return outcome, nil
}

func (g *Gateway) dispatch(ctx context.Context, adapter Adapter, intent PaymentIntent, call CallDescriptor) Outcome {
	logCtx := logger.LogContext{
		Provider: adapter.Name(),
		Fields: map[string]any{
			"order_id": intent.OrderID,
			"delivery": string(call.Delivery()),
		},
	}

	if call.Delivery() == DeliveryBrowser {
		logger.Debug("Rendered browser redirect form", logCtx)
		return RedirectOutcome(Redirect{
			HTML: string(call.Body()),
			ID:   intent.OrderID,
		})
	}

	raw, err := g.transport.Do(ctx, call)
	if err != nil {
		logCtx.Fields["error"] = err.Error()
		var te *TransportError
		if errors.As(err, &te) {
			logCtx.Fields["status_code"] = te.StatusCode
			logCtx.Fields["timeout"] = te.Timeout
		}
		logger.Warn("Payment provider unreachable", logCtx)
		return FailureOutcome(ErrorProviderUnreachable, "", "payment provider is unreachable")
	}

	outcome, err := adapter.ParseResponse(intent, raw)
	if err != nil {
		logCtx.Fields["error"] = err.Error()
		logCtx.Fields["status_code"] = raw.StatusCode
		logger.Warn("Malformed payment provider response", logCtx)
		return FailureOutcome(ErrorMalformedResponse, "", "unexpected response from payment provider")
	}

	logCtx.Fields["outcome"] = string(outcome.Kind)
	logger.Info("Payment initiated", logCtx)
	return outcome
}

func failureKind(o Outcome) string {
	if o.Failure == nil {
		return ""
	}
	return string(o.Failure.Kind)
}
