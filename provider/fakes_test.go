package provider

import (
	"context"
	"sync/atomic"
)

type fakeAdapter struct {
	name     string
	call     CallDescriptor
	buildErr error
	outcome  Outcome
	parseErr error
}

func (a *fakeAdapter) Name() string                  { return a.name }
func (a *fakeAdapter) RequiredConfig() []ConfigField { return nil }

func (a *fakeAdapter) BuildRequest(PaymentIntent) (CallDescriptor, error) {
	return a.call, a.buildErr
}

func (a *fakeAdapter) ParseResponse(PaymentIntent, RawResponse) (Outcome, error) {
	return a.outcome, a.parseErr
}

// signedAdapter accepts callbacks whose signature equals secret.
type signedAdapter struct {
	fakeAdapter
	secret string
}

func (a *signedAdapter) VerifyCallback(event CallbackEvent) bool {
	return event.Signature == a.secret
}

type fakeTransport struct {
	calls atomic.Int32
	raw   RawResponse
	err   error
	wait  bool
}

func (t *fakeTransport) Do(ctx context.Context, call CallDescriptor) (RawResponse, error) {
	t.calls.Add(1)
	if t.wait {
		<-ctx.Done()
		return RawResponse{}, &TransportError{URL: call.URL(), Timeout: true, Err: ctx.Err()}
	}
	return t.raw, t.err
}

func validIntent() PaymentIntent {
	return PaymentIntent{
		Amount:    10000,
		Currency:  "TRY",
		OrderID:   "ORD-1",
		ReturnURL: "https://shop.example.com/return",
		Card: &Card{
			HolderName:  "John Doe",
			Number:      "4111111111111111",
			ExpireMonth: "12",
			ExpireYear:  "2030",
			CVV:         "123",
		},
	}
}

func serverCall() CallDescriptor {
	return NewServerCall("POST", "https://psp.example.com/pay", Headers{{Name: "Content-Type", Value: "application/json"}}, []byte(`{}`))
}

func registryWith(t interface{ Fatalf(string, ...any) }, adapters ...Adapter) *Registry {
	r := NewRegistry()
	for _, a := range adapters {
		if err := r.Register(a.Name(), a); err != nil {
			t.Fatalf("register %s: %v", a.Name(), err)
		}
	}
	return r
}
