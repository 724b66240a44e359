package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/posgate/handler"
)

// Handlers are the authenticated v1 endpoints
type Handlers struct {
	Payment *handler.PaymentHandler
	Records *handler.RecordsHandler
}

// Routes registers all authenticated API routes
func Routes(r chi.Router, h Handlers) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/{provider}", h.Payment.ProcessPayment)
	})

	r.Route("/records", func(r chi.Router) {
		r.Get("/{orderId}", h.Records.GetRecords)
	})
}
