package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mstgnz/posgate/handler"
	"github.com/mstgnz/posgate/infra/metrics"
	"github.com/mstgnz/posgate/infra/middle"
	"github.com/mstgnz/posgate/infra/response"
	v1 "github.com/mstgnz/posgate/router/v1"
)

// Handlers groups every handler the router mounts
type Handlers struct {
	Health   *handler.HealthHandler
	Payment  *handler.PaymentHandler
	Callback *handler.CallbackHandler
	Records  *handler.RecordsHandler
}

// Options configures the middleware stack
type Options struct {
	APIKey         string
	RateLimiter    *middle.RateLimiter
	AllowedOrigins []string
}

// New builds the service router.
//
// Health, metrics and provider callbacks are public; everything else under
// /v1 requires the API key.
func New(h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middle.RequestLoggingMiddleware())
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(metrics.Middleware)
	r.Use(middle.SecurityHeadersMiddleware())
	if opts.RateLimiter != nil {
		r.Use(middle.RateLimitMiddleware(opts.RateLimiter))
	}
	r.Use(middle.RequestValidationMiddleware())

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health.CheckHealth)
	r.Handle("/metrics", metrics.Handler())

	// banks post the buyer's browser back here, so no API key
	r.HandleFunc("/callback/{provider}", h.Callback.HandleCallback)

	r.Route("/v1", func(r chi.Router) {
		r.HandleFunc("/callback/{provider}", h.Callback.HandleCallback)

		r.Group(func(r chi.Router) {
			r.Use(middle.AuthMiddleware(opts.APIKey))
			v1.Routes(r, v1.Handlers{
				Payment: h.Payment,
				Records: h.Records,
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
	})

	return r
}
