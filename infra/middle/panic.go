package middle

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/mstgnz/posgate/infra/logger"
	"github.com/mstgnz/posgate/infra/response"
)

var errInternal = errors.New("an unexpected error occurred")

// PanicRecoveryMiddleware turns a panicking handler into a 500 response.
// The panic value and stack are logged, never returned to the client.
func PanicRecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("Panic recovered", panicError(rec), logger.LogContext{
					RequestID: requestIDFor(r),
					Fields: map[string]any{
						"method": r.Method,
						"path":   r.URL.Path,
						"stack":  string(debug.Stack()),
					},
				})

				h := w.Header()
				h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
				h.Set("Pragma", "no-cache")
				h.Set("Expires", "0")
				response.Error(w, http.StatusInternalServerError, "Internal server error", errInternal)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("%v", v)
}

func requestIDFor(r *http.Request) string {
	if id := GetRequestID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return "unknown"
}
