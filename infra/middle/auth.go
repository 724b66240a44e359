package middle

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/mstgnz/posgate/infra/response"
)

var (
	errMissingCredentials = errors.New("authorization header required")
	errBadScheme          = errors.New("invalid authorization format. Use: Bearer <api_key>")
	errEmptyKey           = errors.New("API key required")
)

// AuthMiddleware guards the merchant-facing API with a static Bearer key.
// Provider callbacks are mounted outside of it.
func AuthMiddleware(expectedAPIKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expectedAPIKey == "" {
				response.Error(w, http.StatusInternalServerError, "API key not configured", nil)
				return
			}

			key, err := bearerKey(r.Header.Get("Authorization"))
			if err != nil {
				response.Error(w, http.StatusUnauthorized, err.Error(), nil)
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(expectedAPIKey)) != 1 {
				response.Error(w, http.StatusUnauthorized, "Invalid API key", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerKey(header string) (string, error) {
	if header == "" {
		return "", errMissingCredentials
	}
	scheme, key, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errBadScheme
	}
	if key = strings.TrimSpace(key); key == "" {
		return "", errEmptyKey
	}
	return key, nil
}
