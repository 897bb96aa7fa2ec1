package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ritzau/map-api/pkg/logging"
	"github.com/ritzau/map-api/pkg/metrics"
)

const (
	// HeaderAPIKey carries the credential on every protected request.
	HeaderAPIKey = "X-Api-Key"
	// legacyHeaderAPIKey is the header name older clients send.
	legacyHeaderAPIKey = "apiKey"
)

// ErrUnauthorized is returned when the API key is missing or wrong.
var ErrUnauthorized = errors.New("API key is missing or invalid")

// APIKeyAuth checks requests against a single configured key.
type APIKeyAuth struct {
	key []byte
}

// NewAPIKeyAuth creates an authenticator for key. An empty key rejects
// every request.
func NewAPIKeyAuth(key string) *APIKeyAuth {
	return &APIKeyAuth{key: []byte(key)}
}

// Check validates a presented key.
func (a *APIKeyAuth) Check(presented string) error {
	if len(a.key) == 0 || presented == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(presented), a.key) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Middleware rejects requests without a valid key with 401.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get(HeaderAPIKey)
		if presented == "" {
			presented = r.Header.Get(legacyHeaderAPIKey)
		}

		if err := a.Check(presented); err != nil {
			logging.WarnContext(r.Context(), "rejected request",
				"path", r.URL.Path,
				"keyPresent", presented != "",
			)
			metrics.AuthFailuresTotal.Inc()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error": err.Error(),
				"kind":  "Unauthorized",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
