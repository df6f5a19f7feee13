package middleware

import (
	"crypto/subtle"
	"net/http"

	"bjugstad/fleetsync/internal/config"
	"bjugstad/fleetsync/internal/constants"
)

// AdminAuthMiddleware guards the admin endpoints with the shared operator
// key. The key resolves through the config resolver so it can live in the
// environment or the secret store.
func AdminAuthMiddleware(cfg *config.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				http.Error(w, "Unauthorized. Missing API Key", http.StatusUnauthorized)
				return
			}

			expected, err := cfg.Require(r.Context(), constants.ConfigKeyAdminAPIKey)
			if err != nil {
				http.Error(w, "Admin access is not configured", http.StatusServiceUnavailable)
				return
			}

			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) != 1 {
				http.Error(w, "Unauthorized. Invalid API Key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
