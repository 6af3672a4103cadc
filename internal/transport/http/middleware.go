package http

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"accident-monitor/internal/auth"
	"accident-monitor/internal/domain"
)

type AuthMiddleware struct {
	auth *auth.Authenticator
}

func NewAuthMiddleware(a *auth.Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: a}
}

// Wrap rejects requests whose API key does not validate. Legacy hardware
// units send the key as an api_key query parameter instead of the header.
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}
		if apiKey == "" || !m.auth.Validate(r.Context(), apiKey) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false, "message": domain.ErrUnauthorized.Error(),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("request handled")
		})
	}
}
