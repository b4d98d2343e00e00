// Package admin guards the administrative endpoints (cache purge, audit
// lookup) behind a shared token.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"dossard/pkg/requestcontext"
	"dossard/pkg/secrets"
)

// RequireAdminToken authenticates requests via the X-Admin-Token header.
// When the configured value is a bcrypt hash the token is verified against
// it; a plain configured value falls back to constant-time comparison.
func RequireAdminToken(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	hashed := strings.HasPrefix(expected, "$2a$") || strings.HasPrefix(expected, "$2b$")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")

			var ok bool
			if hashed {
				ok = secrets.Verify(token, expected) == nil
			} else {
				ok = subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
			}

			ctx := r.Context()
			if !ok {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			// Capture the admin actor for audit attribution.
			if actor := r.Header.Get("X-Admin-Actor"); actor != "" {
				ctx = requestcontext.WithAdminActor(ctx, actor)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
