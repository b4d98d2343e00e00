// Package auth authenticates race organizer API calls with bearer JWTs.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dossard/pkg/requestcontext"
)

const issuer = "dossard"

// TokenService issues and validates organizer tokens (HS256).
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service. ttl bounds issued token
// lifetimes.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue mints a token for an organizer identifier.
func (s *TokenService) Issue(organizer string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   organizer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign organizer token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, returning the organizer identifier.
func (s *TokenService) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("parse organizer token: %w", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("organizer token missing subject")
	}
	return claims.Subject, nil
}

// RequireOrganizer authenticates requests via a Bearer token and stores the
// organizer identifier in the context.
func RequireOrganizer(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				unauthorized(w, "bearer token required")
				return
			}

			organizer, err := tokens.Validate(raw)
			if err != nil {
				logger.WarnContext(ctx, "organizer token rejected",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithOrganizer(ctx, organizer)))
		})
	}
}

func unauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = fmt.Fprintf(w, `{"error":"unauthorized","error_description":"%s"}`, desc)
}
