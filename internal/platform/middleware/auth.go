package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"caseflow/pkg/domain"
	"caseflow/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the actor it asserts.
// The concrete implementation lives in internal/identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (domain.Actor, error)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// asserted actor into the context. Authority checks (which roles may perform
// which transition) stay in the service layer; this middleware only
// authenticates.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}
			actor, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized: invalid token",
					"error", err.Error(),
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w)
				return
			}
			ctx := requestcontext.WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
