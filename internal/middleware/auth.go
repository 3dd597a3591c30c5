package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/provider"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/session"
)

type contextKey string

const identityKey contextKey = "identity"

// SessionValidator validates a self-issued bearer token.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (model.Identity, error)
}

// AuthMiddleware authenticates the request's bearer token. Opaque
// self-issued tokens are checked first; a token that is not a known
// session is then tried as a provider-minted JWT. The resolved
// identity is attached to the request context.
func AuthMiddleware(sessions SessionValidator, bearer *provider.BearerVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			identity, err := sessions.Validate(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, session.ErrExpired), errors.Is(err, session.ErrNotFound):
				// Not a self-issued session; maybe a provider bearer.
				account, jwtErr := bearer.Verify(token)
				if jwtErr != nil {
					respondWithError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				identity = model.Identity{Role: account.Role, Primary: &account}
			default:
				respondWithError(w, http.StatusServiceUnavailable, "authentication temporarily unavailable")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetIdentity returns the identity attached by AuthMiddleware.
func GetIdentity(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{"error": message}
	_ = json.NewEncoder(w).Encode(response)
}

var _ SessionValidator = (*session.Issuer)(nil)
