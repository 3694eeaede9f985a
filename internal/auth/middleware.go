package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is an unexported type so no other package can read or shadow
// the identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

var errMissingBearer = errors.New("auth: missing bearer token")

// Verifier checks a raw bearer token. *TokenService implements it.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the "Authorization: Bearer" header, verifies it, and
// stores the caller's Identity in the request context. A missing or invalid
// token ends the request with 401 Unauthorized.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer`)
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated caller from the request
// context. It returns false on routes that did not pass through RequireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.Subject != ""
}

// extractIdentity reads the bearer token and verifies it.
func extractIdentity(r *http.Request, tokens Verifier) (Identity, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return Identity{}, errMissingBearer
	}
	return tokens.Verify(strings.TrimSpace(token))
}
