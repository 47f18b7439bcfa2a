package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielags/usuario-api/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	// TokenContextKey holds the raw bearer token for the request
	TokenContextKey ContextKey = "bearer_token"
)

// Middleware extracts bearer tokens for protected routes. It only strips the
// transport-level "Bearer " prefix; verification and identity resolution stay
// in the service layer, which is the single choke point for all mutations.
type Middleware struct{}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

// RequireToken rejects requests without a well-formed Authorization header
// and stores the raw token in the request context.
func (m *Middleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), TokenContextKey, parts[1])
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromContext extracts the raw bearer token from the request context
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenContextKey).(string)
	return token, ok
}
