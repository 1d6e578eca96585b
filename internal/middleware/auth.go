package middleware

import (
	"net/http"
	"strings"

	"github.com/shelfwise/library-be/internal/auth"
	"github.com/shelfwise/library-be/internal/http/respond"
)

// Authenticate validates the bearer token and attaches the caller's identity
// to the request context. Requests without a valid token are rejected with
// 401 before any role check runs.
func Authenticate(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respond.Error(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			identity, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole permits the request only when the authenticated caller's role
// is in the allow-list.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFrom(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respond.Error(w, http.StatusForbidden, "insufficient role")
		})
	}
}
