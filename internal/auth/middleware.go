package auth

import (
	"net/http"
	"strings"

	"github.com/warepulse/warepulse/internal/platform/httpx"
	"github.com/warepulse/warepulse/internal/shared"
)

// Verifier recovers a caller identity from a bearer token.
type Verifier interface {
	VerifyToken(token string) (*shared.Identity, error)
}

// Authenticator extracts and verifies the Authorization bearer token, storing
// the caller identity in the request context.
func Authenticator(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			identity, err := verifier.VerifyToken(token)
			if err != nil {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole gates a route to the listed roles.
func RequireRole(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}
