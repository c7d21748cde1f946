package chi

import (
	"context"
	"net/http"
	"strings"
)

type ownerKey struct{}

// exemptPaths are routes that bypass authentication and rate limiting.
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// ownerFromContext returns the authenticated owner id ("" if unset).
func ownerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

func contextWithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// BearerAuthMiddleware validates Bearer tokens and resolves them to an
// owner id. When disabled, the X-Owner-ID header is trusted instead;
// that mode is for local development only.
func BearerAuthMiddleware(enabled bool, apiKeys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if !enabled {
				owner := r.Header.Get("X-Owner-ID")
				if owner == "" {
					owner = "default"
				}
				next.ServeHTTP(w, r.WithContext(contextWithOwner(r.Context(), owner)))
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, codeBadRequest, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					codeBadRequest, "authorization header must use Bearer scheme")
				return
			}

			owner, ok := apiKeys[auth[len(bearerPrefix):]]
			if !ok {
				writeError(w, http.StatusUnauthorized, codeBadRequest, "invalid api key")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithOwner(r.Context(), owner)))
		})
	}
}
