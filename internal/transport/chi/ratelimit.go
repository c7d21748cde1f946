package chi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rolodex-hq/rolodex/internal/domain"
)

// counterStore is the slice of the key-value store the limiter needs.
type counterStore interface {
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// RateLimitMiddleware enforces a fixed-window request limit per owner.
// The window is a shared counter in storage, so the limit holds across
// replicas. Counting errors fail open: a storage hiccup must not take
// the API down with it.
func RateLimitMiddleware(
	store counterStore, requests int, window time.Duration, logger *zap.Logger,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			owner := ownerFromContext(r.Context())
			key := fmt.Sprintf("%srl:%s", domain.KeyPrefix, owner)

			count, err := store.IncrBy(r.Context(), key, 1)
			if err != nil {
				logger.Warn("rate limit counter unavailable, allowing request", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				// First hit opens the window.
				if err := store.Expire(r.Context(), key, window, true); err != nil {
					logger.Warn("rate limit window expiry failed", zap.Error(err))
				}
			}

			if count > int64(requests) {
				writeError(w, http.StatusTooManyRequests, codeRateLimited, domain.ErrRateLimited.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
