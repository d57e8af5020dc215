package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/DevSheroz/glori82-admin/internal/common"
)

// NewStore wires a limiter store backed by Redis.
func NewStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "ratelimit",
	})
}

// PerMinute builds a per-minute rate.
func PerMinute(limit int) limiter.Rate {
	return limiter.Rate{Period: time.Minute, Limit: int64(limit)}
}

// Middleware limits requests per client IP against the given rate. The scope
// separates buckets so the strict login limit does not consume the global one.
// Limiter errors fail open; throttling must not take the API down with Redis.
func Middleware(store limiter.Store, rate limiter.Rate, scope string) func(http.Handler) http.Handler {
	lim := limiter.New(store, rate)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rate.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			key := scope + ":" + common.ClientIP(r)
			lctx, err := lim.Get(r.Context(), key)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			if lctx.Reached {
				common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
