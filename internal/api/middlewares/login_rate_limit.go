package middlewares

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginRateLimit caps register and login attempts per client IP in a fixed
// window (LOGIN_MAX_ATTEMPTS, default 10, per LOGIN_WINDOW, default 5m).
// With no Redis or no resolvable IP it lets the request through.
func LoginRateLimit(rdb *redis.Client, next http.Handler) http.Handler {
	limit := int64(envInt("LOGIN_MAX_ATTEMPTS", 10))
	window := envDur("LOGIN_WINDOW", 5*time.Minute)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ip == "" || rdb == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := "rl:login:" + ip

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		ttl := pipe.PTTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if incr.Val() > limit {
			retry := ttl.Val()
			if retry <= 0 {
				retry = window
			}
			tooMany(w, r, retry, "too many login attempts; try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
