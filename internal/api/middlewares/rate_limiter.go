package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aashish4533/bloombook/internal/api/apperr"
)

// KeyFunc picks the Redis key a request is counted under.
type KeyFunc func(r *http.Request) string

// PerIPKey keys by client IP.
func PerIPKey(prefix string) KeyFunc {
	return func(r *http.Request) string {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		return prefix + ":ip:" + ip
	}
}

// PerUserKey keys by authenticated user and falls back to the client IP.
func PerUserKey(prefix string) KeyFunc {
	byIP := PerIPKey(prefix)
	return func(r *http.Request) string {
		if uid, ok := UserIDFrom(r.Context()); ok {
			return prefix + ":u:" + uid
		}
		return byIP(r)
	}
}

// clientIP trusts the first X-Forwarded-For hop, then X-Real-IP, then the
// socket. Header values that are not IPs are ignored.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// tooMany writes a retryable 429 with Retry-After rounded up to whole seconds.
func tooMany(w http.ResponseWriter, r *http.Request, retry time.Duration, detail string) {
	sec := int64((retry + time.Second - 1) / time.Second)
	if sec < 1 {
		sec = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(sec, 10))
	apperr.Write(w, r, apperr.Problem{
		Status:    http.StatusTooManyRequests,
		Title:     "Too Many Requests",
		Detail:    detail,
		Retryable: true,
	})
}

func setLimitHeaders(w http.ResponseWriter, policy string, limit int, remaining int64) {
	if remaining < 0 {
		remaining = 0
	}
	h := w.Header()
	h.Set("X-RateLimit-Policy", policy)
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
}

// tokenBucketScript refills KEYS[1] at ARGV[1] tokens/s up to ARGV[2] using
// Redis server time, then tries to take one token.
// Returns {allowed, remaining_floor, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local cap  = tonumber(ARGV[2])
local t    = redis.call('TIME')
local now  = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

local state  = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1]) or cap
local ts     = tonumber(state[2]) or now
if now > ts then
  tokens = math.min(cap, tokens + (now - ts) / 1000.0 * rate)
end

local allowed, retry = 0, 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  retry = math.ceil((1 - tokens) * 1000 / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('PEXPIRE', KEYS[1], math.ceil(cap / rate * 1000))
return {allowed, math.floor(tokens), retry}
`)

// RedisTokenBucket smooths bursts per key. Redis errors fail open.
type RedisTokenBucket struct {
	rdb   *redis.Client
	log   *zap.Logger
	keyFn KeyFunc
	rate  float64
	burst int
}

func NewRedisTokenBucket(rdb *redis.Client, ratePerSecond float64, burst int, keyFn KeyFunc, log *zap.Logger) *RedisTokenBucket {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisTokenBucket{rdb: rdb, log: log, keyFn: keyFn, rate: ratePerSecond, burst: burst}
}

func (tb *RedisTokenBucket) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := tb.keyFn(r)
		res, err := tokenBucketScript.Run(r.Context(), tb.rdb, []string{key},
			strconv.FormatFloat(tb.rate, 'f', -1, 64), tb.burst).Int64Slice()
		if err != nil || len(res) != 3 {
			tb.log.Warn("token bucket unavailable, allowing request", zap.String("key", key), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		setLimitHeaders(w, "token-bucket", tb.burst, res[1])
		if res[0] != 1 {
			retry := time.Duration(res[2]) * time.Millisecond
			tb.log.Info("token bucket: blocked", zap.String("key", key), zap.Duration("retry_after", retry))
			tooMany(w, r, retry, "request rate exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedisSlidingWindow allows limit requests per key in any window-long span,
// tracked as a sorted set of request timestamps. Redis errors fail open.
type RedisSlidingWindow struct {
	rdb    *redis.Client
	log    *zap.Logger
	keyFn  KeyFunc
	limit  int
	window time.Duration
}

func NewRedisSlidingWindow(rdb *redis.Client, limit int, window time.Duration, keyFn KeyFunc, log *zap.Logger) *RedisSlidingWindow {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisSlidingWindow{rdb: rdb, log: log, keyFn: keyFn, limit: limit, window: window}
}

func (sw *RedisSlidingWindow) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := sw.keyFn(r)
		now := time.Now()
		cutoff := now.Add(-sw.window).UnixMilli()

		pipe := sw.rdb.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
		count := pipe.ZCard(ctx, key)
		oldest := pipe.ZRangeWithScores(ctx, key, 0, 0)
		pipe.PExpire(ctx, key, sw.window+time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			sw.log.Warn("sliding window unavailable, allowing request", zap.String("key", key), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		n := count.Val()
		setLimitHeaders(w, "sliding-window", sw.limit, int64(sw.limit)-n)
		if n <= int64(sw.limit) {
			next.ServeHTTP(w, r)
			return
		}

		retry := time.Second
		if z := oldest.Val(); len(z) == 1 {
			freed := time.UnixMilli(int64(z[0].Score)).Add(sw.window)
			if d := freed.Sub(now); d > retry {
				retry = d
			}
		}
		sw.log.Info("sliding window: blocked", zap.String("key", key), zap.Duration("retry_after", retry))
		tooMany(w, r, retry, "too many requests in the current window")
	})
}
