package validate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// durations that must parse and be positive when set
var durationVars = []struct{ key, def string }{
	{"AUTH_ACCESS_TTL", "15m"},
	{"AUTH_REFRESH_TTL", "720h"},
	{"WIZARD_DRAFT_TTL", "72h"},
}

// argon2 floors, enforced only when the variable is set
var argonFloors = []struct {
	key string
	min uint64
}{
	{"ARGON2_MEMORY", 65536},
	{"ARGON2_ITER", 2},
	{"ARGON2_PAR", 1},
}

// Env fails fast on configuration the server cannot run with.
func Env() error {
	if len(os.Getenv("AUTH_JWT_SECRET")) < 32 {
		return errors.New("AUTH_JWT_SECRET must be at least 32 characters")
	}
	if os.Getenv("DATABASE_URL") == "" {
		return errors.New("DATABASE_URL is required")
	}
	for _, v := range durationVars {
		if _, err := envDuration(v.key, v.def); err != nil {
			return fmt.Errorf("%s: %w", v.key, err)
		}
	}
	for _, f := range argonFloors {
		if err := envMinUint(f.key, f.min); err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
	}
	_, err := SubmitMode()
	return err
}

// SubmitMode reports how finished wizards are persisted: "db" (default)
// writes listings, "log" only logs them.
func SubmitMode() (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(os.Getenv("WIZARD_SUBMIT_MODE"))); m {
	case "", "db":
		return "db", nil
	case "log":
		return m, nil
	default:
		return "", fmt.Errorf("WIZARD_SUBMIT_MODE must be db or log, got %q", m)
	}
}

// HardeningWarnings lists settings that work but should not ship. Only the
// token lifetime checks apply outside production.
func HardeningWarnings(appEnv string) []string {
	var warns []string
	warnIf := func(cond bool, format string, args ...any) {
		if cond {
			warns = append(warns, fmt.Sprintf(format, args...))
		}
	}

	access, _ := envDuration("AUTH_ACCESS_TTL", "15m")
	warnIf(access > time.Hour, "AUTH_ACCESS_TTL=%s is > 1h; consider shorter access tokens", access)
	refresh, _ := envDuration("AUTH_REFRESH_TTL", "720h")
	warnIf(refresh < 24*time.Hour, "AUTH_REFRESH_TTL=%s is < 24h; users may be logged out too often", refresh)

	if !strings.EqualFold(appEnv, "production") {
		return warns
	}

	mode, _ := SubmitMode()
	warnIf(mode == "log", "WIZARD_SUBMIT_MODE=log in production; listings will not be saved")
	warnIf(os.Getenv("AWS_BUCKET") == "", "AWS_BUCKET not set; listing image uploads are disabled")
	warnIf(os.Getenv("ARGON2_MEMORY") == "" || os.Getenv("ARGON2_ITER") == "",
		"ARGON2_* not explicitly set; using code defaults")

	upstash := os.Getenv("UPSTASH_REDIS_URL")
	warnIf(strings.HasPrefix(upstash, "redis://"), "UPSTASH_REDIS_URL uses redis:// (no TLS). Prefer rediss://")
	warnIf(upstash == "" && (os.Getenv("REDIS_USER") == "" || os.Getenv("REDIS_PASSWORD") == ""),
		"REDIS_ADDR used without REDIS_USER/REDIS_PASSWORD")
	return warns
}

// PingRedis checks connectivity with a short timeout.
func PingRedis(ctx context.Context, rdb *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return rdb.Ping(ctx).Err()
}

func envDuration(key, def string) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		s = def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func envMinUint(key string, min uint64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("not a number: %w", err)
	}
	if n < min {
		return fmt.Errorf("must be >= %d", min)
	}
	return nil
}
