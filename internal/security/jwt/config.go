// Package jwtutil signs and verifies the HS256 access tokens handed out at
// login. Refresh tokens are opaque and live in Redis, not here.
package jwtutil

import (
	"os"
	"strconv"
	"sync"
	"time"
)

type Config struct {
	Secret    []byte
	ClockSkew time.Duration
	AccessTTL time.Duration
}

// LoadConfig reads AUTH_JWT_SECRET, AUTH_CLOCK_SKEW_SEC and AUTH_ACCESS_TTL.
// validate.Env has already rejected short secrets and bad durations.
func LoadConfig() Config {
	c := Config{
		Secret:    []byte(os.Getenv("AUTH_JWT_SECRET")),
		ClockSkew: time.Minute,
		AccessTTL: 15 * time.Minute,
	}
	if n, err := strconv.Atoi(os.Getenv("AUTH_CLOCK_SKEW_SEC")); err == nil && n >= 0 {
		c.ClockSkew = time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(os.Getenv("AUTH_ACCESS_TTL")); err == nil && d > 0 {
		c.AccessTTL = d
	}
	return c
}

var (
	mu  sync.RWMutex
	cfg *Config
)

// Configure installs c for every later Sign/Parse call.
func Configure(c Config) {
	mu.Lock()
	defer mu.Unlock()
	cfg = &c
}

func current() Config {
	mu.RLock()
	c := cfg
	mu.RUnlock()
	if c == nil {
		loaded := LoadConfig()
		Configure(loaded)
		return loaded
	}
	return *c
}

// DefaultAccessTTL is the configured access token lifetime, 15m if unset.
func DefaultAccessTTL() time.Duration {
	if ttl := current().AccessTTL; ttl > 0 {
		return ttl
	}
	return 15 * time.Minute
}
