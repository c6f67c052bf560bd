package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessions stores refresh tokens as rt:{token} -> "userID|tokenVersion".
type RedisSessions struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewRedisSessions(rdb *redis.Client) *RedisSessions {
	return &RedisSessions{RDB: rdb, TTL: refreshTTL()}
}

func (s *RedisSessions) Issue(ctx context.Context, userID string, tokenVersion int) (string, error) {
	if s.RDB == nil {
		return "", errors.New("redis not configured")
	}
	token, err := randToken()
	if err != nil {
		return "", err
	}
	val := userID + "|" + strconv.Itoa(tokenVersion)
	if err := s.RDB.Set(ctx, "rt:"+token, val, s.TTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisSessions) Lookup(ctx context.Context, token string) (string, int, error) {
	val, err := s.RDB.Get(ctx, "rt:"+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", 0, ErrInvalidRefresh
	}
	if err != nil {
		return "", 0, err
	}
	return parseSession(val)
}

func (s *RedisSessions) Revoke(ctx context.Context, token string) error {
	return s.RDB.Del(ctx, "rt:"+token).Err()
}

func parseSession(val string) (string, int, error) {
	parts := strings.SplitN(val, "|", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", 0, ErrInvalidRefresh
	}
	tv, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, ErrInvalidRefresh
	}
	return parts[0], tv, nil
}

// refreshTTL returns AUTH_REFRESH_TTL or 30 days.
func refreshTTL() time.Duration {
	if s := os.Getenv("AUTH_REFRESH_TTL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return 30 * 24 * time.Hour
}

func randToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
