package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aashish4533/bloombook/internal/wizard"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "wz:"

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis stores drafts as JSON with a sliding TTL (WIZARD_DRAFT_TTL, default 72h).
func NewRedis(rdb *redis.Client) *RedisStore {
	ttl := 72 * time.Hour
	if v := os.Getenv("WIZARD_DRAFT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ttl = d
		}
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func Key(userID string, kind wizard.Kind) string {
	return keyPrefix + userID + ":" + string(kind)
}

func (s *RedisStore) Load(ctx context.Context, userID string, kind wizard.Kind) (wizard.State, error) {
	raw, err := s.rdb.GetEx(ctx, Key(userID, kind), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return wizard.State{}, ErrNotFound
	}
	if err != nil {
		return wizard.State{}, fmt.Errorf("drafts: load: %w", err)
	}
	var st wizard.State
	if err := json.Unmarshal(raw, &st); err != nil {
		// corrupt entry; treat as absent so the user can start over
		_ = s.rdb.Del(ctx, Key(userID, kind)).Err()
		return wizard.State{}, ErrNotFound
	}
	return st, nil
}

func (s *RedisStore) Save(ctx context.Context, userID string, st wizard.State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("drafts: encode: %w", err)
	}
	if err := s.rdb.Set(ctx, Key(userID, st.Kind), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("drafts: save: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string, kind wizard.Kind) error {
	return s.rdb.Del(ctx, Key(userID, kind)).Err()
}

func (s *RedisStore) DeleteAll(ctx context.Context, userID string) error {
	keys := make([]string, 0, len(kinds))
	for _, k := range kinds {
		keys = append(keys, Key(userID, k))
	}
	return s.rdb.Del(ctx, keys...).Err()
}
