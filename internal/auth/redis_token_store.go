package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/data-collector/internal/domain"
)

// redisKV is the subset of the go-redis client used by RedisTokenStore.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisTokenStore shares the token slot between replicas under one key.
type RedisTokenStore struct {
	client redisKV
	key    string
}

type storedToken struct {
	Value      string    `json:"value"`
	ObtainedAt time.Time `json:"obtained_at"`
}

// NewRedisTokenStore builds a store writing to key.
func NewRedisTokenStore(client redisKV, key string) *RedisTokenStore {
	return &RedisTokenStore{client: client, key: key}
}

func (s *RedisTokenStore) Load(ctx context.Context) (domain.AccessToken, bool, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AccessToken{}, false, nil
	}
	if err != nil {
		return domain.AccessToken{}, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var stored storedToken
	if err := json.Unmarshal(raw, &stored); err != nil {
		return domain.AccessToken{}, false, fmt.Errorf("decode stored token: %w", err)
	}
	token := domain.AccessToken{Value: stored.Value, ObtainedAt: stored.ObtainedAt}
	return token, token.Valid(), nil
}

func (s *RedisTokenStore) Save(ctx context.Context, token domain.AccessToken) error {
	payload, err := json.Marshal(storedToken{Value: token.Value, ObtainedAt: token.ObtainedAt})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
