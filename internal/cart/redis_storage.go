package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisTTL bounds how long an untouched server-side cart is kept.
const DefaultRedisTTL = 30 * 24 * time.Hour

// RedisStorage scopes keys to one shopper: key "cart" for user 42 is stored
// at "cart:42:cart".
type RedisStorage struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

func NewRedisStorage(client *redis.Client, namespace string) *RedisStorage {
	return &RedisStorage{
		client:    client,
		namespace: namespace,
		ttl:       DefaultRedisTTL,
	}
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return v, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.redisKey(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStorage) redisKey(key string) string {
	return fmt.Sprintf("cart:%s:%s", s.namespace, key)
}
