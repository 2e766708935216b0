package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values in Redis under "<prefix>:<origin>:<key>".
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore scopes client to origin. An empty origin shares one namespace.
func NewRedisStore(client redis.Cmdable, origin string) *RedisStore {
	prefix := "profiler"
	if origin != "" {
		prefix += ":" + origin
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

// Get returns the value for key, or ErrNotFound when it is missing.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return v, nil
}

// Set stores value under key with Redis expiry. A non-positive ttl never expires.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}

	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}
