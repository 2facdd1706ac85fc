package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient подключается к Redis по URL и проверяет соединение
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error pinging redis: %w", err)
	}

	return client, nil
}

// RedisStore хранит ключи в Redis с TTL, общий для нескольких инстансов backend
type RedisStore struct {
	client     redis.UniversalClient
	ttl        time.Duration
	pendingTTL time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis backed store
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, pendingTTL: pendingTTL(ttl)}
}

func (s *RedisStore) Reserve(ctx context.Context, key string) (string, error) {
	// ключ мог истечь между SETNX и GET, тогда пробуем еще раз
	for range 2 {
		ok, err := s.client.SetNX(ctx, key, pendingMarker, s.pendingTTL).Result()
		if err != nil {
			return "", fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		if ok {
			return "", nil
		}

		value, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to read idempotency key: %w", err)
		}
		if value == pendingMarker {
			return "", ErrInProgress
		}
		return value, nil
	}
	return "", ErrInProgress
}

func (s *RedisStore) Complete(ctx context.Context, key, resourceID string) error {
	if err := s.client.Set(ctx, key, resourceID, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
