// Package cache holds the short-lived coordination state shared by service
// instances, such as the per-order emission lock.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultLockPrefix = "backoffice:lock:"

// RedisLockStore implements shared.LockStore with Redis SETNX, so concurrent
// instances agree on who holds a key
type RedisLockStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisLockStore connects to Redis and verifies the connection
func NewRedisLockStore(ctx context.Context, cfg RedisConfig) (*RedisLockStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisLockStoreWithClient(client, ""), nil
}

// NewRedisLockStoreWithClient creates a store over an existing client
func NewRedisLockStoreWithClient(client *redis.Client, keyPrefix string) *RedisLockStore {
	if keyPrefix == "" {
		keyPrefix = defaultLockPrefix
	}
	return &RedisLockStore{client: client, keyPrefix: keyPrefix}
}

// Acquire sets key if it is free. It returns false when another holder owns it.
func (s *RedisLockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// Release frees key
func (s *RedisLockStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}

// Client returns the underlying Redis client so other stores can share the pool
func (s *RedisLockStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis client
func (s *RedisLockStore) Close() error {
	return s.client.Close()
}

var _ shared.LockStore = (*RedisLockStore)(nil)
