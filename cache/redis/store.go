package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store implements the cache.Store interface using Redis.
type Store struct {
	client *redis.Client
	prefix string // Optional prefix for keys
}

// NewStore creates a new [Store] instance.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

// redisKey returns the Redis key for a given cache key.
func (r *Store) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

// Set stores a value with the given TTL in Redis.
func (r *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.redisKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key in redis: %w", err)
	}

	return nil
}

// Get retrieves a value from Redis. A missing or expired key is reported
// as ok=false; any other Redis error propagates.
func (r *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key from redis: %w", err)
	}

	return value, true, nil
}

// Delete removes a key from Redis.
func (r *Store) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key from redis: %w", err)
	}

	return nil
}
