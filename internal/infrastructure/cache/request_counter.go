package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/moviecollections/internal/domain/repository"
)

// requestCountKey holds the shared inbound request counter.
const requestCountKey = "request_count"

// RedisRequestCounter implements repository.RequestCounter on a single Redis key.
// INCR is atomic in Redis, so concurrent handlers in any number of processes
// never lose an update.
type RedisRequestCounter struct {
	client *redis.Client
}

// NewRedisRequestCounter creates a new Redis-backed request counter.
func NewRedisRequestCounter(client *redis.Client) *RedisRequestCounter {
	return &RedisRequestCounter{client: client}
}

// Increment adds one to the counter.
func (c *RedisRequestCounter) Increment(ctx context.Context) error {
	if err := c.client.Incr(ctx, requestCountKey).Err(); err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	return nil
}

// Count returns the current value. A missing key reads as zero.
func (c *RedisRequestCounter) Count(ctx context.Context) (int64, error) {
	n, err := c.client.Get(ctx, requestCountKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return n, nil
}

// Reset sets the counter back to zero.
func (c *RedisRequestCounter) Reset(ctx context.Context) error {
	if err := c.client.Set(ctx, requestCountKey, 0, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Compile-time verification that RedisRequestCounter implements repository.RequestCounter.
var _ repository.RequestCounter = (*RedisRequestCounter)(nil)
