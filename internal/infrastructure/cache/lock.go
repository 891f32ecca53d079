package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/moviecollections/internal/domain/repository"
)

const lockKeyPrefix = "lock:"

// releaseScript deletes the lock only if it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockConfig holds configuration for RedisLocker.
type LockConfig struct {
	// TTL bounds how long a crashed holder can keep the lock.
	TTL time.Duration
	// WaitTimeout is how long WithLock waits to acquire before giving up.
	WaitTimeout time.Duration
	// RetryInterval is the pause between acquisition attempts.
	RetryInterval time.Duration
}

// DefaultLockConfig returns the default configuration.
func DefaultLockConfig() LockConfig {
	return LockConfig{
		TTL:           30 * time.Second,
		WaitTimeout:   10 * time.Second,
		RetryInterval: 50 * time.Millisecond,
	}
}

// RedisLocker implements repository.Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client *redis.Client
	cfg    LockConfig
}

// NewRedisLocker creates a new Redis-backed locker.
func NewRedisLocker(client *redis.Client, cfg LockConfig) *RedisLocker {
	return &RedisLocker{client: client, cfg: cfg}
}

// WithLock runs fn while holding the lock for key.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lockKey := lockKeyPrefix + key
	token := uuid.NewString()

	if err := l.acquire(ctx, lockKey, token); err != nil {
		return err
	}
	defer l.release(lockKey, token)

	return fn(ctx)
}

func (l *RedisLocker) acquire(ctx context.Context, lockKey, token string) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(l.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, lockKey, token, l.cfg.TTL).Result()
		if err != nil && waitCtx.Err() == nil {
			return fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			return nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %s", repository.ErrLockNotAcquired, lockKey)
		case <-ticker.C:
		}
	}
}

// release uses a fresh context so the lock is freed even when the caller's
// context has been cancelled.
func (l *RedisLocker) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
		slog.Warn("failed to release lock",
			"key", lockKey,
			"error", err,
		)
	}
}

// Compile-time verification that RedisLocker implements repository.Locker.
var _ repository.Locker = (*RedisLocker)(nil)
