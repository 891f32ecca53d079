package repository

import "context"

// Locker serializes work on a named resource across processes.
type Locker interface {
	// WithLock runs fn while holding the lock for key and releases it on every
	// return path. Returns ErrLockNotAcquired if the lock could not be taken.
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
