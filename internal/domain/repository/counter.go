package repository

import "context"

// RequestCounter is the process-wide inbound request counter.
// Increments must be atomic in the shared store.
type RequestCounter interface {
	Increment(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}
