package repository

import "context"

// WarmPageTask asks a worker to load a catalog page into the cache.
type WarmPageTask struct {
	Page       int `json:"page"`
	RetryCount int `json:"retry_count"`
}

// MessageQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type MessageQueue interface {
	// PublishWarmPageTask enqueues a cache warm-up for a catalog page.
	// Used by the API server after serving a page that has a successor.
	PublishWarmPageTask(ctx context.Context, task WarmPageTask) error

	// ConsumeWarmPageTasks consumes warm-up tasks until ctx is cancelled.
	// The handler function is called for each received task.
	// Used by the worker service.
	ConsumeWarmPageTasks(ctx context.Context, handler func(task WarmPageTask) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
