package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hszk-dev/moviecollections/internal/domain/repository"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/metrics"
)

const (
	// DefaultMaxRetries is the default number of retries before a warm-up task is dropped.
	DefaultMaxRetries = 3
)

// WarmServiceConfig holds configuration for WarmService.
type WarmServiceConfig struct {
	// MaxRetries is the number of redeliveries a failing task gets before it is dropped.
	MaxRetries int
}

// DefaultWarmServiceConfig returns the default configuration.
func DefaultWarmServiceConfig() WarmServiceConfig {
	return WarmServiceConfig{
		MaxRetries: DefaultMaxRetries,
	}
}

// WarmService processes page warm-up tasks from the message queue.
type WarmService interface {
	// ProcessTask loads the task's page into the cache.
	// Returns nil on success or when the task is dropped.
	// Returns error for transient failures that should trigger a retry.
	ProcessTask(ctx context.Context, task repository.WarmPageTask) error
}

type warmService struct {
	catalog    CatalogService
	maxRetries int
}

// NewWarmService creates a new WarmService instance.
func NewWarmService(catalog CatalogService, cfg WarmServiceConfig) WarmService {
	return &warmService{
		catalog:    catalog,
		maxRetries: cfg.MaxRetries,
	}
}

func (s *warmService) ProcessTask(ctx context.Context, task repository.WarmPageTask) error {
	if task.RetryCount >= s.maxRetries {
		slog.Warn("dropping warm page task after max retries",
			slog.Int("page", task.Page),
			slog.Int("retry_count", task.RetryCount),
		)
		metrics.WarmTasksTotal.WithLabelValues(metrics.WarmResultDropped).Inc()
		return nil
	}

	if err := s.catalog.WarmPage(ctx, task.Page); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			slog.Warn("dropping invalid warm page task",
				slog.Int("page", task.Page),
				slog.String("error", err.Error()),
			)
			metrics.WarmTasksTotal.WithLabelValues(metrics.WarmResultDropped).Inc()
			return nil
		}
		metrics.WarmTasksTotal.WithLabelValues(metrics.WarmResultFailed).Inc()
		return fmt.Errorf("warm page %d: %w", task.Page, err)
	}

	metrics.WarmTasksTotal.WithLabelValues(metrics.WarmResultWarmed).Inc()
	slog.Info("warmed catalog page", slog.Int("page", task.Page))
	return nil
}
