package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/moviecollections/internal/config"
	"github.com/hszk-dev/moviecollections/internal/domain/repository"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/cache"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/catalog"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/queue"
	"github.com/hszk-dev/moviecollections/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if !cfg.RabbitMQ.Enabled() {
		return errors.New("worker requires RABBITMQ_HOST to be set")
	}

	qc := queue.DefaultClientConfig(cfg.RabbitMQ.URL())
	qc.QueueName = cfg.RabbitMQ.Queue
	qc.RoutingKey = cfg.RabbitMQ.Queue
	qc.Prefetch = cfg.RabbitMQ.Prefetch
	qc.MessageTTL = cfg.RabbitMQ.MessageTTL

	queueClient, err := queue.NewClient(ctx, qc)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	catalogClient := catalog.NewClient(catalog.ClientConfig{
		Timeout:           cfg.Catalog.Timeout,
		MaxAttempts:       cfg.Catalog.MaxAttempts,
		BaseDelay:         cfg.Catalog.BaseDelay,
		RetryableStatuses: catalog.DefaultClientConfig().RetryableStatuses,
		RequestsPerSecond: cfg.Catalog.RequestsPerSec,
		Burst:             cfg.Catalog.Burst,
		BreakerFailures:   cfg.Catalog.BreakerFailures,
		BreakerCooldown:   cfg.Catalog.BreakerCooldown,
	})

	// The worker only fills the cache; it never publishes further warm-ups.
	catalogSvc := usecase.NewCatalogService(
		catalogClient,
		cache.NewRedisPageCache(redisClient),
		nil,
		usecase.CatalogServiceConfig{
			CatalogURL:  cfg.Catalog.URL,
			Credentials: repository.Credentials{Username: cfg.Catalog.Username, Password: cfg.Catalog.Password},
			CacheTTL:    cfg.Catalog.CacheTTL,
		},
	)
	warmSvc := usecase.NewWarmService(catalogSvc, usecase.WarmServiceConfig{
		MaxRetries: cfg.Worker.MaxRetries,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// WaitGroup to track in-flight tasks
	var wg sync.WaitGroup

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting worker, consuming warm page tasks")
		err := queueClient.ConsumeWarmPageTasks(ctx, func(task repository.WarmPageTask) error {
			wg.Add(1)
			defer wg.Done()

			if err := warmSvc.ProcessTask(ctx, task); err != nil {
				logger.Error("task processing failed",
					slog.Int("page", task.Page),
					slog.Int("retry_count", task.RetryCount),
					slog.String("error", err.Error()),
				)
				return err
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Stop consuming new messages
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all in-flight tasks completed")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, some tasks may not have completed")
	}

	logger.Info("worker stopped")
	return nil
}
