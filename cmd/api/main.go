package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/moviecollections/internal/api/handler"
	"github.com/hszk-dev/moviecollections/internal/api/middleware"
	"github.com/hszk-dev/moviecollections/internal/config"
	"github.com/hszk-dev/moviecollections/internal/domain/repository"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/cache"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/catalog"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/postgres"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/queue"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/storage"
	"github.com/hszk-dev/moviecollections/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type routerDeps struct {
	logger      *slog.Logger
	auth        *middleware.Authenticator
	counter     repository.RequestCounter
	movies      *handler.MovieHandler
	collections *handler.CollectionHandler
	requests    *handler.RequestCountHandler
	readiness   *handler.ReadinessHandler
	rateLimit   int
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	if err := pgClient.Migrate(ctx); err != nil {
		return err
	}
	if err := pgClient.RegisterPoolMetrics(prometheus.DefaultRegisterer); err != nil {
		return err
	}
	logger.Info("connected to PostgreSQL")

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

	checks := []handler.Check{
		{Name: "postgres", Ping: pgClient.Ping},
		{Name: "redis", Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	// Exports and prefetch are optional; the core API runs without them.
	var objectStorage repository.ObjectStorage
	if cfg.MinIO.Enabled() {
		storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
			Endpoint:       cfg.MinIO.Endpoint,
			PublicEndpoint: cfg.MinIO.PublicEndpoint,
			AccessKey:      cfg.MinIO.AccessKey,
			SecretKey:      cfg.MinIO.SecretKey,
			Bucket:         cfg.MinIO.Bucket,
			UseSSL:         cfg.MinIO.UseSSL,
			CreateBucket:   cfg.MinIO.CreateBucket,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to MinIO: %w", err)
		}
		objectStorage = storageClient
		checks = append(checks, handler.Check{Name: "minio", Ping: storageClient.Ping})
		logger.Info("connected to MinIO", slog.String("bucket", storageClient.Bucket()))
	}

	var messageQueue repository.MessageQueue
	if cfg.RabbitMQ.Enabled() {
		queueClient, err := queue.NewClient(ctx, queueConfig(cfg.RabbitMQ))
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer queueClient.Close()
		messageQueue = queueClient
		checks = append(checks, handler.Check{Name: "rabbitmq", Ping: func(context.Context) error { return queueClient.Ping() }})
		logger.Info("connected to RabbitMQ")
	}

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

	catalogSvc := usecase.NewCatalogService(
		catalogClient,
		cache.NewRedisPageCache(redisClient),
		messageQueue,
		usecase.CatalogServiceConfig{
			CatalogURL:  cfg.Catalog.URL,
			Credentials: repository.Credentials{Username: cfg.Catalog.Username, Password: cfg.Catalog.Password},
			CacheTTL:    cfg.Catalog.CacheTTL,
			Prefetch:    messageQueue != nil,
		},
	)

	collectionSvc := usecase.NewCollectionService(
		postgres.NewCollectionRepository(pgClient.Pool()),
		usecase.NewMovieUpserter(postgres.NewMovieRepository(pgClient.Pool())),
		cache.NewRedisLocker(redisClient, cache.LockConfig{
			TTL:           cfg.Lock.TTL,
			WaitTimeout:   cfg.Lock.WaitTimeout,
			RetryInterval: cfg.Lock.RetryInterval,
		}),
		objectStorage,
		usecase.CollectionServiceConfig{ExportURLExpiry: cfg.MinIO.URLExpiry},
	)

	auth, err := middleware.NewAuthenticator(cfg.Auth.JWTSecret, logger)
	if err != nil {
		return err
	}

	counter := cache.NewRedisRequestCounter(redisClient)
	r := setupRouter(routerDeps{
		logger:      logger,
		auth:        auth,
		counter:     counter,
		movies:      handler.NewMovieHandler(catalogSvc),
		collections: handler.NewCollectionHandler(collectionSvc),
		requests:    handler.NewRequestCountHandler(counter),
		readiness:   handler.NewReadinessHandler(2*time.Second, checks...),
		rateLimit:   cfg.RateLimit.RequestsPerMinute,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func queueConfig(c config.RabbitMQConfig) queue.ClientConfig {
	qc := queue.DefaultClientConfig(c.URL())
	qc.QueueName = c.Queue
	qc.RoutingKey = c.Queue
	qc.Prefetch = c.Prefetch
	qc.MessageTTL = c.MessageTTL
	return qc
}

func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID(d.logger))
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.CountRequests(d.counter, d.logger))

	r.Get("/health", handler.Health)
	r.Get("/health/ready", d.readiness.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if d.rateLimit > 0 {
			r.Use(httprate.LimitByIP(d.rateLimit, time.Minute))
		}
		r.Use(d.auth.Middleware)

		r.Get("/movies", d.movies.List)

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", d.collections.List)
			r.Post("/", d.collections.Create)
			r.Get("/{id}", d.collections.Get)
			r.Put("/{id}", d.collections.Replace)
			r.Patch("/{id}", d.collections.Patch)
			r.Delete("/{id}", d.collections.Delete)
			r.Post("/{id}/export", d.collections.Export)
		})

		r.Get("/request-count", d.requests.Get)
		r.Post("/request-count/reset", d.requests.Reset)
	})

	return r
}
