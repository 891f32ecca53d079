package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
	"github.com/hszk-dev/moviecollections/internal/domain/repository"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/cache"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/metrics"
)

// CatalogService answers movie list requests from the cache or the external catalog.
type CatalogService interface {
	// ListMovies returns page N of the catalog, preferring the cache.
	ListMovies(ctx context.Context, page int) (*model.MoviePage, error)

	// WarmPage loads page N into the cache if it is not there yet.
	// It never schedules further warm-ups.
	WarmPage(ctx context.Context, page int) error
}

// CatalogServiceConfig holds configuration for CatalogService.
type CatalogServiceConfig struct {
	// CatalogURL is the catalog's movie list endpoint.
	CatalogURL string
	// Credentials authenticate against the catalog.
	Credentials repository.Credentials
	// CacheTTL is how long a fetched page is served from the cache.
	CacheTTL time.Duration
	// Prefetch enables publishing a warm-up task for the following page.
	Prefetch bool
}

// DefaultCatalogServiceConfig returns the default configuration.
func DefaultCatalogServiceConfig() CatalogServiceConfig {
	return CatalogServiceConfig{
		CacheTTL: time.Hour,
		Prefetch: true,
	}
}

type catalogService struct {
	client  repository.CatalogClient
	cache   cache.PageCache
	queue   repository.MessageQueue
	sfGroup singleflight.Group

	catalogURL string
	creds      repository.Credentials
	cacheTTL   time.Duration
	prefetch   bool
}

// NewCatalogService creates a new CatalogService.
// queue may be nil, in which case pages are never prefetched.
func NewCatalogService(
	client repository.CatalogClient,
	pageCache cache.PageCache,
	queue repository.MessageQueue,
	cfg CatalogServiceConfig,
) CatalogService {
	return &catalogService{
		client:     client,
		cache:      pageCache,
		queue:      queue,
		catalogURL: cfg.CatalogURL,
		creds:      cfg.Credentials,
		cacheTTL:   cfg.CacheTTL,
		prefetch:   cfg.Prefetch && queue != nil,
	}
}

// ListMovies returns a catalog page.
// Concurrent misses for the same page share a single catalog fetch.
func (s *catalogService) ListMovies(ctx context.Context, page int) (*model.MoviePage, error) {
	if page < 1 {
		return nil, newValidationError("page", "must be a positive integer")
	}
	return s.load(ctx, page, s.prefetch)
}

// WarmPage populates the cache for a page without scheduling its successor.
func (s *catalogService) WarmPage(ctx context.Context, page int) error {
	if page < 1 {
		return newValidationError("page", "must be a positive integer")
	}
	_, err := s.load(ctx, page, false)
	return err
}

func (s *catalogService) load(ctx context.Context, page int, prefetch bool) (*model.MoviePage, error) {
	result, err, shared := s.sfGroup.Do(strconv.Itoa(page), func() (any, error) {
		return s.getPageWithCache(ctx, page, prefetch)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}
	return result.(*model.MoviePage), nil
}

// getPageWithCache implements the cache-aside pattern.
func (s *catalogService) getPageWithCache(ctx context.Context, page int, prefetch bool) (*model.MoviePage, error) {
	cached, err := s.cache.Get(ctx, page)
	if err != nil {
		slog.Warn("cache get failed, falling back to catalog",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
	}
	if cached != nil {
		return cached, nil
	}

	fetched, err := s.client.Fetch(ctx, s.catalogURL, s.creds, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCatalogUnavailable, err.Error())
	}

	result := &model.MoviePage{
		Page:   page,
		Count:  fetched.Count,
		Movies: make([]model.Movie, 0, len(fetched.Results)),
	}
	for _, raw := range fetched.Results {
		result.Movies = append(result.Movies, raw.Normalize())
	}

	if err := s.cache.Set(ctx, result, s.cacheTTL); err != nil {
		slog.Warn("failed to cache catalog page",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
	}

	if prefetch && result.HasNext() {
		s.schedulePrefetch(ctx, page+1)
	}

	return result, nil
}

func (s *catalogService) schedulePrefetch(ctx context.Context, page int) {
	if err := s.queue.PublishWarmPageTask(ctx, repository.WarmPageTask{Page: page}); err != nil {
		slog.Warn("failed to schedule page prefetch",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
	}
}
