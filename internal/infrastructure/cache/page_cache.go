package cache

import (
	"context"
	"time"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
)

// PageCache defines the interface for caching normalized catalog pages.
// Implementations should handle serialization/deserialization transparently.
type PageCache interface {
	// Get retrieves a catalog page from cache by page number.
	// Returns nil, nil if the page is not cached or has expired (cache miss).
	Get(ctx context.Context, page int) (*model.MoviePage, error)

	// Set stores a catalog page with the specified TTL. An existing entry is replaced.
	Set(ctx context.Context, page *model.MoviePage, ttl time.Duration) error
}
