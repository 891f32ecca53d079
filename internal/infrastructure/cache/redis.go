package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/metrics"
)

const (
	// pageCacheKeyPrefix namespaces catalog pages in Redis.
	pageCacheKeyPrefix = "movies_list_page_"
)

// movieJSON is the JSON representation of a Movie for caching.
// Using explicit struct avoids coupling to domain model's JSON tags.
type movieJSON struct {
	UUID        string `json:"uuid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Genres      string `json:"genres"`
}

type pageJSON struct {
	Page   int         `json:"page"`
	Count  int         `json:"count"`
	Movies []movieJSON `json:"movies"`
}

// RedisPageCache implements PageCache using Redis as the backing store.
type RedisPageCache struct {
	client *redis.Client
}

// NewRedisPageCache creates a new Redis-backed page cache.
func NewRedisPageCache(client *redis.Client) *RedisPageCache {
	return &RedisPageCache{
		client: client,
	}
}

// Get retrieves a catalog page from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisPageCache) Get(ctx context.Context, page int) (*model.MoviePage, error) {
	key := c.buildKey(page)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return nil, nil // Cache miss
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	p, err := c.deserialize(data)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("deserialize page: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return p, nil
}

// Set stores a catalog page in Redis cache with the specified TTL.
func (c *RedisPageCache) Set(ctx context.Context, page *model.MoviePage, ttl time.Duration) error {
	key := c.buildKey(page.Page)

	data, err := c.serialize(page)
	if err != nil {
		return fmt.Errorf("serialize page: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// buildKey constructs the Redis key for a catalog page.
func (c *RedisPageCache) buildKey(page int) string {
	return pageCacheKeyPrefix + strconv.Itoa(page)
}

// serialize converts a MoviePage to JSON bytes.
func (c *RedisPageCache) serialize(page *model.MoviePage) ([]byte, error) {
	p := pageJSON{
		Page:   page.Page,
		Count:  page.Count,
		Movies: make([]movieJSON, len(page.Movies)),
	}
	for i, m := range page.Movies {
		p.Movies[i] = movieJSON{
			UUID:        m.ExternalID,
			Title:       m.Title,
			Description: m.Description,
			Genres:      m.Genres,
		}
	}
	return json.Marshal(p)
}

// deserialize converts JSON bytes to a MoviePage.
func (c *RedisPageCache) deserialize(data []byte) (*model.MoviePage, error) {
	var p pageJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	movies := make([]model.Movie, len(p.Movies))
	for i, m := range p.Movies {
		movies[i] = model.Movie{
			ExternalID:  m.UUID,
			Title:       m.Title,
			Description: m.Description,
			Genres:      m.Genres,
		}
	}

	return &model.MoviePage{
		Page:   p.Page,
		Count:  p.Count,
		Movies: movies,
	}, nil
}

// Compile-time verification that RedisPageCache implements PageCache.
var _ PageCache = (*RedisPageCache)(nil)
