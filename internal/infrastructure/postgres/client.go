package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hszk-dev/moviecollections/internal/infrastructure/metrics"
)

// ClientConfig holds configuration for the PostgreSQL client.
type ClientConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig(dsn string) ClientConfig {
	return ClientConfig{
		DSN:             dsn,
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Client wraps a PostgreSQL connection pool.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient creates a new PostgreSQL client with connection pooling.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{pool: pool}, nil
}

// Pool returns the underlying connection pool.
// Use this for creating the movie and collection repositories.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Migrate applies the schema using the pool.
func (c *Client) Migrate(ctx context.Context) error {
	return Migrate(ctx, c.pool)
}

// Ping verifies the database connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close closes all connections in the pool.
func (c *Client) Close() {
	c.pool.Close()
}

// Stats returns connection pool statistics.
type Stats struct {
	AcquireCount         int64
	AcquiredConns        int32
	IdleConns            int32
	TotalConns           int32
	MaxConns             int32
	EmptyAcquireCount    int64
	CanceledAcquireCount int64
}

// Stats returns current connection pool statistics.
func (c *Client) Stats() Stats {
	s := c.pool.Stat()
	return Stats{
		AcquireCount:         s.AcquireCount(),
		AcquiredConns:        s.AcquiredConns(),
		IdleConns:            s.IdleConns(),
		TotalConns:           s.TotalConns(),
		MaxConns:             s.MaxConns(),
		EmptyAcquireCount:    s.EmptyAcquireCount(),
		CanceledAcquireCount: s.CanceledAcquireCount(),
	}
}

// RegisterPoolMetrics exposes the pool statistics as gauges read on every scrape.
func (c *Client) RegisterPoolMetrics(reg prometheus.Registerer) error {
	return registerPoolGauges(reg, c.Stats)
}

func registerPoolGauges(reg prometheus.Registerer, stats func() Stats) error {
	gauges := []struct {
		name string
		help string
		read func(Stats) float64
	}{
		{"db_pool_acquired_conns", "Connections currently checked out of the pool", func(s Stats) float64 { return float64(s.AcquiredConns) }},
		{"db_pool_idle_conns", "Idle connections in the pool", func(s Stats) float64 { return float64(s.IdleConns) }},
		{"db_pool_total_conns", "Total connections in the pool", func(s Stats) float64 { return float64(s.TotalConns) }},
		{"db_pool_max_conns", "Maximum size of the pool", func(s Stats) float64 { return float64(s.MaxConns) }},
	}

	for _, g := range gauges {
		read := g.read
		collector := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Name:      g.name,
			Help:      g.help,
		}, func() float64 { return read(stats()) })
		if err := reg.Register(collector); err != nil {
			return fmt.Errorf("failed to register %s: %w", g.name, err)
		}
	}
	return nil
}
