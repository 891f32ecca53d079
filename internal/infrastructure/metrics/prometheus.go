// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric of this service.
const Namespace = "moviecollections"

var (
	// CacheOperationsTotal tracks cache operations (get, set).
	// Labels:
	//   - operation: get, set
	//   - status: hit, miss, success, error
	//   - cache_type: redis
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// DBQueriesTotal tracks database queries.
	// Labels:
	//   - query_type: select, insert, update, delete
	//   - table: movies, collections, collection_movies
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "db_queries_total",
			Help:      "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// CatalogFetchAttemptsTotal tracks individual HTTP attempts against the catalog.
	// Labels:
	//   - outcome: success, retryable, terminal, transport_error
	CatalogFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "catalog_fetch_attempts_total",
			Help:      "Total number of catalog HTTP attempts",
		},
		[]string{"outcome"},
	)

	// CircuitBreakerState reports the catalog breaker state (0 closed, 1 half-open, 2 open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	// RequestsCountedTotal tracks increments of the shared request counter.
	// Labels:
	//   - status: success, error
	RequestsCountedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_counted_total",
			Help:      "Total number of request counter increments",
		},
		[]string{"status"},
	)

	// WarmTasksTotal tracks page warm-up tasks handled by the worker.
	// Labels:
	//   - result: warmed, dropped, failed
	WarmTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "warm_tasks_total",
			Help:      "Total number of page warm-up tasks processed",
		},
		[]string{"result"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet = "get"
	CacheOpSet = "set"
)

// Cache type constants.
const (
	CacheTypeRedis = "redis"
)

// DB query type constants.
const (
	DBQuerySelect = "select"
	DBQueryInsert = "insert"
	DBQueryUpdate = "update"
	DBQueryDelete = "delete"
)

// Table name constants.
const (
	TableMovies           = "movies"
	TableCollections      = "collections"
	TableCollectionMovies = "collection_movies"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)

// Catalog fetch outcome constants.
const (
	FetchOutcomeSuccess        = "success"
	FetchOutcomeRetryable      = "retryable"
	FetchOutcomeTerminal       = "terminal"
	FetchOutcomeTransportError = "transport_error"
)

// Request counter status constants.
const (
	CounterStatusSuccess = "success"
	CounterStatusError   = "error"
)

// Warm task result constants.
const (
	WarmResultWarmed  = "warmed"
	WarmResultDropped = "dropped"
	WarmResultFailed  = "failed"
)
