package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hszk-dev/moviecollections/internal/domain/repository"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/metrics"
)

// CountRequests increments the shared request counter once per inbound request.
// Counter failures are logged and never fail the request.
func CountRequests(counter repository.RequestCounter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := counter.Increment(r.Context()); err != nil {
				metrics.RequestsCountedTotal.WithLabelValues(metrics.CounterStatusError).Inc()
				LoggerFrom(r.Context(), logger).Warn("failed to increment request counter",
					slog.String("error", err.Error()),
				)
			} else {
				metrics.RequestsCountedTotal.WithLabelValues(metrics.CounterStatusSuccess).Inc()
			}
			next.ServeHTTP(w, r)
		})
	}
}
