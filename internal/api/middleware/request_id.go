package middleware

import (
	"context"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const (
	ownerIDKey ctxKey = iota + 1
	loggerKey
)

// RequestID echoes chi's request ID in X-Request-Id and stores a
// request-scoped logger tagged with it for LoggerFrom.
// It must be used AFTER chi's RequestID middleware in the chain.
func RequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := chimw.GetReqID(r.Context())
			ctx := WithLogger(r.Context(), logger.With(slog.String("request_id", requestID)))
			w.Header().Set("X-Request-Id", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithLogger returns a context carrying a request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFrom returns the request-scoped logger, or fallback if none was stored.
func LoggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
