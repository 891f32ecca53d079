package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recoverer turns a handler panic into a JSON 500 and logs the stack with the request's logger.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := debug.Stack()

					LoggerFrom(r.Context(), logger).Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("stack", string(stack)),
					)

					writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
