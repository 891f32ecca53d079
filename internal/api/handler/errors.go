package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hszk-dev/moviecollections/internal/api/middleware"
	"github.com/hszk-dev/moviecollections/internal/domain/repository"
	"github.com/hszk-dev/moviecollections/internal/usecase"
)

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *usecase.ValidationError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(w, verr.Error(), map[string]string{verr.Field: verr.Message})
	case errors.Is(err, repository.ErrCollectionNotFound):
		Error(w, http.StatusNotFound, "collection_not_found", "Collection not found")
	case errors.Is(err, usecase.ErrCatalogUnavailable):
		Error(w, http.StatusServiceUnavailable, "catalog_unavailable", err.Error())
	case errors.Is(err, usecase.ErrCollectionBusy):
		Error(w, http.StatusConflict, "collection_busy", "Collection is being modified, retry later")
	case errors.Is(err, usecase.ErrExportUnavailable):
		Error(w, http.StatusServiceUnavailable, "export_unavailable", "Collection export is not configured")
	default:
		middleware.LoggerFrom(r.Context(), nil).Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
