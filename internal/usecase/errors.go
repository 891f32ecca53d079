package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogUnavailable is returned when the external catalog could not serve a page.
	ErrCatalogUnavailable = errors.New("movie catalog unavailable")
	// ErrCollectionBusy is returned when another request holds the collection's mutation lock.
	ErrCollectionBusy = errors.New("collection is being modified by another request")
	// ErrExportUnavailable is returned when no object storage is configured for exports.
	ErrExportUnavailable = errors.New("collection export is not configured")
)

// ValidationError reports a rejected input field. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
