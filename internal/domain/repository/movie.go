package repository

import (
	"context"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
)

// MovieRepository defines persistence operations for catalog movies.
// The store enforces external ID uniqueness.
type MovieRepository interface {
	// GetByExternalID retrieves a movie by the catalog's identifier.
	// Returns nil and ErrMovieNotFound if the movie does not exist.
	GetByExternalID(ctx context.Context, externalID string) (*model.Movie, error)

	// Create persists a new movie.
	// Returns ErrDuplicateMovie if the external ID is already stored.
	Create(ctx context.Context, movie *model.Movie) error
}
