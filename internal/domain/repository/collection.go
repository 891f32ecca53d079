package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
)

// CollectionRepository defines persistence operations for collections and their membership.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type CollectionRepository interface {
	// Create persists a new collection.
	// Returns ErrDuplicateCollectionTitle if the owner already uses the title.
	Create(ctx context.Context, collection *model.Collection) error

	// GetByID retrieves a collection by its identifier.
	// Returns nil and ErrCollectionNotFound if the collection does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Collection, error)

	// GetByOwnerAndTitle retrieves the owner's collection with the given title.
	// Returns nil and ErrCollectionNotFound if there is none.
	GetByOwnerAndTitle(ctx context.Context, ownerID uuid.UUID, title string) (*model.Collection, error)

	// ListByOwner retrieves all collections belonging to a user.
	// Returns empty slice if the user has none.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Collection, error)

	// Update persists title and description changes.
	// Returns ErrCollectionNotFound or ErrDuplicateCollectionTitle.
	Update(ctx context.Context, collection *model.Collection) error

	// Delete removes a collection and its membership records. Movies are kept.
	// Returns ErrCollectionNotFound if the collection does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListMovies returns the collection's movies in the order they were added.
	ListMovies(ctx context.Context, collectionID uuid.UUID) ([]*model.Movie, error)

	// ListMovieIDs returns the external IDs of the collection's movies.
	ListMovieIDs(ctx context.Context, collectionID uuid.UUID) ([]string, error)

	// AddMovies adds movies to the collection. Movies already present are ignored.
	AddMovies(ctx context.Context, collectionID uuid.UUID, externalIDs []string) error

	// ClearMovies removes every movie from the collection.
	ClearMovies(ctx context.Context, collectionID uuid.UUID) error

	// WithinTx runs fn with a repository whose writes commit together.
	// If fn returns an error, none of its writes are kept.
	WithinTx(ctx context.Context, fn func(repo CollectionRepository) error) error
}
