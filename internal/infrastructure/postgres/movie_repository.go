package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
	"github.com/hszk-dev/moviecollections/internal/domain/repository"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/metrics"
)

// MovieRepository implements repository.MovieRepository using PostgreSQL.
type MovieRepository struct {
	db DBTX
}

// NewMovieRepository creates a new MovieRepository instance.
func NewMovieRepository(db DBTX) *MovieRepository {
	return &MovieRepository{db: db}
}

// GetByExternalID retrieves a movie by its catalog identifier.
func (r *MovieRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Movie, error) {
	const query = `
		SELECT external_id, title, description, genres
		FROM movies
		WHERE external_id = $1
	`

	observe(metrics.DBQuerySelect, metrics.TableMovies)

	var movie model.Movie
	err := r.db.QueryRow(ctx, query, externalID).Scan(
		&movie.ExternalID,
		&movie.Title,
		&movie.Description,
		&movie.Genres,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie by external ID: %w", err)
	}

	return &movie, nil
}

// Create persists a new movie.
func (r *MovieRepository) Create(ctx context.Context, movie *model.Movie) error {
	const query = `
		INSERT INTO movies (external_id, title, description, genres, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	observe(metrics.DBQueryInsert, metrics.TableMovies)

	_, err := r.db.Exec(ctx, query,
		movie.ExternalID,
		movie.Title,
		movie.Description,
		movie.Genres,
		time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateMovie
		}
		return fmt.Errorf("failed to create movie: %w", err)
	}

	return nil
}

// Compile-time verification that MovieRepository implements repository.MovieRepository.
var _ repository.MovieRepository = (*MovieRepository)(nil)
