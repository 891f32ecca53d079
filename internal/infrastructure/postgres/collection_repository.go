package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
	"github.com/hszk-dev/moviecollections/internal/domain/repository"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/metrics"
)

// CollectionRepository implements repository.CollectionRepository using PostgreSQL.
type CollectionRepository struct {
	db DBTX
}

// NewCollectionRepository creates a new CollectionRepository instance.
func NewCollectionRepository(db DBTX) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Create persists a new collection.
func (r *CollectionRepository) Create(ctx context.Context, c *model.Collection) error {
	const query = `
		INSERT INTO collections (id, owner_id, title, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	observe(metrics.DBQueryInsert, metrics.TableCollections)

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.Title,
		c.Description,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateCollectionTitle
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// GetByID retrieves a collection by its unique identifier.
func (r *CollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Collection, error) {
	const query = `
		SELECT id, owner_id, title, description, created_at, updated_at
		FROM collections
		WHERE id = $1
	`

	observe(metrics.DBQuerySelect, metrics.TableCollections)

	c, err := scanCollection(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to get collection by ID: %w", err)
	}

	return c, nil
}

// GetByOwnerAndTitle retrieves the owner's collection with the given title.
func (r *CollectionRepository) GetByOwnerAndTitle(ctx context.Context, ownerID uuid.UUID, title string) (*model.Collection, error) {
	const query = `
		SELECT id, owner_id, title, description, created_at, updated_at
		FROM collections
		WHERE owner_id = $1 AND title = $2
	`

	observe(metrics.DBQuerySelect, metrics.TableCollections)

	c, err := scanCollection(r.db.QueryRow(ctx, query, ownerID, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to get collection by title: %w", err)
	}

	return c, nil
}

// ListByOwner retrieves all collections belonging to a user, oldest first.
func (r *CollectionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Collection, error) {
	const query = `
		SELECT id, owner_id, title, description, created_at, updated_at
		FROM collections
		WHERE owner_id = $1
		ORDER BY created_at, id
	`

	observe(metrics.DBQuerySelect, metrics.TableCollections)

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections by owner: %w", err)
	}
	defer rows.Close()

	collections := []*model.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}

	return collections, nil
}

// Update persists title and description changes.
func (r *CollectionRepository) Update(ctx context.Context, c *model.Collection) error {
	const query = `
		UPDATE collections
		SET title = $2, description = $3, updated_at = $4
		WHERE id = $1
	`

	observe(metrics.DBQueryUpdate, metrics.TableCollections)

	c.UpdatedAt = time.Now()

	tag, err := r.db.Exec(ctx, query, c.ID, c.Title, c.Description, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateCollectionTitle
		}
		return fmt.Errorf("failed to update collection: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrCollectionNotFound
	}

	return nil
}

// Delete removes a collection. Membership rows go with it through ON DELETE CASCADE.
func (r *CollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM collections WHERE id = $1`

	observe(metrics.DBQueryDelete, metrics.TableCollections)

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrCollectionNotFound
	}

	return nil
}

// ListMovies returns the collection's movies in the order they were added.
func (r *CollectionRepository) ListMovies(ctx context.Context, collectionID uuid.UUID) ([]*model.Movie, error) {
	const query = `
		SELECT m.external_id, m.title, m.description, m.genres
		FROM collection_movies cm
		JOIN movies m ON m.external_id = cm.movie_external_id
		WHERE cm.collection_id = $1
		ORDER BY cm.seq
	`

	observe(metrics.DBQuerySelect, metrics.TableCollectionMovies)

	rows, err := r.db.Query(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection movies: %w", err)
	}
	defer rows.Close()

	movies := []*model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ExternalID, &m.Title, &m.Description, &m.Genres); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection movies: %w", err)
	}

	return movies, nil
}

// ListMovieIDs returns the external IDs of the collection's movies.
func (r *CollectionRepository) ListMovieIDs(ctx context.Context, collectionID uuid.UUID) ([]string, error) {
	const query = `
		SELECT movie_external_id
		FROM collection_movies
		WHERE collection_id = $1
		ORDER BY seq
	`

	observe(metrics.DBQuerySelect, metrics.TableCollectionMovies)

	rows, err := r.db.Query(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection movie IDs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan movie ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection movie IDs: %w", err)
	}

	return ids, nil
}

// AddMovies adds movies to the collection in the given order.
// IDs that are already members are skipped.
func (r *CollectionRepository) AddMovies(ctx context.Context, collectionID uuid.UUID, externalIDs []string) error {
	if len(externalIDs) == 0 {
		return nil
	}

	const query = `
		INSERT INTO collection_movies (collection_id, movie_external_id, added_at)
		SELECT $1, t.id, $3
		FROM unnest($2::text[]) WITH ORDINALITY AS t(id, ord)
		ORDER BY t.ord
		ON CONFLICT (collection_id, movie_external_id) DO NOTHING
	`

	observe(metrics.DBQueryInsert, metrics.TableCollectionMovies)

	if _, err := r.db.Exec(ctx, query, collectionID, externalIDs, time.Now()); err != nil {
		return fmt.Errorf("failed to add collection movies: %w", err)
	}

	return nil
}

// ClearMovies removes every movie from the collection.
func (r *CollectionRepository) ClearMovies(ctx context.Context, collectionID uuid.UUID) error {
	const query = `DELETE FROM collection_movies WHERE collection_id = $1`

	observe(metrics.DBQueryDelete, metrics.TableCollectionMovies)

	if _, err := r.db.Exec(ctx, query, collectionID); err != nil {
		return fmt.Errorf("failed to clear collection movies: %w", err)
	}

	return nil
}

// WithinTx runs fn against a repository bound to one transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (r *CollectionRepository) WithinTx(ctx context.Context, fn func(repo repository.CollectionRepository) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
				slog.Error("transaction rollback failed",
					slog.String("error", rbErr.Error()),
					slog.String("original_error", err.Error()),
				)
			}
		}
	}()

	if err = fn(&CollectionRepository{db: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// scanCollection scans a single row into a Collection model.
// Both pgx.Row and pgx.Rows satisfy the Scan signature.
func scanCollection(row pgx.Row) (*model.Collection, error) {
	var c model.Collection
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Title,
		&c.Description,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Compile-time verification that CollectionRepository implements repository.CollectionRepository.
var _ repository.CollectionRepository = (*CollectionRepository)(nil)
