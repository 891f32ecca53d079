package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
	"github.com/hszk-dev/moviecollections/internal/domain/repository"
)

// MovieUpserter resolves raw movie records to stored movies.
type MovieUpserter interface {
	// Upsert returns the stored movie for each record, in input order.
	// Unknown movies are created from the record; known movies keep the
	// values they were first stored with.
	Upsert(ctx context.Context, raws []model.RawMovie) ([]*model.Movie, error)
}

type movieUpserter struct {
	repo repository.MovieRepository
}

// NewMovieUpserter creates a new MovieUpserter.
func NewMovieUpserter(repo repository.MovieRepository) MovieUpserter {
	return &movieUpserter{repo: repo}
}

func (u *movieUpserter) Upsert(ctx context.Context, raws []model.RawMovie) ([]*model.Movie, error) {
	candidates := make([]*model.Movie, len(raws))
	for i, raw := range raws {
		m, err := model.NewMovie(raw)
		if err != nil {
			return nil, newValidationError("movies", fmt.Sprintf("movie at index %d: %s", i, err))
		}
		candidates[i] = m
	}

	resolved := make(map[string]*model.Movie, len(candidates))
	out := make([]*model.Movie, len(candidates))
	for i, m := range candidates {
		if stored, ok := resolved[m.ExternalID]; ok {
			out[i] = stored
			continue
		}

		stored, err := u.getOrCreate(ctx, m)
		if err != nil {
			return nil, err
		}
		resolved[m.ExternalID] = stored
		out[i] = stored
	}

	return out, nil
}

func (u *movieUpserter) getOrCreate(ctx context.Context, m *model.Movie) (*model.Movie, error) {
	existing, err := u.repo.GetByExternalID(ctx, m.ExternalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrMovieNotFound) {
		return nil, fmt.Errorf("failed to look up movie %s: %w", m.ExternalID, err)
	}

	if err := u.repo.Create(ctx, m); err != nil {
		if !errors.Is(err, repository.ErrDuplicateMovie) {
			return nil, fmt.Errorf("failed to create movie %s: %w", m.ExternalID, err)
		}
		// Another request stored it first; its values win.
		existing, err := u.repo.GetByExternalID(ctx, m.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload movie %s: %w", m.ExternalID, err)
		}
		return existing, nil
	}

	return m, nil
}
