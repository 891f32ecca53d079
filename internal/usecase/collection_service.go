package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
	"github.com/hszk-dev/moviecollections/internal/domain/repository"
)

// SyncKind identifies which operation produced a SyncReport.
type SyncKind string

const (
	SyncCreate  SyncKind = "create"
	SyncReplace SyncKind = "replace"
	SyncMerge   SyncKind = "merge"
)

const (
	msgCollectionCreated = "Collection created successfully."
	msgCollectionUpdated = "Collection updated successfully."
)

// SyncReport describes the outcome of a create, replace or merge.
// NewMovies and AlreadyAdded hold movie titles.
type SyncReport struct {
	Kind         SyncKind
	CollectionID uuid.UUID
	Message      string
	NewMovies    []string
	AlreadyAdded []string
}

// CreateCollectionInput contains the input parameters for creating a collection.
type CreateCollectionInput struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	Movies      []model.RawMovie
}

// ReplaceCollectionInput replaces a collection's fields and its entire movie set.
type ReplaceCollectionInput struct {
	OwnerID      uuid.UUID
	CollectionID uuid.UUID
	Title        string
	Description  string
	Movies       []model.RawMovie
}

// MergeCollectionInput updates the given fields and adds movies to a collection.
// Nil fields keep their current values.
type MergeCollectionInput struct {
	OwnerID      uuid.UUID
	CollectionID uuid.UUID
	Title        *string
	Description  *string
	Movies       []model.RawMovie
}

// CollectionDetail is a collection together with its movies.
type CollectionDetail struct {
	Collection *model.Collection
	Movies     []*model.Movie
}

// CollectionList is every collection of an owner plus their favourite genres.
type CollectionList struct {
	Collections     []CollectionDetail
	FavouriteGenres string
}

// ExportOutput points at an uploaded collection snapshot.
type ExportOutput struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

// CollectionService defines the collection business logic operations.
// Collections owned by someone else are reported as repository.ErrCollectionNotFound.
type CollectionService interface {
	CreateCollection(ctx context.Context, input CreateCollectionInput) (*SyncReport, error)

	// ReplaceCollection clears the collection's movies and adds the given ones.
	ReplaceCollection(ctx context.Context, input ReplaceCollectionInput) (*SyncReport, error)

	// MergeCollection adds movies that are not yet members and reports the rest as already added.
	MergeCollection(ctx context.Context, input MergeCollectionInput) (*SyncReport, error)

	GetCollection(ctx context.Context, ownerID, collectionID uuid.UUID) (*CollectionDetail, error)
	ListCollections(ctx context.Context, ownerID uuid.UUID) (*CollectionList, error)
	DeleteCollection(ctx context.Context, ownerID, collectionID uuid.UUID) error

	// ExportCollection uploads a JSON snapshot and returns a time-limited download URL.
	ExportCollection(ctx context.Context, ownerID, collectionID uuid.UUID) (*ExportOutput, error)
}

// CollectionServiceConfig holds configuration for CollectionService.
type CollectionServiceConfig struct {
	ExportURLExpiry time.Duration
}

// DefaultCollectionServiceConfig returns the default configuration.
func DefaultCollectionServiceConfig() CollectionServiceConfig {
	return CollectionServiceConfig{
		ExportURLExpiry: 15 * time.Minute,
	}
}

type collectionService struct {
	collections repository.CollectionRepository
	upserter    MovieUpserter
	locker      repository.Locker
	storage     repository.ObjectStorage

	exportURLExpiry time.Duration
	now             func() time.Time
}

// NewCollectionService creates a new CollectionService instance.
// storage may be nil, in which case exports fail with ErrExportUnavailable.
func NewCollectionService(
	collections repository.CollectionRepository,
	upserter MovieUpserter,
	locker repository.Locker,
	storage repository.ObjectStorage,
	cfg CollectionServiceConfig,
) CollectionService {
	return &collectionService{
		collections:     collections,
		upserter:        upserter,
		locker:          locker,
		storage:         storage,
		exportURLExpiry: cfg.ExportURLExpiry,
		now:             time.Now,
	}
}

func (s *collectionService) CreateCollection(ctx context.Context, input CreateCollectionInput) (*SyncReport, error) {
	collection, err := model.NewCollection(input.OwnerID, input.Title, input.Description)
	if err != nil {
		return nil, collectionValidationError(err)
	}

	if err := ensureTitleAvailable(ctx, s.collections, collection.OwnerID, collection.Title, uuid.Nil); err != nil {
		return nil, err
	}

	movies, err := s.upserter.Upsert(ctx, input.Movies)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Kind: SyncCreate, CollectionID: collection.ID}
	err = s.collections.WithinTx(ctx, func(repo repository.CollectionRepository) error {
		if err := repo.Create(ctx, collection); err != nil {
			if errors.Is(err, repository.ErrDuplicateCollectionTitle) {
				return duplicateTitleError()
			}
			return fmt.Errorf("failed to create collection: %w", err)
		}

		if len(movies) == 0 {
			return nil
		}

		added, _, err := classifyAndAdd(ctx, repo, collection.ID, movies, nil)
		if err != nil {
			return err
		}
		report.Message = msgCollectionCreated
		report.NewMovies = added
		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (s *collectionService) ReplaceCollection(ctx context.Context, input ReplaceCollectionInput) (*SyncReport, error) {
	title := strings.TrimSpace(input.Title)
	if err := model.ValidateTitle(title); err != nil {
		return nil, collectionValidationError(err)
	}

	var report *SyncReport
	err := s.withCollectionLock(ctx, input.CollectionID, func(ctx context.Context) error {
		collection, err := s.ownedCollection(ctx, input.OwnerID, input.CollectionID)
		if err != nil {
			return err
		}

		movies, err := s.upserter.Upsert(ctx, input.Movies)
		if err != nil {
			return err
		}

		return s.collections.WithinTx(ctx, func(repo repository.CollectionRepository) error {
			if err := rename(ctx, repo, collection, title, input.Description); err != nil {
				return err
			}

			if err := repo.ClearMovies(ctx, collection.ID); err != nil {
				return fmt.Errorf("failed to clear collection movies: %w", err)
			}

			report = &SyncReport{Kind: SyncReplace, CollectionID: collection.ID, Message: msgCollectionUpdated}
			if len(movies) == 0 {
				return nil
			}

			// Membership was just cleared, so every movie is new.
			added, _, err := classifyAndAdd(ctx, repo, collection.ID, movies, nil)
			if err != nil {
				return err
			}
			report.NewMovies = added
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (s *collectionService) MergeCollection(ctx context.Context, input MergeCollectionInput) (*SyncReport, error) {
	if input.Title != nil {
		if err := model.ValidateTitle(strings.TrimSpace(*input.Title)); err != nil {
			return nil, collectionValidationError(err)
		}
	}

	var report *SyncReport
	err := s.withCollectionLock(ctx, input.CollectionID, func(ctx context.Context) error {
		collection, err := s.ownedCollection(ctx, input.OwnerID, input.CollectionID)
		if err != nil {
			return err
		}

		movies, err := s.upserter.Upsert(ctx, input.Movies)
		if err != nil {
			return err
		}

		title, description := collection.Title, collection.Description
		if input.Title != nil {
			title = strings.TrimSpace(*input.Title)
		}
		if input.Description != nil {
			description = *input.Description
		}
		return s.collections.WithinTx(ctx, func(repo repository.CollectionRepository) error {
			if err := rename(ctx, repo, collection, title, description); err != nil {
				return err
			}

			report = &SyncReport{Kind: SyncMerge, CollectionID: collection.ID, Message: msgCollectionUpdated}
			if len(movies) == 0 {
				return nil
			}

			memberIDs, err := repo.ListMovieIDs(ctx, collection.ID)
			if err != nil {
				return fmt.Errorf("failed to list collection movies: %w", err)
			}
			members := make(map[string]bool, len(memberIDs))
			for _, id := range memberIDs {
				members[id] = true
			}

			added, already, err := classifyAndAdd(ctx, repo, collection.ID, movies, members)
			if err != nil {
				return err
			}
			report.NewMovies = added
			report.AlreadyAdded = already
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// classifyAndAdd adds every movie that is not in members and reports the titles
// of added and skipped movies. Repeats within movies are collapsed.
func classifyAndAdd(ctx context.Context, repo repository.CollectionRepository, collectionID uuid.UUID, movies []*model.Movie, members map[string]bool) (added, already []string, err error) {
	added = []string{}
	already = []string{}
	seen := make(map[string]bool, len(movies))
	toAdd := make([]string, 0, len(movies))

	for _, m := range movies {
		if seen[m.ExternalID] {
			continue
		}
		seen[m.ExternalID] = true

		if members[m.ExternalID] {
			already = append(already, m.Title)
			continue
		}
		toAdd = append(toAdd, m.ExternalID)
		added = append(added, m.Title)
	}

	if err := repo.AddMovies(ctx, collectionID, toAdd); err != nil {
		return nil, nil, fmt.Errorf("failed to add collection movies: %w", err)
	}

	return added, already, nil
}

func (s *collectionService) GetCollection(ctx context.Context, ownerID, collectionID uuid.UUID) (*CollectionDetail, error) {
	collection, err := s.ownedCollection(ctx, ownerID, collectionID)
	if err != nil {
		return nil, err
	}

	movies, err := s.collections.ListMovies(ctx, collection.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection movies: %w", err)
	}

	return &CollectionDetail{Collection: collection, Movies: movies}, nil
}

func (s *collectionService) ListCollections(ctx context.Context, ownerID uuid.UUID) (*CollectionList, error) {
	collections, err := s.collections.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	out := &CollectionList{Collections: make([]CollectionDetail, 0, len(collections))}
	var all []*model.Movie
	for _, c := range collections {
		movies, err := s.collections.ListMovies(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list movies of collection %s: %w", c.ID, err)
		}
		out.Collections = append(out.Collections, CollectionDetail{Collection: c, Movies: movies})
		all = append(all, movies...)
	}
	out.FavouriteGenres = model.FavouriteGenres(all)

	return out, nil
}

func (s *collectionService) DeleteCollection(ctx context.Context, ownerID, collectionID uuid.UUID) error {
	return s.withCollectionLock(ctx, collectionID, func(ctx context.Context) error {
		if _, err := s.ownedCollection(ctx, ownerID, collectionID); err != nil {
			return err
		}
		if err := s.collections.Delete(ctx, collectionID); err != nil {
			if errors.Is(err, repository.ErrCollectionNotFound) {
				return err
			}
			return fmt.Errorf("failed to delete collection: %w", err)
		}
		return nil
	})
}

type exportMovie struct {
	UUID        string `json:"uuid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Genres      string `json:"genres"`
}

type exportDocument struct {
	UUID        string        `json:"uuid"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	ExportedAt  time.Time     `json:"exported_at"`
	Movies      []exportMovie `json:"movies"`
}

func (s *collectionService) ExportCollection(ctx context.Context, ownerID, collectionID uuid.UUID) (*ExportOutput, error) {
	if s.storage == nil {
		return nil, ErrExportUnavailable
	}

	detail, err := s.GetCollection(ctx, ownerID, collectionID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	doc := exportDocument{
		UUID:        detail.Collection.ID.String(),
		Title:       detail.Collection.Title,
		Description: detail.Collection.Description,
		ExportedAt:  now,
		Movies:      make([]exportMovie, 0, len(detail.Movies)),
	}
	for _, m := range detail.Movies {
		doc.Movies = append(doc.Movies, exportMovie{
			UUID:        m.ExternalID,
			Title:       m.Title,
			Description: m.Description,
			Genres:      m.Genres,
		})
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	key := exportKey(collectionID, now)
	if err := s.storage.Upload(ctx, key, bytes.NewReader(body), "application/json"); err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := s.storage.GeneratePresignedDownloadURL(ctx, key, s.exportURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate export URL: %w", err)
	}

	return &ExportOutput{
		Key:       key,
		URL:       url,
		ExpiresAt: now.Add(s.exportURLExpiry),
	}, nil
}

// exportKey builds the object key: exports/{collectionID}/{unix}.json
func exportKey(collectionID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("exports/%s/%d.json", collectionID, at.Unix())
}

// ownedCollection loads a collection and hides it from anyone but its owner.
func (s *collectionService) ownedCollection(ctx context.Context, ownerID, collectionID uuid.UUID) (*model.Collection, error) {
	collection, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, repository.ErrCollectionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	if !collection.IsOwnedBy(ownerID) {
		return nil, repository.ErrCollectionNotFound
	}
	return collection, nil
}

// rename applies title and description and persists them.
func rename(ctx context.Context, repo repository.CollectionRepository, collection *model.Collection, title, description string) error {
	if title != collection.Title {
		if err := ensureTitleAvailable(ctx, repo, collection.OwnerID, title, collection.ID); err != nil {
			return err
		}
	}

	if err := collection.Rename(title, description); err != nil {
		return collectionValidationError(err)
	}

	if err := repo.Update(ctx, collection); err != nil {
		if errors.Is(err, repository.ErrDuplicateCollectionTitle) {
			return duplicateTitleError()
		}
		return fmt.Errorf("failed to update collection: %w", err)
	}
	return nil
}

// ensureTitleAvailable fails if the owner has a collection other than self with the title.
func ensureTitleAvailable(ctx context.Context, repo repository.CollectionRepository, ownerID uuid.UUID, title string, self uuid.UUID) error {
	existing, err := repo.GetByOwnerAndTitle(ctx, ownerID, title)
	if err != nil {
		if errors.Is(err, repository.ErrCollectionNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check collection title: %w", err)
	}
	if existing.ID != self {
		return duplicateTitleError()
	}
	return nil
}

func (s *collectionService) withCollectionLock(ctx context.Context, collectionID uuid.UUID, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, "collection:"+collectionID.String(), fn)
	if errors.Is(err, repository.ErrLockNotAcquired) {
		return fmt.Errorf("%w: %s", ErrCollectionBusy, collectionID)
	}
	return err
}

func duplicateTitleError() *ValidationError {
	return newValidationError("title", "a collection with this title already exists")
}

func collectionValidationError(err error) error {
	switch {
	case errors.Is(err, model.ErrEmptyTitle), errors.Is(err, model.ErrTitleTooLong):
		return newValidationError("title", err.Error())
	case errors.Is(err, model.ErrInvalidOwnerID):
		return newValidationError("owner", err.Error())
	default:
		return err
	}
}
