package usecase

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
	"github.com/hszk-dev/moviecollections/internal/domain/repository"
)

// mockCatalogClient provides a configurable mock for CatalogClient.
type mockCatalogClient struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context, url string, creds repository.Credentials, page int) (*repository.CatalogPage, error)
}

func (m *mockCatalogClient) Fetch(ctx context.Context, url string, creds repository.Credentials, page int) (*repository.CatalogPage, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, url, creds, page)
	}
	return &repository.CatalogPage{}, nil
}

func (m *mockCatalogClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockPageCache provides a configurable mock for PageCache.
type mockPageCache struct {
	getFn func(ctx context.Context, page int) (*model.MoviePage, error)
	setFn func(ctx context.Context, page *model.MoviePage, ttl time.Duration) error
}

func (m *mockPageCache) Get(ctx context.Context, page int) (*model.MoviePage, error) {
	if m.getFn != nil {
		return m.getFn(ctx, page)
	}
	return nil, nil
}

func (m *mockPageCache) Set(ctx context.Context, page *model.MoviePage, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, page, ttl)
	}
	return nil
}

// memoryPageCache is a PageCache that keeps pages in a map, ignoring TTL.
type memoryPageCache struct {
	mu    sync.Mutex
	pages map[int]*model.MoviePage
	ttls  map[int]time.Duration
}

func newMemoryPageCache() *memoryPageCache {
	return &memoryPageCache{pages: map[int]*model.MoviePage{}, ttls: map[int]time.Duration{}}
}

func (c *memoryPageCache) Get(ctx context.Context, page int) (*model.MoviePage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages[page], nil
}

func (c *memoryPageCache) Set(ctx context.Context, page *model.MoviePage, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[page.Page] = page
	c.ttls[page.Page] = ttl
	return nil
}

// mockMessageQueue provides a configurable mock for MessageQueue.
type mockMessageQueue struct {
	mu        sync.Mutex
	published []repository.WarmPageTask
	publishFn func(ctx context.Context, task repository.WarmPageTask) error
}

func (m *mockMessageQueue) PublishWarmPageTask(ctx context.Context, task repository.WarmPageTask) error {
	m.mu.Lock()
	m.published = append(m.published, task)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, task)
	}
	return nil
}

func (m *mockMessageQueue) ConsumeWarmPageTasks(ctx context.Context, handler func(task repository.WarmPageTask) error) error {
	return nil
}

func (m *mockMessageQueue) Close() error {
	return nil
}

// mockMovieRepository provides a configurable mock for MovieRepository.
type mockMovieRepository struct {
	getByExternalIDFn func(ctx context.Context, externalID string) (*model.Movie, error)
	createFn          func(ctx context.Context, movie *model.Movie) error
}

func (m *mockMovieRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Movie, error) {
	if m.getByExternalIDFn != nil {
		return m.getByExternalIDFn(ctx, externalID)
	}
	return nil, repository.ErrMovieNotFound
}

func (m *mockMovieRepository) Create(ctx context.Context, movie *model.Movie) error {
	if m.createFn != nil {
		return m.createFn(ctx, movie)
	}
	return nil
}

// movieStore backs a mockMovieRepository with a map keyed by external ID.
type movieStore struct {
	mu      sync.Mutex
	movies  map[string]model.Movie
	creates int
}

func newMovieStore() *movieStore {
	return &movieStore{movies: map[string]model.Movie{}}
}

func (s *movieStore) repo() *mockMovieRepository {
	return &mockMovieRepository{
		getByExternalIDFn: func(ctx context.Context, externalID string) (*model.Movie, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			m, ok := s.movies[externalID]
			if !ok {
				return nil, repository.ErrMovieNotFound
			}
			return &m, nil
		},
		createFn: func(ctx context.Context, movie *model.Movie) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.movies[movie.ExternalID]; ok {
				return repository.ErrDuplicateMovie
			}
			s.movies[movie.ExternalID] = *movie
			s.creates++
			return nil
		},
	}
}

// mockCollectionRepository provides a configurable mock for CollectionRepository.
type mockCollectionRepository struct {
	createFn             func(ctx context.Context, c *model.Collection) error
	getByIDFn            func(ctx context.Context, id uuid.UUID) (*model.Collection, error)
	getByOwnerAndTitleFn func(ctx context.Context, ownerID uuid.UUID, title string) (*model.Collection, error)
	listByOwnerFn        func(ctx context.Context, ownerID uuid.UUID) ([]*model.Collection, error)
	updateFn             func(ctx context.Context, c *model.Collection) error
	deleteFn             func(ctx context.Context, id uuid.UUID) error
	listMoviesFn         func(ctx context.Context, collectionID uuid.UUID) ([]*model.Movie, error)
	listMovieIDsFn       func(ctx context.Context, collectionID uuid.UUID) ([]string, error)
	addMoviesFn          func(ctx context.Context, collectionID uuid.UUID, externalIDs []string) error
	clearMoviesFn        func(ctx context.Context, collectionID uuid.UUID) error
	withinTxFn           func(ctx context.Context, fn func(repo repository.CollectionRepository) error) error
}

func (m *mockCollectionRepository) Create(ctx context.Context, c *model.Collection) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}

func (m *mockCollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Collection, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrCollectionNotFound
}

func (m *mockCollectionRepository) GetByOwnerAndTitle(ctx context.Context, ownerID uuid.UUID, title string) (*model.Collection, error) {
	if m.getByOwnerAndTitleFn != nil {
		return m.getByOwnerAndTitleFn(ctx, ownerID, title)
	}
	return nil, repository.ErrCollectionNotFound
}

func (m *mockCollectionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Collection, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return []*model.Collection{}, nil
}

func (m *mockCollectionRepository) Update(ctx context.Context, c *model.Collection) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, c)
	}
	return nil
}

func (m *mockCollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockCollectionRepository) ListMovies(ctx context.Context, collectionID uuid.UUID) ([]*model.Movie, error) {
	if m.listMoviesFn != nil {
		return m.listMoviesFn(ctx, collectionID)
	}
	return []*model.Movie{}, nil
}

func (m *mockCollectionRepository) ListMovieIDs(ctx context.Context, collectionID uuid.UUID) ([]string, error) {
	if m.listMovieIDsFn != nil {
		return m.listMovieIDsFn(ctx, collectionID)
	}
	return []string{}, nil
}

func (m *mockCollectionRepository) AddMovies(ctx context.Context, collectionID uuid.UUID, externalIDs []string) error {
	if m.addMoviesFn != nil {
		return m.addMoviesFn(ctx, collectionID, externalIDs)
	}
	return nil
}

func (m *mockCollectionRepository) ClearMovies(ctx context.Context, collectionID uuid.UUID) error {
	if m.clearMoviesFn != nil {
		return m.clearMoviesFn(ctx, collectionID)
	}
	return nil
}

func (m *mockCollectionRepository) WithinTx(ctx context.Context, fn func(repo repository.CollectionRepository) error) error {
	if m.withinTxFn != nil {
		return m.withinTxFn(ctx, fn)
	}
	return fn(m)
}

// collectionStore backs a mockCollectionRepository with maps.
// Membership is kept in insertion order and resolves titles through movies.
// WithinTx restores the maps when fn fails.
type collectionStore struct {
	mu          sync.Mutex
	movies      *movieStore
	collections map[uuid.UUID]model.Collection
	members     map[uuid.UUID][]string
}

func newCollectionStore(movies *movieStore) *collectionStore {
	return &collectionStore{
		movies:      movies,
		collections: map[uuid.UUID]model.Collection{},
		members:     map[uuid.UUID][]string{},
	}
}

func (s *collectionStore) put(c *model.Collection, memberIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[c.ID] = *c
	s.members[c.ID] = append([]string(nil), memberIDs...)
}

func (s *collectionStore) memberIDs(id uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.members[id]...)
}

// snapshot copies the store state so a failed transaction can restore it.
func (s *collectionStore) snapshot() (map[uuid.UUID]model.Collection, map[uuid.UUID][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	collections := make(map[uuid.UUID]model.Collection, len(s.collections))
	for id, c := range s.collections {
		collections[id] = c
	}
	members := make(map[uuid.UUID][]string, len(s.members))
	for id, ids := range s.members {
		members[id] = append([]string(nil), ids...)
	}
	return collections, members
}

func (s *collectionStore) restore(collections map[uuid.UUID]model.Collection, members map[uuid.UUID][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = collections
	s.members = members
}

func (s *collectionStore) repo() *mockCollectionRepository {
	m := s.baseRepo()
	m.withinTxFn = func(ctx context.Context, fn func(repo repository.CollectionRepository) error) error {
		collections, members := s.snapshot()
		if err := fn(m); err != nil {
			s.restore(collections, members)
			return err
		}
		return nil
	}
	return m
}

func (s *collectionStore) baseRepo() *mockCollectionRepository {
	return &mockCollectionRepository{
		createFn: func(ctx context.Context, c *model.Collection) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, other := range s.collections {
				if other.OwnerID == c.OwnerID && other.Title == c.Title {
					return repository.ErrDuplicateCollectionTitle
				}
			}
			s.collections[c.ID] = *c
			return nil
		},
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Collection, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			c, ok := s.collections[id]
			if !ok {
				return nil, repository.ErrCollectionNotFound
			}
			return &c, nil
		},
		getByOwnerAndTitleFn: func(ctx context.Context, ownerID uuid.UUID, title string) (*model.Collection, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, c := range s.collections {
				if c.OwnerID == ownerID && c.Title == title {
					return &c, nil
				}
			}
			return nil, repository.ErrCollectionNotFound
		},
		listByOwnerFn: func(ctx context.Context, ownerID uuid.UUID) ([]*model.Collection, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			out := []*model.Collection{}
			for _, c := range s.collections {
				if c.OwnerID == ownerID {
					out = append(out, &c)
				}
			}
			sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
			return out, nil
		},
		updateFn: func(ctx context.Context, c *model.Collection) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.collections[c.ID]; !ok {
				return repository.ErrCollectionNotFound
			}
			s.collections[c.ID] = *c
			return nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.collections[id]; !ok {
				return repository.ErrCollectionNotFound
			}
			delete(s.collections, id)
			delete(s.members, id)
			return nil
		},
		listMoviesFn: func(ctx context.Context, collectionID uuid.UUID) ([]*model.Movie, error) {
			ids := s.memberIDs(collectionID)
			out := make([]*model.Movie, 0, len(ids))
			for _, id := range ids {
				s.movies.mu.Lock()
				m := s.movies.movies[id]
				s.movies.mu.Unlock()
				out = append(out, &m)
			}
			return out, nil
		},
		listMovieIDsFn: func(ctx context.Context, collectionID uuid.UUID) ([]string, error) {
			return s.memberIDs(collectionID), nil
		},
		addMoviesFn: func(ctx context.Context, collectionID uuid.UUID, externalIDs []string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			present := map[string]bool{}
			for _, id := range s.members[collectionID] {
				present[id] = true
			}
			for _, id := range externalIDs {
				if !present[id] {
					s.members[collectionID] = append(s.members[collectionID], id)
					present[id] = true
				}
			}
			return nil
		},
		clearMoviesFn: func(ctx context.Context, collectionID uuid.UUID) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.members[collectionID] = nil
			return nil
		},
	}
}

// mockLocker provides a configurable mock for Locker.
// By default it runs fn directly.
type mockLocker struct {
	mu         sync.Mutex
	keys       []string
	withLockFn func(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

func (m *mockLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.mu.Unlock()
	if m.withLockFn != nil {
		return m.withLockFn(ctx, key, fn)
	}
	return fn(ctx)
}

// mockObjectStorage provides a configurable mock for ObjectStorage.
type mockObjectStorage struct {
	uploadFn                       func(ctx context.Context, key string, reader io.Reader, contentType string) error
	generatePresignedDownloadURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
}

func (m *mockObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, reader, contentType)
	}
	return nil
}

func (m *mockObjectStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedDownloadURLFn != nil {
		return m.generatePresignedDownloadURLFn(ctx, key, expiry)
	}
	return "https://storage.example.com/" + key, nil
}

// mockCatalogService provides a configurable mock for CatalogService.
type mockCatalogService struct {
	listMoviesFn func(ctx context.Context, page int) (*model.MoviePage, error)
	warmPageFn   func(ctx context.Context, page int) error
}

func (m *mockCatalogService) ListMovies(ctx context.Context, page int) (*model.MoviePage, error) {
	if m.listMoviesFn != nil {
		return m.listMoviesFn(ctx, page)
	}
	return &model.MoviePage{Page: page}, nil
}

func (m *mockCatalogService) WarmPage(ctx context.Context, page int) error {
	if m.warmPageFn != nil {
		return m.warmPageFn(ctx, page)
	}
	return nil
}
