package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
	"github.com/hszk-dev/moviecollections/internal/usecase"
)

type mockCatalogService struct {
	listMoviesFn func(ctx context.Context, page int) (*model.MoviePage, error)
}

func (m *mockCatalogService) ListMovies(ctx context.Context, page int) (*model.MoviePage, error) {
	if m.listMoviesFn != nil {
		return m.listMoviesFn(ctx, page)
	}
	return &model.MoviePage{Page: page}, nil
}

func (m *mockCatalogService) WarmPage(ctx context.Context, page int) error {
	return nil
}

type mockCollectionService struct {
	createFn  func(ctx context.Context, input usecase.CreateCollectionInput) (*usecase.SyncReport, error)
	replaceFn func(ctx context.Context, input usecase.ReplaceCollectionInput) (*usecase.SyncReport, error)
	mergeFn   func(ctx context.Context, input usecase.MergeCollectionInput) (*usecase.SyncReport, error)
	getFn     func(ctx context.Context, ownerID, collectionID uuid.UUID) (*usecase.CollectionDetail, error)
	listFn    func(ctx context.Context, ownerID uuid.UUID) (*usecase.CollectionList, error)
	deleteFn  func(ctx context.Context, ownerID, collectionID uuid.UUID) error
	exportFn  func(ctx context.Context, ownerID, collectionID uuid.UUID) (*usecase.ExportOutput, error)
}

func (m *mockCollectionService) CreateCollection(ctx context.Context, input usecase.CreateCollectionInput) (*usecase.SyncReport, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return &usecase.SyncReport{Kind: usecase.SyncCreate, CollectionID: uuid.New()}, nil
}

func (m *mockCollectionService) ReplaceCollection(ctx context.Context, input usecase.ReplaceCollectionInput) (*usecase.SyncReport, error) {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, input)
	}
	return &usecase.SyncReport{Kind: usecase.SyncReplace, CollectionID: input.CollectionID}, nil
}

func (m *mockCollectionService) MergeCollection(ctx context.Context, input usecase.MergeCollectionInput) (*usecase.SyncReport, error) {
	if m.mergeFn != nil {
		return m.mergeFn(ctx, input)
	}
	return &usecase.SyncReport{Kind: usecase.SyncMerge, CollectionID: input.CollectionID}, nil
}

func (m *mockCollectionService) GetCollection(ctx context.Context, ownerID, collectionID uuid.UUID) (*usecase.CollectionDetail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, ownerID, collectionID)
	}
	return nil, nil
}

func (m *mockCollectionService) ListCollections(ctx context.Context, ownerID uuid.UUID) (*usecase.CollectionList, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID)
	}
	return &usecase.CollectionList{}, nil
}

func (m *mockCollectionService) DeleteCollection(ctx context.Context, ownerID, collectionID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, collectionID)
	}
	return nil
}

func (m *mockCollectionService) ExportCollection(ctx context.Context, ownerID, collectionID uuid.UUID) (*usecase.ExportOutput, error) {
	if m.exportFn != nil {
		return m.exportFn(ctx, ownerID, collectionID)
	}
	return nil, nil
}

type mockRequestCounter struct {
	countFn func(ctx context.Context) (int64, error)
	resetFn func(ctx context.Context) error
}

func (m *mockRequestCounter) Increment(ctx context.Context) error {
	return nil
}

func (m *mockRequestCounter) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockRequestCounter) Reset(ctx context.Context) error {
	if m.resetFn != nil {
		return m.resetFn(ctx)
	}
	return nil
}
