package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hszk-dev/moviecollections/internal/api/middleware"
	"github.com/hszk-dev/moviecollections/internal/domain/model"
	"github.com/hszk-dev/moviecollections/internal/usecase"
)

// Request/Response types

type MovieRequest struct {
	UUID        string `json:"uuid" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Genres      string `json:"genres"`
}

type CollectionRequest struct {
	Title       string         `json:"title" validate:"required,max=255"`
	Description string         `json:"description"`
	Movies      []MovieRequest `json:"movies" validate:"dive"`
}

// PatchCollectionRequest leaves absent fields unchanged.
type PatchCollectionRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Movies      []MovieRequest `json:"movies" validate:"dive"`
}

type SyncReportResponse struct {
	CollectionUUID     string   `json:"collection_uuid"`
	Message            string   `json:"message,omitempty"`
	NewMovies          []string `json:"new_movies,omitzero"`
	AlreadyAddedMovies []string `json:"already_added_movies,omitzero"`
}

type CollectionResponse struct {
	UUID        string          `json:"uuid"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Movies      []MovieResponse `json:"movies"`
}

type CollectionDetailResponse struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Movies      []MovieResponse `json:"movies"`
}

type CollectionListData struct {
	Collections     []CollectionResponse `json:"collections"`
	FavouriteGenres string               `json:"favourite_genres"`
}

type CollectionListResponse struct {
	IsSuccess bool               `json:"is_success"`
	Data      CollectionListData `json:"data"`
}

type ExportResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

// CollectionHandler handles collection-related HTTP requests.
// Every route expects the auth middleware to have stored the owner ID.
type CollectionHandler struct {
	svc usecase.CollectionService
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(svc usecase.CollectionService) *CollectionHandler {
	return &CollectionHandler{svc: svc}
}

// Create handles POST /v1/collections
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req CollectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	report, err := h.svc.CreateCollection(r.Context(), usecase.CreateCollectionInput{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Movies:      toRawMovies(req.Movies),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusCreated, toSyncReportResponse(report))
}

// List handles GET /v1/collections
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	list, err := h.svc.ListCollections(r.Context(), ownerID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	collections := make([]CollectionResponse, 0, len(list.Collections))
	for _, d := range list.Collections {
		collections = append(collections, CollectionResponse{
			UUID:        d.Collection.ID.String(),
			Title:       d.Collection.Title,
			Description: d.Collection.Description,
			Movies:      toMoviePtrResponses(d.Movies),
		})
	}

	JSON(w, http.StatusOK, CollectionListResponse{
		IsSuccess: true,
		Data: CollectionListData{
			Collections:     collections,
			FavouriteGenres: list.FavouriteGenres,
		},
	})
}

// Get handles GET /v1/collections/{id}
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, collectionID, ok := ownerAndCollection(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.GetCollection(r.Context(), ownerID, collectionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, CollectionDetailResponse{
		Title:       detail.Collection.Title,
		Description: detail.Collection.Description,
		Movies:      toMoviePtrResponses(detail.Movies),
	})
}

// Replace handles PUT /v1/collections/{id}
func (h *CollectionHandler) Replace(w http.ResponseWriter, r *http.Request) {
	ownerID, collectionID, ok := ownerAndCollection(w, r)
	if !ok {
		return
	}

	var req CollectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	report, err := h.svc.ReplaceCollection(r.Context(), usecase.ReplaceCollectionInput{
		OwnerID:      ownerID,
		CollectionID: collectionID,
		Title:        req.Title,
		Description:  req.Description,
		Movies:       toRawMovies(req.Movies),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toSyncReportResponse(report))
}

// Patch handles PATCH /v1/collections/{id}
func (h *CollectionHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ownerID, collectionID, ok := ownerAndCollection(w, r)
	if !ok {
		return
	}

	var req PatchCollectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	report, err := h.svc.MergeCollection(r.Context(), usecase.MergeCollectionInput{
		OwnerID:      ownerID,
		CollectionID: collectionID,
		Title:        req.Title,
		Description:  req.Description,
		Movies:       toRawMovies(req.Movies),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toSyncReportResponse(report))
}

// Delete handles DELETE /v1/collections/{id}
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, collectionID, ok := ownerAndCollection(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteCollection(r.Context(), ownerID, collectionID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export handles POST /v1/collections/{id}/export
func (h *CollectionHandler) Export(w http.ResponseWriter, r *http.Request) {
	ownerID, collectionID, ok := ownerAndCollection(w, r)
	if !ok {
		return
	}

	out, err := h.svc.ExportCollection(r.Context(), ownerID, collectionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, ExportResponse{
		URL:       out.URL,
		ExpiresAt: out.ExpiresAt.Format(time.RFC3339),
	})
}

func requireOwner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ownerID, ok := middleware.GetOwnerID(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return uuid.Nil, false
	}
	return ownerID, true
}

func ownerAndCollection(w http.ResponseWriter, r *http.Request) (ownerID, collectionID uuid.UUID, ok bool) {
	ownerID, ok = requireOwner(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	collectionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_collection_id", "Collection ID must be a valid UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return ownerID, collectionID, true
}

func toRawMovies(reqs []MovieRequest) []model.RawMovie {
	if len(reqs) == 0 {
		return nil
	}
	out := make([]model.RawMovie, len(reqs))
	for i, m := range reqs {
		out[i] = model.RawMovie{
			UUID:        m.UUID,
			Title:       m.Title,
			Description: m.Description,
			Genres:      m.Genres,
		}
	}
	return out
}

func toMoviePtrResponses(movies []*model.Movie) []MovieResponse {
	out := make([]MovieResponse, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResponse(m))
	}
	return out
}

func toSyncReportResponse(r *usecase.SyncReport) SyncReportResponse {
	return SyncReportResponse{
		CollectionUUID:     r.CollectionID.String(),
		Message:            r.Message,
		NewMovies:          r.NewMovies,
		AlreadyAddedMovies: r.AlreadyAdded,
	}
}
