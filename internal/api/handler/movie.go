package handler

import (
	"net/http"
	"strconv"

	"github.com/hszk-dev/moviecollections/internal/domain/model"
	"github.com/hszk-dev/moviecollections/internal/usecase"
)

type MovieResponse struct {
	UUID        string `json:"uuid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Genres      string `json:"genres"`
}

type MovieListResponse struct {
	Count  int             `json:"count"`
	Page   int             `json:"page"`
	Movies []MovieResponse `json:"movies"`
}

// MovieHandler serves the cached catalog.
type MovieHandler struct {
	svc usecase.CatalogService
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(svc usecase.CatalogService) *MovieHandler {
	return &MovieHandler{svc: svc}
}

// List handles GET /v1/movies?page=N
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ValidationFailed(w, "invalid page: must be an integer", map[string]string{"page": "must be an integer"})
			return
		}
		page = n
	}

	result, err := h.svc.ListMovies(r.Context(), page)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, MovieListResponse{
		Count:  result.Count,
		Page:   result.Page,
		Movies: toMovieResponses(result.Movies),
	})
}

func toMovieResponses(movies []model.Movie) []MovieResponse {
	out := make([]MovieResponse, len(movies))
	for i, m := range movies {
		out[i] = toMovieResponse(&m)
	}
	return out
}

func toMovieResponse(m *model.Movie) MovieResponse {
	return MovieResponse{
		UUID:        m.ExternalID,
		Title:       m.Title,
		Description: m.Description,
		Genres:      m.Genres,
	}
}
