package handler

import (
	"net/http"

	"github.com/hszk-dev/moviecollections/internal/domain/repository"
)

type RequestCountResponse struct {
	Requests int64 `json:"requests"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// RequestCountHandler exposes the shared inbound request counter.
type RequestCountHandler struct {
	counter repository.RequestCounter
}

// NewRequestCountHandler creates a new RequestCountHandler.
func NewRequestCountHandler(counter repository.RequestCounter) *RequestCountHandler {
	return &RequestCountHandler{counter: counter}
}

// Get handles GET /v1/request-count
func (h *RequestCountHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.counter.Count(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, RequestCountResponse{Requests: n})
}

// Reset handles POST /v1/request-count/reset
func (h *RequestCountHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.counter.Reset(r.Context()); err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, MessageResponse{Message: "Request count reset successfully"})
}
