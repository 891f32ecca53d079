package handler

import (
	"context"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// Check probes one dependency. A nil error means healthy.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// ReadinessHandler reports whether every dependency answers.
type ReadinessHandler struct {
	checks  []Check
	timeout time.Duration
}

// NewReadinessHandler creates a ReadinessHandler that bounds each probe by timeout.
func NewReadinessHandler(timeout time.Duration, checks ...Check) *ReadinessHandler {
	return &ReadinessHandler{checks: checks, timeout: timeout}
}

// Ready handles GET /health/ready
func (h *ReadinessHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK

	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := c.Ping(ctx)
		cancel()

		if err != nil {
			resp.Checks[c.Name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name] = "ok"
	}

	JSON(w, status, resp)
}
