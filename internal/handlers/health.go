package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-enricher/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Pipeline state
	Enriching     bool    `json:"enriching"`
	Progress      float64 `json:"progress"`
	Remaining     int     `json:"remaining"`
	StatusMessage string  `json:"statusMessage,omitempty"`

	// Catalog summary
	CatalogItems int `json:"catalogItems"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snap := h.sched.Snapshot()

	response := HealthResponse{
		Status:        statusHealthy,
		Version:       startup.Version,
		Uptime:        time.Since(h.startedAt).Round(time.Second).String(),
		Enriching:     snap.IsRunning,
		Progress:      snap.Progress,
		Remaining:     snap.Remaining,
		StatusMessage: snap.StatusMessage,
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}

	if count, err := h.store.CountItems(r.Context()); err == nil {
		response.CatalogItems = count
	} else {
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status == statusDegraded {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}
