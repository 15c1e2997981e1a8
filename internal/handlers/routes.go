package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes attaches every handler to the router.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/version", h.Version).Methods(http.MethodGet)

	r.HandleFunc("/api/enrich", h.Enqueue).Methods(http.MethodPost)
	r.HandleFunc("/api/enrich/scan", h.Scan).Methods(http.MethodPost)
	r.HandleFunc("/api/enrich/cancel", h.Cancel).Methods(http.MethodPost)
	r.HandleFunc("/api/enrich/suspend", h.Suspend).Methods(http.MethodPost)
	r.HandleFunc("/api/enrich/resume", h.Resume).Methods(http.MethodPost)
	r.HandleFunc("/api/enrich/status", h.Status).Methods(http.MethodGet)

	r.HandleFunc("/api/items/{id}", h.GetItem).Methods(http.MethodGet)
	r.HandleFunc("/api/items/{id}/quick", h.GetQuickMetadata).Methods(http.MethodGet)
	r.HandleFunc("/api/items/{id}/overlay", h.ApplyOverlay).Methods(http.MethodPost)
	r.HandleFunc("/api/items/overlay", h.ApplyOverlay).Methods(http.MethodPost)
	r.HandleFunc("/api/derivative/{id}/{kind}", h.GetDerivative).Methods(http.MethodGet)
}
