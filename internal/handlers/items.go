package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"media-enricher/internal/catalog"
	"media-enricher/internal/derivative"
	"media-enricher/internal/logging"
)

// GetItem returns the ref, extracted metadata, and overlay for one item.
func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ref, err := h.store.GetRef(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSONError(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Item lookup failed for %s: %v", id, err)
		writeJSONError(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{"ref": ref}

	if meta, err := h.store.GetExtracted(r.Context(), id); err == nil {
		response["metadata"] = meta
	}
	if overlay, err := h.store.GetOverlay(r.Context(), id); err == nil {
		response["overlay"] = overlay
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// GetQuickMetadata reads metadata directly from the file without spawning
// the external tool. Used by interactive views where latency matters.
func (h *Handlers) GetQuickMetadata(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ref, err := h.store.GetRef(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSONError(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSONError(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	meta := h.reader.ReadQuick(r.Context(), ref)
	if meta == nil {
		writeJSONError(w, "no metadata", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, meta)
}

type overlayRequest struct {
	IDs        []string `json:"ids"`
	Rating     *int     `json:"rating,omitempty"`
	ColorLabel *string  `json:"colorLabel,omitempty"`
	Favorite   *bool    `json:"favorite,omitempty"`
	Flag       *string  `json:"flag,omitempty"`
}

// ApplyOverlay applies a sparse edit to one or more items, writing through
// to disk where the format allows it.
func (h *Handlers) ApplyOverlay(w http.ResponseWriter, r *http.Request) {
	var req overlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if id := mux.Vars(r)["id"]; id != "" {
		req.IDs = []string{id}
	}
	if len(req.IDs) == 0 {
		writeJSONError(w, "no ids given", http.StatusBadRequest)
		return
	}

	if req.Rating != nil && (*req.Rating < 0 || *req.Rating > 5) {
		writeJSONError(w, "rating out of range", http.StatusBadRequest)
		return
	}
	if req.Flag != nil && *req.Flag != catalog.FlagPick && *req.Flag != catalog.FlagReject && *req.Flag != "" {
		writeJSONError(w, "unknown flag", http.StatusBadRequest)
		return
	}

	refsByID, err := h.store.GetRefs(r.Context(), req.IDs)
	if err != nil {
		logging.Error("Overlay ref lookup failed: %v", err)
		writeJSONError(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	refs := make([]catalog.MediaRef, 0, len(refsByID))
	for _, id := range req.IDs {
		if ref, ok := refsByID[id]; ok {
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		writeJSONError(w, "no known items", http.StatusNotFound)
		return
	}

	changes := catalog.OverlayChanges{
		Rating:     req.Rating,
		ColorLabel: req.ColorLabel,
		Favorite:   req.Favorite,
		Flag:       req.Flag,
	}
	if err := h.writer.WriteBatch(r.Context(), refs, changes); err != nil {
		// Overlay state is already updated; the disk write is best-effort.
		logging.Warn("Write-back incomplete: %v", err)
	}

	writeJSONStatus(w, "applied")
}

// GetDerivative serves a cached derivative image. A miss enqueues the item
// and reports 202 so the client can retry once enrichment catches up.
func (h *Handlers) GetDerivative(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	kind := derivative.Kind(vars["kind"])

	if kind != derivative.KindThumbnail && kind != derivative.KindPreview {
		writeJSONError(w, "unknown derivative kind", http.StatusBadRequest)
		return
	}

	if data, ok := h.cache.Lookup(id, kind); ok {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if _, err := w.Write(data); err != nil {
			logging.Debug("Derivative write aborted for %s: %v", id, err)
		}
		return
	}

	if _, err := h.store.GetRef(r.Context(), id); errors.Is(err, catalog.ErrNotFound) {
		writeJSONError(w, "item not found", http.StatusNotFound)
		return
	}

	h.sched.Enqueue([]string{id})
	w.WriteHeader(http.StatusAccepted)
	writeJSONStatus(w, "generating")
}
