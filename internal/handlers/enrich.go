package handlers

import (
	"encoding/json"
	"net/http"

	"media-enricher/internal/logging"
)

type enqueueRequest struct {
	IDs []string `json:"ids"`
}

// Enqueue adds catalog items to the enrichment queue.
func (h *Handlers) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		writeJSONError(w, "no ids given", http.StatusBadRequest)
		return
	}

	h.sched.Enqueue(req.IDs)
	w.WriteHeader(http.StatusAccepted)
	writeJSONStatus(w, "queued")
}

// Scan walks the media directory, registers new enrichable files, and
// enqueues everything found.
func (h *Handlers) Scan(w http.ResponseWriter, r *http.Request) {
	refs, err := h.store.ScanDirectory(r.Context(), h.mediaDir)
	if err != nil {
		logging.Error("Scan failed: %v", err)
		writeJSONError(w, "scan failed", http.StatusInternalServerError)
		return
	}

	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}
	h.sched.Enqueue(ids)

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]interface{}{
		"status": "queued",
		"found":  len(ids),
	})
}

type cancelRequest struct {
	IDs []string `json:"ids"`
}

// Cancel cancels enrichment. An empty or absent id list cancels everything.
func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.Body != nil {
		// Body is optional; decode errors fall through to cancel-all.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if len(req.IDs) == 0 {
		h.sched.CancelAll()
	} else {
		h.sched.CancelSome(req.IDs)
	}
	writeJSONStatus(w, "cancelled")
}

// Suspend pauses the enrichment loop at the next batch boundary.
func (h *Handlers) Suspend(w http.ResponseWriter, _ *http.Request) {
	h.sched.Suspend()
	writeJSONStatus(w, "suspended")
}

// Resume continues a suspended enrichment loop.
func (h *Handlers) Resume(w http.ResponseWriter, _ *http.Request) {
	h.sched.Resume()
	writeJSONStatus(w, "resumed")
}

// Status reports the scheduler snapshot.
func (h *Handlers) Status(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.sched.Snapshot())
}
