package exporter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type triggerRequest struct {
	OnlyNew *bool `json:"only_new"`
}

func (t *Trigger) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// RegisterRoutes mounts the export API. The status endpoint is safe to poll
// at short intervals while a run is in flight.
func (t *Trigger) RegisterRoutes(r chi.Router) {
	r.Get("/health", t.Health)

	r.Route("/api/v1/export", func(r chi.Router) {
		r.Post("/", t.handleTrigger)
		r.Get("/status", t.handleStatus)
		r.Get("/runs", t.handleRuns)
	})
}

func (t *Trigger) handleTrigger(w http.ResponseWriter, r *http.Request) {
	// An empty or malformed body means "derive only_new from the marker".
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = triggerRequest{}
	}

	err := t.Manual(req.OnlyNew)
	if errors.Is(err, ErrAlreadyRunning) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": ErrAlreadyRunning.Error(),
		})
		return
	}
	if err != nil {
		t.logger.Error("failed to accept manual trigger", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to start export",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
	})
}

func (t *Trigger) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, t.status.Load())
}

func (t *Trigger) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := ListRuns(t.exporter.ArtifactsDir())
	if err != nil {
		t.logger.Error("failed to list runs", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list runs",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
