package scheduler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/pipeline/types"
)

type runRequest struct {
	RunID string `json:"run_id"`
	// Anchor overrides the recency reference date of the customer segments.
	Anchor *time.Time `json:"anchor"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeRunRequest accepts an empty body.
func decodeRunRequest(r *http.Request) (runRequest, error) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return runRequest{}, err
	}
	return req, nil
}

func (a *App) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.Trigger.Ready(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// HandleStartRun starts a full pipeline run.
func (a *App) HandleStartRun(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	started, err := a.Trigger.StartPipeline(r.Context(), types.PipelineInput{RunID: req.RunID, Anchor: req.Anchor})
	if err != nil {
		a.startError(w, "run", err)
		return
	}
	a.Logger.Info("Pipeline run started", zap.String("workflowId", started.WorkflowID), zap.String("runId", started.RunID))
	writeJSON(w, http.StatusAccepted, started)
}

// HandleRefresh rebuilds one reporting view from the published intermediate layer.
func (a *App) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	e, err := entities.FromString(mux.Vars(r)["view"])
	if err != nil || e.Layer() != entities.LayerMarts {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown view: " + mux.Vars(r)["view"]})
		return
	}
	req, err := decodeRunRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	started, err := a.Trigger.StartRefresh(r.Context(), types.RefreshMartInput{RunID: req.RunID, View: e.TableName(), Anchor: req.Anchor})
	if err != nil {
		a.startError(w, "refresh", err)
		return
	}
	a.Logger.Info("Mart refresh started", zap.String("view", e.TableName()), zap.String("workflowId", started.WorkflowID))
	writeJSON(w, http.StatusAccepted, started)
}

func (a *App) startError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, ErrRunInProgress) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	a.Logger.Error("Failed to start "+what, zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start " + what})
}
