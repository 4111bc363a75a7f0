package controller

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

const defaultRuns = 20

// HandleRuns returns the most recent pipeline runs, newest first.
func (c *Controller) HandleRuns(w http.ResponseWriter, r *http.Request) {
	if c.App.RedisClient == nil {
		writeError(w, http.StatusServiceUnavailable, "run history requires redis")
		return
	}
	limit := int64(defaultRuns)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxLimit)
	}
	runs, err := c.App.RedisClient.Runs(r.Context(), limit)
	if err != nil {
		c.App.Logger.Error("Failed to read run history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read run history")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
