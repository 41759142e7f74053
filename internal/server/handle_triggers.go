package server

import (
	"context"
	"log/slog"
	"net/http"
)

// handleTrigger runs one proactive trigger and reports whether it fired.
func handleTrigger(logger *slog.Logger, name string, trigger func(context.Context) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fired, err := trigger(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		logger.Info("trigger handled", "trigger", name, "fired", fired)
		writeJSON(w, http.StatusOK, TriggerResponse{Triggered: fired})
	}
}
