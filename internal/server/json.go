package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/whereonearth/internal/game"
	"github.com/playperu/whereonearth/internal/whereonearth"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// errorStatuses maps the game's sentinel errors to HTTP statuses. The
// sentinel's own message is sent, never the wrapped detail.
var errorStatuses = []struct {
	err    error
	status int
}{
	{game.ErrEmptyGuess, http.StatusBadRequest},
	{game.ErrNoProvider, http.StatusBadRequest},
	{whereonearth.ErrDuplicateSubmitter, http.StatusConflict},
	{whereonearth.ErrDuplicateAnswer, http.StatusConflict},
	{whereonearth.ErrNotGuessing, http.StatusConflict},
	{whereonearth.ErrAlreadyChosen, http.StatusConflict},
	{whereonearth.ErrNoEntries, http.StatusConflict},
	{whereonearth.ErrConflict, http.StatusConflict},
	{whereonearth.ErrLocationNotFound, http.StatusUnprocessableEntity},
	{whereonearth.ErrNotFound, http.StatusNotFound},
}

func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			writeError(w, e.status, e.err.Error())
			return
		}
	}
	logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
