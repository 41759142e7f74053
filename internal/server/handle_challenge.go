package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/whereonearth/internal/game"
)

func handleChallenge(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.Today(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, challengeResponse(c))
	}
}

func handleProgress(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, p, err := svc.Progress(r.Context(), r.URL.Query().Get("conversation"))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, progressResponse(c, p))
	}
}

func handleGuess(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GuessRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.UserName = strings.TrimSpace(req.UserName)
		if req.UserID == "" && req.UserName == "" {
			writeError(w, http.StatusBadRequest, "userId or userName is required")
			return
		}

		out, err := svc.SubmitGuess(r.Context(), game.Guess{
			Conversation: req.Conversation,
			UserID:       req.UserID,
			UserName:     req.UserName,
			Text:         req.Text,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		status := http.StatusOK
		if out.Kind == game.OutcomeAccepted {
			status = http.StatusCreated
		}
		writeJSON(w, status, guessResponse(out))
	}
}
