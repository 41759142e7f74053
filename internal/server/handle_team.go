package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/whereonearth/internal/game"
	"github.com/playperu/whereonearth/internal/whereonearth"
)

func handleSaveTeam(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.ID = strings.TrimSpace(req.ID)
		if req.ID == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}

		if err := svc.SaveTeam(r.Context(), whereonearth.Team(req)); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func handleReplaceMembers(logger *slog.Logger, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversation := chi.URLParam(r, "id")

		var req MembersRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		members := make([]whereonearth.Member, 0, len(req.Members))
		for _, m := range req.Members {
			name := strings.TrimSpace(m.DisplayName)
			if name == "" {
				writeError(w, http.StatusBadRequest, "every member needs a displayName")
				return
			}
			members = append(members, whereonearth.Member{ID: m.ID, DisplayName: name})
		}

		if err := store.ReplaceMembers(r.Context(), conversation, members); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		logger.Info("roster replaced", "conversation", conversation, "members", len(members))
		writeJSON(w, http.StatusOK, MembersResponse{Conversation: conversation, Count: len(members)})
	}
}
