package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/whereonearth/internal/game"
	"github.com/playperu/whereonearth/internal/whereonearth"
)

func imageResponse(img whereonearth.Image) ImageResponse {
	return ImageResponse{PhotoURL: img.URL, Region: img.Region}
}

func handlePropose(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := svc.ProposeImage(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, imageResponse(img))
	}
}

func handleNextImage(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := svc.NextImage(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, imageResponse(img))
	}
}

func handleSwitchSource(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SourceRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		source, ok := whereonearth.LookupImageSource(req.Source)
		if !ok {
			writeError(w, http.StatusBadRequest, "source must be Bing or Google")
			return
		}

		img, err := svc.SwitchSource(r.Context(), source)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, imageResponse(img))
	}
}

func handleChoose(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.ChooseImage(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, challengeResponse(c))
	}
}

func handleResults(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.CheckResults(r.Context(), r.URL.Query().Get("conversation"))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, challengeResponse(c))
	}
}
