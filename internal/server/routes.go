package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/whereonearth/internal/game"
)

// Deps are the collaborators the HTTP surface is built on.
type Deps struct {
	Service *game.Service
	Store   *Store
	Broker  *Broker

	// OperatorKeyHash guards the operator routes; empty disables the check.
	OperatorKeyHash string
}

func AddRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Where On Earth API", "/openapi.json", "/docs"))
	r.Get("/ws/feed", handleFeed(logger, d.Broker))

	r.Route("/api", func(r chi.Router) {
		r.Get("/challenge", handleChallenge(logger, d.Service))
		r.Get("/challenge/progress", handleProgress(logger, d.Service))
		r.Post("/challenge/guesses", handleGuess(logger, d.Service))
		r.Get("/events", handleEvents(d.Broker))

		// Operator routes.
		r.Group(func(r chi.Router) {
			r.Use(operatorMiddleware(d.OperatorKeyHash))

			r.Post("/challenge/propose", handlePropose(logger, d.Service))
			r.Post("/challenge/next-image", handleNextImage(logger, d.Service))
			r.Post("/challenge/source", handleSwitchSource(logger, d.Service))
			r.Post("/challenge/choose", handleChoose(logger, d.Service))
			r.Post("/challenge/results", handleResults(logger, d.Service))

			r.Put("/team", handleSaveTeam(logger, d.Service))
			r.Put("/conversations/{id}/members", handleReplaceMembers(logger, d.Store))

			r.Post("/triggers/challenge", handleTrigger(logger, "challenge", d.Service.TriggerChallenge))
			r.Post("/triggers/reminder", handleTrigger(logger, "reminder", d.Service.TriggerReminder))
			r.Post("/triggers/results", handleTrigger(logger, "results", d.Service.TriggerResults))
		})
	})
}
