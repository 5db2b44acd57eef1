package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	r.Get("/metrics", g.metrics.handler())

	// Candidate-facing interview API.
	r.Route("/v1/interviews", func(r chi.Router) {
		r.Post("/", g.handleCreateInterview())
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", g.handleGetInterview())
			r.Delete("/", g.handleAbandonInterview())
			r.Post("/turns", g.handleTurn())
			r.Get("/live", g.handleLive())
		})
	})

	// Admin endpoints require auth and are not mounted without it.
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth))
			r.Get("/status", g.handleStatus())
			r.Route("/api", func(r chi.Router) {
				r.Get("/sessions", g.handleListSessions())
				r.Delete("/sessions/{id}", g.handleDeleteSession())
			})
		})
	}

	return r
}
