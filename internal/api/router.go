package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rosematcha/ciphermaniac/internal/api/handlers"
	"github.com/rosematcha/ciphermaniac/internal/api/response"
	"github.com/rosematcha/ciphermaniac/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	// WebSocket endpoint for refresh events
	s.router.Get("/ws", s.wsHub.ServeWs)

	// API v1 routes
	s.router.Route("/api/v1", func(r chi.Router) {
		tournamentsHandler := handlers.NewTournamentsHandler(s.engine)
		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentsHandler.List)
			r.Post("/refresh", tournamentsHandler.Refresh)
		})

		reportsHandler := handlers.NewReportsHandler(s.engine)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/", reportsHandler.Combined) // ?ids=a,b,c
			r.Get("/{tournament}", reportsHandler.Get)
		})

		cardsHandler := handlers.NewCardsHandler(s.engine)
		r.Route("/cards", func(r chi.Router) {
			r.Get("/{uid}/usage", cardsHandler.Usage)
			r.Get("/{uid}/archetype", cardsHandler.Archetype)
		})

		trendsHandler := handlers.NewTrendsHandler(s.engine)
		r.Route("/trends", func(r chi.Router) {
			r.Get("/archetypes", trendsHandler.Archetypes)
			r.Get("/cards", trendsHandler.Cards)
		})
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"service":     "ciphermaniac-api",
		"version":     version.GetVersion(),
		"refreshedAt": s.engine.RefreshedAt(),
	})
}
