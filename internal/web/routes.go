package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozaktomas/facegate/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	identitiesHandler := handlers.NewIdentitiesHandler(s.services.Registry, s.logger)
	matchHandler := handlers.NewMatchHandler(s.services.Matcher, s.services.Registry, s.config.Matching.Threshold, s.logger)
	authHandler := handlers.NewAuthHandler(s.services.Authenticator, s.logger)
	configHandler := handlers.NewConfigHandler(s.config)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/config", configHandler.Get)

		// Registry
		r.Get("/identities", identitiesHandler.List)
		r.Post("/identities", identitiesHandler.Create)
		r.Get("/identities/search", identitiesHandler.Search)
		r.Get("/identities/{id}", identitiesHandler.Get)

		// Matching
		r.Post("/match", matchHandler.Match)
		r.Post("/similarity", matchHandler.Similarity)
		r.Post("/nearest", matchHandler.Nearest)

		// Authentication
		r.Post("/authenticate", authHandler.Authenticate)
	})

	if s.services.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.services.Gatherer, promhttp.HandlerOpts{}))
	}
}
