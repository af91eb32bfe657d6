// Package api is the HTTP chassis: a chi router carrying request ID,
// recovery, and logging middleware in front of the domain handlers.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server owns the router and cross-cutting middleware.
type Server struct {
	logger *slog.Logger
	router *chi.Mux
}

// NewServer builds the router with the standard middleware chain and mounts
// the handlers. The metrics handler is optional.
func NewServer(logger *slog.Logger, handlers *Handlers, metricsHandler http.Handler) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := chi.NewRouter()
	router.Use(Recoverer(logger))
	router.Use(RequestID)
	router.Use(RequestLogger(logger))

	router.Get("/healthz", handlers.HandleHealth)
	if metricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	handlers.RegisterRoutes(router)

	return &Server{logger: logger, router: router}
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}
