package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hostcampaign/site/internal/config"
)

// Server represents the campaign site HTTP server
type Server struct {
	config   config.ServerConfig
	handler  http.Handler
	handlers *Handlers
	health   *HealthChecker
	server   *http.Server
	router   *chi.Mux
}

// NewServer creates a new site server
func NewServer(cfg config.ServerConfig, handlers *Handlers, health *HealthChecker) *Server {
	router := SetupRoutes(cfg, handlers, health)

	return &Server{
		config:   cfg,
		handler:  router,
		handlers: handlers,
		health:   health,
		router:   router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Lookup and generate handlers wait for the collaborator call, which
		// can take as long as the configured contact_mp timeout.
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
