// Package server exposes the engine's state over a small read-only
// HTTP surface for external monitoring.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/gosuda/ambler/internal/config"
	"github.com/gosuda/ambler/internal/engine"
)

// Server is the status HTTP server. It reads engine state and never
// mutates it.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	engine     *engine.Engine
}

// HealthOutput is the JSON health document.
type HealthOutput struct {
	Body engine.Status
}

// New creates a Server with all routes wired.
func New(cfg *config.Config, eng *engine.Engine) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "X-Request-ID"},
		MaxAge:         300,
	}).Handler)

	s := &Server{
		router: router,
		engine: eng,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Typed health endpoint. The OpenAPI/docs routes are disabled so
	// unmatched paths stay 404.
	apiConfig := huma.Config{
		OpenAPI: &huma.OpenAPI{
			OpenAPI: "3.1.0",
			Info: &huma.Info{
				Title:   "Ambler Status API",
				Version: "1.0.0",
			},
			Components: &huma.Components{
				Schemas: huma.NewMapRegistry("#/components/schemas/", huma.DefaultSchemaNamer),
			},
		},
		Formats:       huma.DefaultFormats,
		DefaultFormat: "application/json",
	}
	api := humachi.New(router, apiConfig)

	huma.Get(api, "/health", s.health)
	huma.Get(api, "/", s.health)

	router.Get("/status", s.statusText)

	return s
}

func (s *Server) health(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	return &HealthOutput{Body: s.engine.Status()}, nil
}

// statusText renders the same statistics as a human-readable page.
func (s *Server) statusText(w http.ResponseWriter, _ *http.Request) {
	st := s.engine.Status()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ambler status\n\n")
	fmt.Fprintf(w, "state:        %s\n", st.State)
	fmt.Fprintf(w, "healthy:      %t\n", st.Healthy)
	fmt.Fprintf(w, "uptime:       %s\n", st.Uptime)
	fmt.Fprintf(w, "total:        %d\n", st.Stats.Total)
	fmt.Fprintf(w, "successes:    %d\n", st.Stats.Successes)
	fmt.Fprintf(w, "errors:       %d\n", st.Stats.Errors)
	fmt.Fprintf(w, "success rate: %s\n", st.Stats.SuccessRate)
	fmt.Fprintf(w, "message:      %s\n", st.Message)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
