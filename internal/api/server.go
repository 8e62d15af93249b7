package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/moviepick/internal/api/handlers"
	"github.com/amaumene/moviepick/internal/api/middleware"
	"github.com/amaumene/moviepick/internal/config"
	"github.com/amaumene/moviepick/internal/controllers"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	backlog *controllers.BacklogController
	rituals *controllers.RitualController
	search  *controllers.SearchController
	logger  *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	backlog *controllers.BacklogController,
	rituals *controllers.RitualController,
	search *controllers.SearchController,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		backlog: backlog,
		rituals: rituals,
		search:  search,
		logger:  logger,
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // multi-page searches are paced
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// routes configures all HTTP routes
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.Logging(s.logger))

	r.Get("/health", handlers.NewHealthHandler(s.logger).ServeHTTP)
	r.Get("/status", handlers.NewStatusHandler(s.backlog, s.rituals, s.search, s.logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	backlog := handlers.NewBacklogHandler(s.backlog, s.logger)
	rituals := handlers.NewRitualHandler(s.rituals, s.logger)
	search := handlers.NewSearchHandler(s.search, s.logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/backlog", func(r chi.Router) {
			r.Get("/", backlog.List)
			r.Post("/", backlog.Create)
			r.Get("/{id}", backlog.Get)
			r.Patch("/{id}", backlog.Patch)
		})
		r.Get("/tonight", backlog.Tonight)

		r.Route("/rituals", func(r chi.Router) {
			r.Post("/", rituals.Start)
			r.Get("/history", rituals.History)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rituals.Get)
				r.Delete("/", rituals.Abandon)
				r.Put("/ballots/{user}", rituals.Ballot)
				r.Post("/tally", rituals.Tally)
				r.Post("/runoff", rituals.Runoff)
				r.Get("/draw", rituals.Draw)
				r.Post("/commit", rituals.Commit)
				r.Post("/reset", rituals.Reset)
			})
		})

		r.Get("/search", search.Search)
		r.Post("/search/propose", search.Propose)
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
