// Package server exposes the layout pipeline and the layout store over HTTP.
//
// Routes:
//
//	GET    /health
//	POST   /v1/layout                  events → layout JSON
//	POST   /v1/render?format=svg       events → artifact
//	POST   /v1/layouts                 events → stored layout document
//	GET    /v1/layouts                 list stored layouts
//	GET    /v1/layouts/{id}            stored layout document
//	DELETE /v1/layouts/{id}
//	GET    /v1/layouts/{id}/render     stored layout → artifact
//
// Request bodies are event files in JSON (default), YAML or TOML, chosen by
// Content-Type. Errors are JSON objects {"code", "message"} with the status
// derived from the error code.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/dayview/pkg/pipeline"
	"github.com/matzehuels/dayview/pkg/store"
)

// DefaultMaxBodyBytes limits request bodies.
const DefaultMaxBodyBytes = 1 << 20

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Username and Password enable HTTP basic auth when both are set.
	// /health is always public.
	Username string
	Password string

	// MaxBodyBytes limits request bodies; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// Defaults are applied to every request before query parameters.
	Defaults pipeline.Options
}

// Server serves the HTTP API.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	router chi.Router
}

// New builds a server. A nil store means an in-memory store.
func New(cfg Config, runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		store:  st,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.basicAuthEnabled() {
			r.Use(s.basicAuth)
		}
		r.Route("/v1", func(r chi.Router) {
			r.Post("/layout", s.handleLayout)
			r.Post("/render", s.handleRender)

			r.Route("/layouts", func(r chi.Router) {
				r.Post("/", s.handleCreateLayout)
				r.Get("/", s.handleListLayouts)
				r.Get("/{id}", s.handleGetLayout)
				r.Delete("/{id}", s.handleDeleteLayout)
				r.Get("/{id}/render", s.handleRenderStored)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, s.logger, notFoundError(r.URL.Path))
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr, "auth", s.basicAuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
