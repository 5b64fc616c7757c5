// Package server exposes the renderers over HTTP.
//
// Expected render failures (bad input syntax, a missing tool, a timeout) are
// returned as 200 responses with success=false and an error code. Non-2xx
// statuses are reserved for requests that cannot be dispatched: malformed
// JSON, empty required fields, unknown citation styles, the wrong content
// type, the rate limit and internal errors.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/Kevin-nav/sankosides-sub000/internal/app"
	"github.com/Kevin-nav/sankosides-sub000/pkg/observability"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app     *app.App
	server  *http.Server
	logger  *log.Logger
	stats   *Stats
	maxBody int64
}

// New creates the HTTP server and registers its stats collector as the
// render hooks.
func New(a *app.App) *Server {
	cfg := a.Config.Server
	s := &Server{
		app:     a,
		logger:  a.Logger.WithPrefix("http"),
		stats:   NewStats(),
		maxBody: cfg.MaxBodyBytes,
	}
	observability.SetRenderHooks(s.stats)

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(limiter),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(limiter *rate.Limiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(correlationIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoveryMiddleware(s.logger))
	r.Use(countMiddleware(s.stats))

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Get("/health", s.handleHealth)

	r.Route("/render", func(r chi.Router) {
		r.Get("/registry", s.handleRegistry)

		r.Group(func(r chi.Router) {
			r.Use(rateLimitMiddleware(limiter))
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/latex", s.handleLatex)
			r.Post("/mermaid", s.handleMermaid)
			r.Post("/tikz", s.handleTikz)
			r.Post("/citation", s.handleCitation)
			r.Post("/code", s.handleCode)
			r.Post("/dot", s.handleDot)
			r.Post("/batch", s.handleBatch)
		})
	})
	return r
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Stats returns the live counters.
func (s *Server) Stats() *Stats {
	return s.stats
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.server.Addr)
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.app.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down", "timeout", timeout)
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
