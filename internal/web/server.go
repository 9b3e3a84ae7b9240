// Package web provides the HTTP conversion service.
//
// Clients POST a wide MCAS export and receive the canonical long-format CSV
// in the response body. The subject catalog and output columns are exposed
// read-only so callers can check what an export must contain.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/mcasconvert/internal/batch"
	"github.com/JonMunkholm/mcasconvert/internal/config"
	"github.com/JonMunkholm/mcasconvert/internal/core"
	mw "github.com/JonMunkholm/mcasconvert/internal/web/middleware"
)

// Pinger reports whether a backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the conversion service.
type Server struct {
	cfg      config.ServerConfig
	pipeline *core.Pipeline
	sink     batch.Sink // Optional
	db       Pinger     // Optional
	limiter  *ConversionLimiter
	router   *chi.Mux
	server   *http.Server
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithSink stores converted rows when a request asks for it with ?store=true.
func WithSink(sink batch.Sink) Option {
	return func(s *Server) { s.sink = sink }
}

// WithHealthCheck includes db in /healthz.
func WithHealthCheck(db Pinger) Option {
	return func(s *Server) { s.db = db }
}

// NewServer creates a new Server instance. p is the default pipeline; a
// request may override its subjects or policy.
func NewServer(cfg config.ServerConfig, p *core.Pipeline, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: p,
		limiter:  NewConversionLimiter(cfg.MaxConcurrent, cfg.QueueWait),
		router:   chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Catalog
		r.Get("/subjects", s.handleListSubjects)
		r.Get("/columns", s.handleListColumns)

		// Conversion
		r.Post("/convert", s.handleConvert)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.cfg.Addr())
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
// The service serves no HTML, so nothing may be loaded or framed.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
