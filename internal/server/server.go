// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package server exposes the category graph as a read-only HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/wikicat/wikicat/internal/graph"
	"github.com/wikicat/wikicat/internal/metrics"
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
	"github.com/wikicat/wikicat/pkg/health"
)

// Store is the read side of the relational store the API serves from.
type Store interface {
	store.EdgeReader
	store.BrowseStore
	GetVersion(ctx context.Context, id int64) (*store.Version, error)
	ListVersions(ctx context.Context) ([]store.Version, error)
	GetStats(ctx context.Context, categoryID, versionID int64) (*store.Stats, error)
	Ping(ctx context.Context) error
}

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxLevels bounds level queries that do not pass a depth.
	MaxLevels int
	// Checks are probed by /health in addition to the store.
	Checks map[string]health.Check
	Logger *slog.Logger
}

// Server wraps a chi router with the huma API and the HTTP listener.
type Server struct {
	router chi.Router
	api    huma.API
	cfg    Config
	store  Store
	walker *graph.Walker
	logger *slog.Logger
}

// New creates a Server with the browsing routes, /health, /metrics and CORS.
func New(cfg Config, st Store) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, wkerr.New(wkerr.CodeServerConfigInvalid, "listen address is required")
	}
	if st == nil {
		return nil, wkerr.New(wkerr.CodeServerConfigInvalid, "store is required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.MaxLevels <= 0 {
		cfg.MaxLevels = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(corsMiddleware(cfg.CORSOrigins))

	r.Handle("/metrics", metrics.Handler())

	humaConfig := huma.DefaultConfig("wikicat", "1.0.0")
	humaConfig.Info.Description = "Versioned category graph browsing API"
	api := humachi.New(r, humaConfig)

	srv := &Server{
		router: r,
		api:    api,
		cfg:    cfg,
		store:  st,
		walker: graph.NewWalker(st),
		logger: cfg.Logger,
	}

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, srv.handleHealth)

	srv.registerRoutes()
	return srv, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API for registering additional operations.
func (s *Server) API() huma.API {
	return s.api
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return wkerr.Errorf(wkerr.CodeServerStartFailure, "listening on %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("api listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if err != nil {
			return wkerr.Errorf(wkerr.CodeServerStartFailure, "serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return wkerr.Errorf(wkerr.CodeServerShutdownFailure, "shutting down: %w", err)
	}
	return <-errCh
}

// HealthResponse wraps the health report.
type HealthResponse struct {
	Status int
	Body   health.Report
}

func (s *Server) handleHealth(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
	checks := map[string]health.Check{"store": s.store.Ping}
	for name, c := range s.cfg.Checks {
		checks[name] = c
	}

	report := health.Run(ctx, checks, 2*time.Second)
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	return &HealthResponse{Status: status, Body: report}, nil
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration", time.Since(start).String(),
				"remote", r.RemoteAddr,
			)
		})
	}
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}
