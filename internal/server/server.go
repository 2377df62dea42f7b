// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and routes,
// and decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// cmd/server creates:
//
//	config.Config + *sqlx.DB + *slog.Logger → server.New
//	server.New creates: ArticleService(db) → ArticleHandler(service)
//
// This is the "composition root" pattern: all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
// The database is opened by the caller and handed in, so the same pool can
// be shared with the migrate command and closed by whoever opened it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/blogful/internal/config"
	"github.com/sakif/blogful/internal/handler"
	"github.com/sakif/blogful/internal/middleware"
	"github.com/sakif/blogful/internal/service"
)

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router   *chi.Mux
	config   config.HTTPConfig
	logger   *slog.Logger
	db       *sqlx.DB
	registry *prometheus.Registry // owned here so tests get a fresh one per server
}

// New creates a new Server and wires every route.
//
// Each layer only receives what it needs:
// - Service gets the connection (not the config)
// - Handler gets the service (not the connection)
func New(cfg config.HTTPConfig, db *sqlx.DB, logger *slog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}

	// Process and Go runtime collectors, as the default registry would have.
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, "blogful"),
	)

	s.setupRoutes()
	return s
}

// Handler returns the fully wired router. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                      → Greeting (text/plain)
// GET    /healthz               → Database ping
// GET    /metrics               → Prometheus exposition
// GET    /api/articles          → List articles (JSON)
// POST   /api/articles          → Create article (JSON)
// GET    /api/articles/{id}     → Get single article (JSON)
// PATCH  /api/articles/{id}     → Partial update (JSON)
// DELETE /api/articles/{id}     → Delete article
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID: assigns unique ID to each request
// 2. RealIP: extracts real client IP from proxy headers
// 3. Tracing: starts the server span, so everything below is inside it
// 4. Logger and Metrics: see the final status code, including a recovered panic's 500
// 5. Recoverer: catches panics and returns 500 instead of crashing
func (s *Server) setupRoutes() {
	metrics := middleware.NewHTTPMetrics(s.registry)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Tracing)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(chimiddleware.Recoverer)

	// === Page Routes ===
	s.router.Get("/", handler.HandleGreeting)

	// === Operational Routes ===
	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// === API Routes ===
	// DEPENDENCY CHAIN:
	//   s.db (*sqlx.DB) → satisfies repository.Conn
	//   ArticleService receives the connection
	//   ArticleHandler receives the service
	//
	// The handler never touches the database directly.
	// The service never touches HTTP.
	articleService := service.NewArticleService(s.db, s.logger)
	articleHandler := handler.NewArticleHandler(articleService, s.logger)

	s.router.Route("/api/articles", func(r chi.Router) {
		r.Get("/", articleHandler.HandleList)
		r.Post("/", articleHandler.HandleCreate)
		r.Get("/{id}", articleHandler.HandleGet)
		r.Patch("/{id}", articleHandler.HandleUpdate)
		r.Delete("/{id}", articleHandler.HandleDelete)
	})
}

// Start starts the HTTP server and blocks until it stops.
//
// GRACEFUL SHUTDOWN:
// On SIGINT/SIGTERM, or when ctx is cancelled:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (up to ShutdownTimeout)
//
// Closing the database is left to whoever opened it.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine (so it doesn't block)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.db.DriverName()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	// Block until we receive a signal, a cancellation, or a server error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	case <-ctx.Done():
		s.logger.Info("shutdown requested", slog.String("reason", context.Cause(ctx).Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
