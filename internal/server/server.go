// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer: it connects handlers, middleware, and
// routes, and owns the database connection for the life of the process.
//
// DEPENDENCY INJECTION FLOW:
//
//	cli serve creates:  config + llm.Client → server.New
//	server.New creates: sqlite.DB → Identity/History/ReviewService → ReviewHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/code-review-assistant/internal/auth"
	"github.com/sakif/code-review-assistant/internal/config"
	"github.com/sakif/code-review-assistant/internal/handler"
	"github.com/sakif/code-review-assistant/internal/llm"
	"github.com/sakif/code-review-assistant/internal/middleware"
	sqliteRepo "github.com/sakif/code-review-assistant/internal/repository/sqlite"
	"github.com/sakif/code-review-assistant/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish on shutdown.
// Review requests wait on the model, so this is longer than a typical API.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection. Start closes it on the way out so
// pending writes are flushed and the file lock is released.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
	model  llm.Client
}

// New creates a Server. model is the raw generative client; New bounds it
// with cfg.ModelTimeout.
func New(cfg *config.Config, model llm.Client, logger *slog.Logger) (*Server, error) {
	if err := cfg.RequireJWTSecret(); err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
		model:  llm.WithTimeout(model, cfg.ModelTimeout),
	}
	s.setupRoutes()

	return s, nil
}

// OpenDB opens the SQLite database at path, creating its directory first.
// ":memory:" is passed through untouched.
func OpenDB(path string) (*sqliteRepo.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /review-code    → Review an uploaded file (bearer)
// POST   /user/sync      → Copy token claims onto the user (bearer)
// GET    /user/history   → The caller's reviews, oldest first (bearer)
// GET    /public/health  → Liveness + database ping
// GET    /metrics        → Prometheus exposition
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: request-scoped logger + one line per request
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS: answers preflight requests from the frontend before auth runs
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", chimiddleware.RequestIDHeader},
		ExposedHeaders:   []string{chimiddleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// DEPENDENCY CHAIN:
	//   s.db (sqlite.DB) → implements repository.UserRepository
	//   services receive the repository interface
	//   ReviewHandler receives the services through small interfaces
	identities := service.NewIdentityService(s.db, s.logger)
	history := service.NewHistoryService(s.db, s.logger)
	reviews := service.NewReviewService(identities, history, s.model, s.logger)

	reviewHandler := handler.NewReviewHandler(reviews, identities, history, s.config.MaxUploadBytes, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/public/health", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(s.tokens))

		r.Post("/review-code", reviewHandler.HandleReviewCode)
		r.Route("/user", func(r chi.Router) {
			r.Post("/sync", reviewHandler.HandleSync)
			r.Get("/history", reviewHandler.HandleHistory)
		})
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database connection.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (shutdownTimeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	// WriteTimeout must outlast the model call or slow reviews get cut off
	// mid-response.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.ModelTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("model", s.config.OpenAIModel),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
