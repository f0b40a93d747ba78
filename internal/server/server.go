// Package server provides the HTTP API for tabemono.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/tabemono/internal/config"
	"github.com/hyperjump/tabemono/internal/tracker"
)

// Server is the HTTP server for the tabemono API.
type Server struct {
	tracker     *tracker.Tracker
	config      *config.ServerConfig
	recognition *config.RecognitionConfig
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	trk *tracker.Tracker,
	cfg *config.ServerConfig,
	rec *config.RecognitionConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		tracker:     trk,
		config:      cfg,
		recognition: rec,
		logger:      logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/foods/search", s.handleFoodSearch)
	r.Get("/api/foods/library", s.handleFoodLibrary)
	r.Post("/api/foods", s.handleAddFood)

	r.Get("/api/entries", s.handleListEntries)
	r.Post("/api/entries", s.handleLogEntry)
	r.Patch("/api/entries/{id}", s.handleEditEntry)
	r.Delete("/api/entries/{id}", s.handleDeleteEntry)

	r.Post("/api/scan-image", s.handleScanImage)

	r.Get("/api/summary", s.handleSummary)
	r.Get("/api/goals", s.handleGetGoals)
	r.Put("/api/goals", s.handleUpdateGoals)
	r.Get("/api/progress", s.handleProgress)
	r.Get("/api/stats/weekly", s.handleWeeklyStats)
	r.Get("/api/stats/lifetime", s.handleLifetimeStats)

	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
