// Package storage persists food log entries and nutrition goals.
package storage

import (
	"context"
	"fmt"

	"github.com/hyperjump/tabemono/internal/config"
	"github.com/hyperjump/tabemono/internal/models"
)

// Store persists the food log and goals. Writes replace the full state: the
// tracker owns the authoritative in-memory list and saves it after every
// mutation, mirroring the small, single-user data volumes involved.
type Store interface {
	SaveEntries(ctx context.Context, entries []models.FoodEntry) error
	LoadEntries(ctx context.Context) ([]models.FoodEntry, error)
	SaveGoals(ctx context.Context, goals models.NutritionGoals) error
	LoadGoals(ctx context.Context) (models.NutritionGoals, error)
	Close() error
}

// New creates the store selected by cfg.Backend: "json" (default) or "sqlite".
func New(cfg *config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "json", "":
		return NewJSONStore(cfg.EntriesPath, cfg.GoalsPath)
	case "sqlite":
		return NewSQLiteStore(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: json, sqlite)", cfg.Backend)
	}
}
