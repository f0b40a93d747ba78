package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperjump/tabemono/internal/models"
)

// JSONStore persists entries and goals to two JSON files. Writes are atomic
// (temp file + rename) so a crash mid-write never leaves a torn log.
type JSONStore struct {
	entriesPath string
	goalsPath   string
}

// entryRecord is the on-disk shape of a log entry; the food is denormalized
// into the record so the log file stands alone.
type entryRecord struct {
	ID             string             `json:"id"`
	Food           string             `json:"food"`
	ServingSize    string             `json:"serving_size"`
	Calories       float64            `json:"calories"`
	Macronutrients map[string]float64 `json:"macronutrients"`
	Aliases        []string           `json:"aliases"`
	Quantity       float64            `json:"quantity"`
	Timestamp      time.Time          `json:"timestamp"`
}

// NewJSONStore creates a store writing to the given file paths; parent
// directories are created as needed.
func NewJSONStore(entriesPath, goalsPath string) (*JSONStore, error) {
	for _, path := range []string{entriesPath, goalsPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	return &JSONStore{entriesPath: entriesPath, goalsPath: goalsPath}, nil
}

// SaveEntries writes the full entry list.
func (s *JSONStore) SaveEntries(ctx context.Context, entries []models.FoodEntry) error {
	records := make([]entryRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, entryRecord{
			ID:             entry.ID,
			Food:           entry.Food.Name,
			ServingSize:    entry.Food.ServingSize,
			Calories:       entry.Food.Calories,
			Macronutrients: entry.Food.Macronutrients,
			Aliases:        entry.Food.Aliases,
			Quantity:       entry.Quantity,
			Timestamp:      entry.Timestamp,
		})
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}
	return writeFileAtomic(s.entriesPath, data)
}

// LoadEntries reads the entry list; a missing file means an empty log.
func (s *JSONStore) LoadEntries(ctx context.Context) ([]models.FoodEntry, error) {
	data, err := os.ReadFile(s.entriesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read entries: %w", err)
	}
	var records []entryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse entries: %w", err)
	}
	entries := make([]models.FoodEntry, 0, len(records))
	for _, record := range records {
		macros := record.Macronutrients
		if macros == nil {
			macros = map[string]float64{}
		}
		entries = append(entries, models.FoodEntry{
			ID: record.ID,
			Food: models.FoodItem{
				Name:           record.Food,
				ServingSize:    record.ServingSize,
				Calories:       record.Calories,
				Macronutrients: macros,
				Aliases:        record.Aliases,
			},
			Quantity:  record.Quantity,
			Timestamp: record.Timestamp,
		})
	}
	return entries, nil
}

// SaveGoals writes the nutrition goals.
func (s *JSONStore) SaveGoals(ctx context.Context, goals models.NutritionGoals) error {
	data, err := json.MarshalIndent(goals, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal goals: %w", err)
	}
	return writeFileAtomic(s.goalsPath, data)
}

// LoadGoals reads the nutrition goals; a missing file means no goals set.
func (s *JSONStore) LoadGoals(ctx context.Context) (models.NutritionGoals, error) {
	data, err := os.ReadFile(s.goalsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NutritionGoals{}, nil
		}
		return models.NutritionGoals{}, fmt.Errorf("read goals: %w", err)
	}
	var goals models.NutritionGoals
	if err := json.Unmarshal(data, &goals); err != nil {
		return models.NutritionGoals{}, fmt.Errorf("parse goals: %w", err)
	}
	return goals, nil
}

// Close is a no-op for JSONStore.
func (s *JSONStore) Close() error {
	return nil
}

// writeFileAtomic writes data to path via a temp file in the same directory
// followed by a rename.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".write-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
