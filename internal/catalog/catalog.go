// Package catalog owns the ordered, append-only collection of known food items.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hyperjump/tabemono/internal/models"
	"go.uber.org/zap"
)

// ErrDuplicateItem is returned when registering an item whose
// case-insensitive name already exists in the catalog.
var ErrDuplicateItem = errors.New("catalog: item with this name already exists")

// Record is a raw catalog entry as it appears in the catalog file. Calories
// is a pointer so that a missing field can be told apart from zero.
type Record struct {
	Name           string             `json:"name"`
	ServingSize    string             `json:"serving_size"`
	Calories       *float64           `json:"calories"`
	Macronutrients map[string]float64 `json:"macronutrients"`
	Aliases        []string           `json:"aliases"`
}

// Store holds catalog items in insertion order. Items are never removed;
// appends bump the version so embedding caches can detect stale snapshots.
type Store struct {
	mu      sync.RWMutex
	items   []models.FoodItem
	byName  map[string]int
	custom  []models.FoodItem
	version uint64
	logger  *zap.Logger
}

// NewStore creates an empty catalog.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		byName:  make(map[string]int),
		version: 1,
		logger:  logger,
	}
}

// LoadFile reads a JSON array of records from path and builds a catalog.
// Malformed records are skipped with a warning; a missing or unparseable
// file is an error.
func LoadFile(path string, logger *zap.Logger) (*Store, error) {
	store := NewStore(logger)
	if err := store.loadFile(path); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	s.Load(records)
	return nil
}

// Load appends all valid records to the catalog. A record missing required
// fields or carrying negative amounts is skipped with a warning; load never
// fails on a single bad record.
func (s *Store) Load(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, record := range records {
		item, err := validate(record)
		if err != nil {
			s.logger.Warn("skipping malformed catalog record",
				zap.Int("index", i),
				zap.String("name", record.Name),
				zap.Error(err))
			continue
		}
		if _, exists := s.byName[models.NormalizedName(item.Name)]; exists {
			s.logger.Warn("skipping duplicate catalog record",
				zap.Int("index", i),
				zap.String("name", record.Name))
			continue
		}
		s.appendLocked(item)
	}
	s.version++
}

func validate(record Record) (models.FoodItem, error) {
	if models.NormalizedName(record.Name) == "" {
		return models.FoodItem{}, errors.New("missing name")
	}
	if record.ServingSize == "" {
		return models.FoodItem{}, errors.New("missing serving size")
	}
	if record.Calories == nil {
		return models.FoodItem{}, errors.New("missing calories")
	}
	if *record.Calories < 0 {
		return models.FoodItem{}, errors.New("negative calories")
	}
	for nutrient, amount := range record.Macronutrients {
		if amount < 0 {
			return models.FoodItem{}, fmt.Errorf("negative amount for %s", nutrient)
		}
	}
	macros := record.Macronutrients
	if macros == nil {
		macros = map[string]float64{}
	}
	return models.FoodItem{
		Name:           record.Name,
		ServingSize:    record.ServingSize,
		Calories:       *record.Calories,
		Macronutrients: macros,
		Aliases:        append([]string(nil), record.Aliases...),
	}, nil
}

func (s *Store) appendLocked(item models.FoodItem) {
	s.byName[models.NormalizedName(item.Name)] = len(s.items)
	s.items = append(s.items, item)
}

// Add appends an item to the end of the catalog. Ordering is preserved for
// deterministic alignment with any cached embedding matrix.
func (s *Store) Add(item models.FoodItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := models.NormalizedName(item.Name)
	if name == "" {
		return errors.New("catalog: item name is empty")
	}
	if _, exists := s.byName[name]; exists {
		return ErrDuplicateItem
	}
	if item.Macronutrients == nil {
		item.Macronutrients = map[string]float64{}
	}
	s.appendLocked(item)
	s.custom = append(s.custom, item)
	s.version++
	return nil
}

// Items returns the ordered sequence of catalog items. The returned slice is
// a copy and stable across calls for a given version.
func (s *Store) Items() []models.FoodItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.FoodItem, len(s.items))
	copy(items, s.items)
	return items
}

// Len returns the number of items in the catalog.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version identifies the current catalog snapshot. It increases on every
// load, reload, or append.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// ReloadFile replaces the file-backed portion of the catalog from path and
// re-appends items that were registered at runtime, so registration survives
// catalog file edits.
func (s *Store) ReloadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	custom := s.custom
	s.items = nil
	s.custom = nil
	s.byName = make(map[string]int)
	for i, record := range records {
		item, err := validate(record)
		if err != nil {
			s.logger.Warn("skipping malformed catalog record",
				zap.Int("index", i),
				zap.String("name", record.Name),
				zap.Error(err))
			continue
		}
		if _, exists := s.byName[models.NormalizedName(item.Name)]; exists {
			continue
		}
		s.appendLocked(item)
	}
	for _, item := range custom {
		if _, exists := s.byName[models.NormalizedName(item.Name)]; exists {
			continue
		}
		s.appendLocked(item)
		s.custom = append(s.custom, item)
	}
	s.version++
	return nil
}
