// Package tracker keeps the food log: entries, daily summaries, goals, and
// history statistics. It owns the authoritative in-memory state and writes it
// through to the configured store after each mutation.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/tabemono/internal/models"
	"github.com/hyperjump/tabemono/internal/recognize"
	"github.com/hyperjump/tabemono/internal/storage"
)

// ErrEntryNotFound is returned when an entry ID does not exist in the log.
var ErrEntryNotFound = errors.New("entry not found")

// Tracker combines the recognition engine with persistent log state.
type Tracker struct {
	engine *recognize.Engine
	store  storage.Store
	logger *zap.Logger

	mu      sync.RWMutex
	entries []models.FoodEntry
	goals   models.NutritionGoals

	now func() time.Time
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithNow overrides the clock, used by tests to pin timestamps.
func WithNow(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// New creates a tracker and loads any persisted entries and goals.
func New(ctx context.Context, engine *recognize.Engine, store storage.Store, logger *zap.Logger, opts ...Option) (*Tracker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		engine: engine,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	entries, err := store.LoadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	goals, err := store.LoadGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	t.entries = entries
	t.goals = goals
	logger.Info("tracker loaded", zap.Int("entries", len(entries)))
	return t, nil
}

// ScanDescription ranks catalog candidates for a free-text food description.
func (t *Tracker) ScanDescription(text string, topK int) []models.Candidate {
	return t.engine.Recognize(text, topK)
}

// ScanImage ranks catalog candidates for a photo.
func (t *Tracker) ScanImage(ctx context.Context, image []byte, topK int) ([]models.Candidate, error) {
	return t.engine.RecognizeImage(ctx, image, topK)
}

// RegisterCustomFood adds a user-defined food to the catalog so that future
// scans can match it.
func (t *Tracker) RegisterCustomFood(item models.FoodItem) (models.FoodItem, error) {
	return t.engine.RegisterItem(item)
}

// KnownFoods returns the full catalog in insertion order.
func (t *Tracker) KnownFoods() []models.FoodItem {
	return t.engine.KnownItems()
}

// LogFood records the consumption of a known food by name. The name must
// match a catalog item's name or alias exactly (case-insensitive); use
// ScanDescription first for fuzzy lookups. quantity must be positive.
func (t *Tracker) LogFood(ctx context.Context, name string, quantity float64) (models.FoodEntry, error) {
	if quantity <= 0 {
		return models.FoodEntry{}, fmt.Errorf("quantity must be positive, got %v", quantity)
	}
	var food *models.FoodItem
	for _, item := range t.engine.KnownItems() {
		if item.Matches(name) {
			found := item
			food = &found
			break
		}
	}
	if food == nil {
		return models.FoodEntry{}, fmt.Errorf("unknown food %q", name)
	}
	return t.appendEntry(ctx, *food, quantity)
}

// ManualEntry records the consumption of a food that is not in the catalog,
// with caller-supplied nutrition facts.
func (t *Tracker) ManualEntry(ctx context.Context, item models.FoodItem, quantity float64) (models.FoodEntry, error) {
	if item.Name == "" {
		return models.FoodEntry{}, errors.New("food name is required")
	}
	if quantity <= 0 {
		return models.FoodEntry{}, fmt.Errorf("quantity must be positive, got %v", quantity)
	}
	if item.Macronutrients == nil {
		item.Macronutrients = map[string]float64{}
	}
	return t.appendEntry(ctx, item, quantity)
}

func (t *Tracker) appendEntry(ctx context.Context, food models.FoodItem, quantity float64) (models.FoodEntry, error) {
	entry := models.FoodEntry{
		ID:        uuid.New().String(),
		Food:      food,
		Quantity:  quantity,
		Timestamp: t.now().UTC(),
	}

	t.mu.Lock()
	t.entries = append(t.entries, entry)
	snapshot := make([]models.FoodEntry, len(t.entries))
	copy(snapshot, t.entries)
	t.mu.Unlock()

	if err := t.store.SaveEntries(ctx, snapshot); err != nil {
		return models.FoodEntry{}, fmt.Errorf("save entries: %w", err)
	}
	t.logger.Debug("entry logged",
		zap.String("food", food.Name), zap.Float64("quantity", quantity))
	return entry, nil
}

// RemoveEntry deletes an entry by ID.
func (t *Tracker) RemoveEntry(ctx context.Context, id string) error {
	t.mu.Lock()
	idx := -1
	for i := range t.entries {
		if t.entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.mu.Unlock()
		return ErrEntryNotFound
	}
	t.entries = append(t.entries[:idx], t.entries[idx+1:]...)
	snapshot := make([]models.FoodEntry, len(t.entries))
	copy(snapshot, t.entries)
	t.mu.Unlock()

	if err := t.store.SaveEntries(ctx, snapshot); err != nil {
		return fmt.Errorf("save entries: %w", err)
	}
	return nil
}

// EditEntry changes the quantity of an existing entry.
func (t *Tracker) EditEntry(ctx context.Context, id string, quantity float64) (models.FoodEntry, error) {
	if quantity <= 0 {
		return models.FoodEntry{}, fmt.Errorf("quantity must be positive, got %v", quantity)
	}
	t.mu.Lock()
	idx := -1
	for i := range t.entries {
		if t.entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.mu.Unlock()
		return models.FoodEntry{}, ErrEntryNotFound
	}
	t.entries[idx].Quantity = quantity
	updated := t.entries[idx]
	snapshot := make([]models.FoodEntry, len(t.entries))
	copy(snapshot, t.entries)
	t.mu.Unlock()

	if err := t.store.SaveEntries(ctx, snapshot); err != nil {
		return models.FoodEntry{}, fmt.Errorf("save entries: %w", err)
	}
	return updated, nil
}

// Entries returns a copy of the full log in insertion order.
func (t *Tracker) Entries() []models.FoodEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := make([]models.FoodEntry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// EntriesForDay returns the entries logged on the given UTC calendar day.
func (t *Tracker) EntriesForDay(day time.Time) []models.FoodEntry {
	day = models.DateOf(day)
	t.mu.RLock()
	defer t.mu.RUnlock()
	var entries []models.FoodEntry
	for _, entry := range t.entries {
		if models.DateOf(entry.Timestamp) == day {
			entries = append(entries, entry)
		}
	}
	return entries
}

// DailySummary builds the per-day log for the given day.
func (t *Tracker) DailySummary(day time.Time) models.DailyLog {
	log := models.DailyLog{Day: models.DateOf(day)}
	log.Entries = t.EntriesForDay(day)
	return log
}

// Goals returns the current nutrition goals.
func (t *Tracker) Goals() models.NutritionGoals {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.goals
}

// UpdateGoals merges the provided targets into the current goals and
// persists the result. Non-positive values clear the corresponding target.
func (t *Tracker) UpdateGoals(ctx context.Context, calories *float64, macros map[string]float64) (models.NutritionGoals, error) {
	t.mu.Lock()
	t.goals = t.goals.Merge(calories, macros)
	merged := t.goals
	t.mu.Unlock()

	if err := t.store.SaveGoals(ctx, merged); err != nil {
		return models.NutritionGoals{}, fmt.Errorf("save goals: %w", err)
	}
	return merged, nil
}

// ClearGoals removes all targets.
func (t *Tracker) ClearGoals(ctx context.Context) error {
	t.mu.Lock()
	t.goals = models.NutritionGoals{}
	t.mu.Unlock()
	if err := t.store.SaveGoals(ctx, models.NutritionGoals{}); err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}

// ProgressForDay compares the day's consumption against the current goals.
// Metrics without a target carry nil remaining/progress fields.
func (t *Tracker) ProgressForDay(day time.Time) models.ProgressReport {
	log := t.DailySummary(day)
	goals := t.Goals()

	report := models.ProgressReport{
		Day:            log.Day.Format("2006-01-02"),
		Macronutrients: make(map[string]models.ProgressMetric),
	}
	report.Calories = progressMetric(goals.Calories, log.TotalCalories())

	consumed := log.TotalMacros()
	for nutrient, target := range goals.CleanedMacros() {
		tgt := target
		report.Macronutrients[nutrient] = progressMetric(&tgt, consumed[nutrient])
	}
	return report
}

func progressMetric(target *float64, consumed float64) models.ProgressMetric {
	metric := models.ProgressMetric{Consumed: consumed}
	if target != nil && *target > 0 {
		tgt := *target
		remaining := tgt - consumed
		progress := consumed / tgt
		metric.Target = &tgt
		metric.Remaining = &remaining
		metric.Progress = &progress
	}
	return metric
}

// WeeklyOverview summarizes the last seven days ending today, oldest first.
func (t *Tracker) WeeklyOverview() models.WeeklyOverview {
	today := models.DateOf(t.now())
	overview := models.WeeklyOverview{}

	var totalCalories float64
	for offset := 6; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		log := t.DailySummary(day)
		summary := models.DaySummary{
			Day:            day.Format("2006-01-02"),
			Calories:       log.TotalCalories(),
			Macronutrients: log.TotalMacros(),
			EntryCount:     len(log.Entries),
		}
		if summary.EntryCount > 0 {
			overview.ActiveDays++
			totalCalories += summary.Calories
		}
		overview.Days = append(overview.Days, summary)
	}
	if overview.ActiveDays > 0 {
		overview.AverageCalories = totalCalories / float64(overview.ActiveDays)
	}
	overview.CurrentStreak = t.LoggingStreak()
	return overview
}

// LoggingStreak counts consecutive days with at least one entry, walking
// back from today. An unlogged today ends the streak at zero.
func (t *Tracker) LoggingStreak() int {
	t.mu.RLock()
	days := make(map[time.Time]bool)
	for _, entry := range t.entries {
		days[models.DateOf(entry.Timestamp)] = true
	}
	t.mu.RUnlock()

	day := models.DateOf(t.now())
	streak := 0
	for days[day] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// LifetimeStats summarizes the full logging history.
func (t *Tracker) LifetimeStats() models.LifetimeStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := models.LifetimeStats{TotalEntries: len(t.entries)}
	if len(t.entries) == 0 {
		return stats
	}

	counts := make(map[string]int)
	var first time.Time
	for i := range t.entries {
		entry := &t.entries[i]
		stats.TotalCalories += entry.Calories()
		counts[models.NormalizedName(entry.Food.Name)]++
		if first.IsZero() || entry.Timestamp.Before(first) {
			first = entry.Timestamp
		}
	}
	stats.UniqueFoods = len(counts)
	stats.FirstEntry = &first

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	top := models.FoodCount{}
	for _, name := range names {
		if counts[name] > top.Count {
			top = models.FoodCount{Name: name, Count: counts[name]}
		}
	}
	stats.MostLoggedFood = &top
	return stats
}

// Close flushes nothing (state is saved on every mutation) and closes the
// underlying store.
func (t *Tracker) Close() error {
	return t.store.Close()
}
