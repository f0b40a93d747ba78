package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/tabemono/internal/catalog"
	"github.com/hyperjump/tabemono/internal/lexical"
	"github.com/hyperjump/tabemono/internal/models"
	"github.com/hyperjump/tabemono/internal/recognize"
	"github.com/hyperjump/tabemono/internal/storage"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	cat := catalog.NewStore(nil)
	items := []models.FoodItem{
		{Name: "ramen", ServingSize: "1 bowl", Calories: 550,
			Macronutrients: map[string]float64{"protein": 22, "carbs": 70, "fat": 18}},
		{Name: "apple", ServingSize: "1 medium", Calories: 95,
			Macronutrients: map[string]float64{"carbs": 25}, Aliases: []string{"fuji apple"}},
	}
	for _, item := range items {
		if err := cat.Add(item); err != nil {
			t.Fatalf("add %s: %v", item.Name, err)
		}
	}
	engine := recognize.NewEngine(cat, lexical.NewMatcher(cat), nil, nil, zap.NewNop())

	dir := t.TempDir()
	store, err := storage.NewJSONStore(filepath.Join(dir, "entries.json"), filepath.Join(dir, "goals.json"))
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	trk, err := New(context.Background(), engine, store, zap.NewNop(), WithNow(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return trk
}

func TestLogFood(t *testing.T) {
	trk := newTestTracker(t)
	ctx := context.Background()

	entry, err := trk.LogFood(ctx, "Ramen", 1.5)
	if err != nil {
		t.Fatalf("LogFood: %v", err)
	}
	if entry.ID == "" {
		t.Error("entry should get an ID")
	}
	if entry.Calories() != 550*1.5 {
		t.Errorf("calories = %v, want %v", entry.Calories(), 550*1.5)
	}
	if !entry.Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v, want fixed clock", entry.Timestamp)
	}

	if _, err := trk.LogFood(ctx, "fuji apple", 1); err != nil {
		t.Errorf("alias should resolve: %v", err)
	}
	if _, err := trk.LogFood(ctx, "pizza", 1); err == nil {
		t.Error("unknown food should fail")
	}
	if _, err := trk.LogFood(ctx, "ramen", 0); err == nil {
		t.Error("zero quantity should fail")
	}
	if len(trk.Entries()) != 2 {
		t.Errorf("expected 2 entries, got %d", len(trk.Entries()))
	}
}

func TestManualEntry(t *testing.T) {
	trk := newTestTracker(t)
	entry, err := trk.ManualEntry(context.Background(), models.FoodItem{
		Name: "homemade curry", ServingSize: "1 plate", Calories: 620,
	}, 1)
	if err != nil {
		t.Fatalf("ManualEntry: %v", err)
	}
	if entry.Food.Macronutrients == nil {
		t.Error("nil macros should become an empty map")
	}
	if _, err := trk.ManualEntry(context.Background(), models.FoodItem{}, 1); err == nil {
		t.Error("missing name should fail")
	}
}

func TestRemoveAndEditEntry(t *testing.T) {
	trk := newTestTracker(t)
	ctx := context.Background()
	entry, err := trk.LogFood(ctx, "ramen", 1)
	if err != nil {
		t.Fatalf("LogFood: %v", err)
	}

	edited, err := trk.EditEntry(ctx, entry.ID, 2)
	if err != nil {
		t.Fatalf("EditEntry: %v", err)
	}
	if edited.Quantity != 2 {
		t.Errorf("quantity = %v, want 2", edited.Quantity)
	}
	if _, err := trk.EditEntry(ctx, "no-such-id", 2); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("err = %v, want ErrEntryNotFound", err)
	}

	if err := trk.RemoveEntry(ctx, entry.ID); err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	if len(trk.Entries()) != 0 {
		t.Error("entry should be removed")
	}
	if err := trk.RemoveEntry(ctx, entry.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("err = %v, want ErrEntryNotFound", err)
	}
}

func TestDailySummary(t *testing.T) {
	trk := newTestTracker(t)
	ctx := context.Background()
	if _, err := trk.LogFood(ctx, "ramen", 1); err != nil {
		t.Fatalf("LogFood: %v", err)
	}
	if _, err := trk.LogFood(ctx, "apple", 2); err != nil {
		t.Fatalf("LogFood: %v", err)
	}

	log := trk.DailySummary(fixedNow)
	if len(log.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(log.Entries))
	}
	if got, want := log.TotalCalories(), 550.0+2*95; got != want {
		t.Errorf("total calories = %v, want %v", got, want)
	}
	if got := log.TotalMacros()["carbs"]; got != 70+2*25 {
		t.Errorf("total carbs = %v", got)
	}

	yesterday := trk.DailySummary(fixedNow.AddDate(0, 0, -1))
	if len(yesterday.Entries) != 0 {
		t.Errorf("yesterday should be empty, got %d entries", len(yesterday.Entries))
	}
}

func TestGoalsLifecycle(t *testing.T) {
	trk := newTestTracker(t)
	ctx := context.Background()

	calories := 2200.0
	goals, err := trk.UpdateGoals(ctx, &calories, map[string]float64{"protein": 140})
	if err != nil {
		t.Fatalf("UpdateGoals: %v", err)
	}
	if goals.Calories == nil || *goals.Calories != 2200 {
		t.Errorf("calories goal = %v", goals.Calories)
	}

	// Partial update leaves the calorie target untouched and a non-positive
	// macro clears its target.
	goals, err = trk.UpdateGoals(ctx, nil, map[string]float64{"protein": -1, "fat": 70})
	if err != nil {
		t.Fatalf("UpdateGoals: %v", err)
	}
	if goals.Calories == nil || *goals.Calories != 2200 {
		t.Errorf("calories goal should survive partial update, got %v", goals.Calories)
	}
	if _, ok := goals.Macronutrients["protein"]; ok {
		t.Error("non-positive target should clear protein goal")
	}
	if goals.Macronutrients["fat"] != 70 {
		t.Errorf("fat goal = %v", goals.Macronutrients["fat"])
	}

	if err := trk.ClearGoals(ctx); err != nil {
		t.Fatalf("ClearGoals: %v", err)
	}
	if got := trk.Goals(); got.Calories != nil || len(got.Macronutrients) != 0 {
		t.Errorf("goals after clear = %+v", got)
	}
}

func TestProgressForDay(t *testing.T) {
	trk := newTestTracker(t)
	ctx := context.Background()
	calories := 1100.0
	if _, err := trk.UpdateGoals(ctx, &calories, map[string]float64{"protein": 44}); err != nil {
		t.Fatalf("UpdateGoals: %v", err)
	}
	if _, err := trk.LogFood(ctx, "ramen", 1); err != nil {
		t.Fatalf("LogFood: %v", err)
	}

	report := trk.ProgressForDay(fixedNow)
	if report.Day != "2026-08-25" {
		t.Errorf("day = %s", report.Day)
	}
	if report.Calories.Consumed != 550 {
		t.Errorf("consumed = %v", report.Calories.Consumed)
	}
	if report.Calories.Progress == nil || *report.Calories.Progress != 0.5 {
		t.Errorf("progress = %v, want 0.5", report.Calories.Progress)
	}
	if report.Calories.Remaining == nil || *report.Calories.Remaining != 550 {
		t.Errorf("remaining = %v, want 550", report.Calories.Remaining)
	}
	protein := report.Macronutrients["protein"]
	if protein.Progress == nil || *protein.Progress != 0.5 {
		t.Errorf("protein progress = %v", protein.Progress)
	}
}

func TestProgressWithoutGoals(t *testing.T) {
	trk := newTestTracker(t)
	if _, err := trk.LogFood(context.Background(), "apple", 1); err != nil {
		t.Fatalf("LogFood: %v", err)
	}
	report := trk.ProgressForDay(fixedNow)
	if report.Calories.Target != nil || report.Calories.Progress != nil {
		t.Errorf("no-goal metric should have nil target/progress: %+v", report.Calories)
	}
	if report.Calories.Consumed != 95 {
		t.Errorf("consumed = %v", report.Calories.Consumed)
	}
	if len(report.Macronutrients) != 0 {
		t.Errorf("no macro goals set, got %v", report.Macronutrients)
	}
}

func TestWeeklyOverviewAndStreak(t *testing.T) {
	trk := newTestTracker(t)
	ctx := context.Background()
	if _, err := trk.LogFood(ctx, "ramen", 1); err != nil {
		t.Fatalf("LogFood: %v", err)
	}
	// Backdate an entry to yesterday through the store contract.
	entries := trk.Entries()
	entries = append(entries, models.FoodEntry{
		ID:        "backdated",
		Food:      models.FoodItem{Name: "apple", ServingSize: "1 medium", Calories: 95, Macronutrients: map[string]float64{}},
		Quantity:  1,
		Timestamp: fixedNow.AddDate(0, 0, -1),
	})
	trk.mu.Lock()
	trk.entries = entries
	trk.mu.Unlock()

	overview := trk.WeeklyOverview()
	if len(overview.Days) != 7 {
		t.Fatalf("expected 7 day summaries, got %d", len(overview.Days))
	}
	if overview.Days[6].Day != "2026-08-25" {
		t.Errorf("last day = %s, want today", overview.Days[6].Day)
	}
	if overview.ActiveDays != 2 {
		t.Errorf("active days = %d, want 2", overview.ActiveDays)
	}
	if want := (550.0 + 95.0) / 2; overview.AverageCalories != want {
		t.Errorf("average calories = %v, want %v", overview.AverageCalories, want)
	}
	if overview.CurrentStreak != 2 {
		t.Errorf("streak = %d, want 2", overview.CurrentStreak)
	}
}

func TestStreakBreaksWhenTodayUnlogged(t *testing.T) {
	trk := newTestTracker(t)
	trk.mu.Lock()
	trk.entries = []models.FoodEntry{
		{
			ID:        "y",
			Food:      models.FoodItem{Name: "apple", Calories: 95, Macronutrients: map[string]float64{}},
			Quantity:  1,
			Timestamp: fixedNow.AddDate(0, 0, -1),
		},
		{
			ID:        "y2",
			Food:      models.FoodItem{Name: "apple", Calories: 95, Macronutrients: map[string]float64{}},
			Quantity:  1,
			Timestamp: fixedNow.AddDate(0, 0, -2),
		},
	}
	trk.mu.Unlock()
	// The walk starts at today; without an entry today the streak is zero
	// even though yesterday and the day before were logged.
	if got := trk.LoggingStreak(); got != 0 {
		t.Errorf("streak = %d, want 0 when today has no entries", got)
	}

	trk.mu.Lock()
	trk.entries = append(trk.entries, models.FoodEntry{
		ID:        "t",
		Food:      models.FoodItem{Name: "apple", Calories: 95, Macronutrients: map[string]float64{}},
		Quantity:  1,
		Timestamp: fixedNow,
	})
	trk.mu.Unlock()
	if got := trk.LoggingStreak(); got != 3 {
		t.Errorf("streak = %d, want 3 with today through two days back logged", got)
	}
}

func TestStreakZeroWithoutEntries(t *testing.T) {
	trk := newTestTracker(t)
	if got := trk.LoggingStreak(); got != 0 {
		t.Errorf("streak = %d, want 0 for an empty log", got)
	}
}

func TestLifetimeStats(t *testing.T) {
	trk := newTestTracker(t)
	ctx := context.Background()

	empty := trk.LifetimeStats()
	if empty.TotalEntries != 0 || empty.FirstEntry != nil || empty.MostLoggedFood != nil {
		t.Errorf("empty stats = %+v", empty)
	}

	for i := 0; i < 2; i++ {
		if _, err := trk.LogFood(ctx, "ramen", 1); err != nil {
			t.Fatalf("LogFood: %v", err)
		}
	}
	if _, err := trk.LogFood(ctx, "apple", 1); err != nil {
		t.Fatalf("LogFood: %v", err)
	}

	stats := trk.LifetimeStats()
	if stats.TotalEntries != 3 {
		t.Errorf("total entries = %d", stats.TotalEntries)
	}
	if stats.TotalCalories != 2*550+95 {
		t.Errorf("total calories = %v", stats.TotalCalories)
	}
	if stats.UniqueFoods != 2 {
		t.Errorf("unique foods = %d", stats.UniqueFoods)
	}
	if stats.FirstEntry == nil || !stats.FirstEntry.Equal(fixedNow) {
		t.Errorf("first entry = %v", stats.FirstEntry)
	}
	if stats.MostLoggedFood == nil || stats.MostLoggedFood.Name != "ramen" || stats.MostLoggedFood.Count != 2 {
		t.Errorf("most logged = %+v", stats.MostLoggedFood)
	}
}

func TestTrackerPersistsAcrossRestart(t *testing.T) {
	cat := catalog.NewStore(nil)
	if err := cat.Add(models.FoodItem{Name: "ramen", ServingSize: "1 bowl", Calories: 550}); err != nil {
		t.Fatalf("add: %v", err)
	}
	engine := recognize.NewEngine(cat, lexical.NewMatcher(cat), nil, nil, zap.NewNop())
	dir := t.TempDir()
	ctx := context.Background()

	open := func() *Tracker {
		store, err := storage.NewJSONStore(filepath.Join(dir, "entries.json"), filepath.Join(dir, "goals.json"))
		if err != nil {
			t.Fatalf("NewJSONStore: %v", err)
		}
		trk, err := New(ctx, engine, store, zap.NewNop())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return trk
	}

	first := open()
	if _, err := first.LogFood(ctx, "ramen", 1); err != nil {
		t.Fatalf("LogFood: %v", err)
	}
	calories := 2000.0
	if _, err := first.UpdateGoals(ctx, &calories, nil); err != nil {
		t.Fatalf("UpdateGoals: %v", err)
	}
	_ = first.Close()

	second := open()
	defer second.Close()
	if len(second.Entries()) != 1 {
		t.Errorf("reloaded %d entries, want 1", len(second.Entries()))
	}
	if goals := second.Goals(); goals.Calories == nil || *goals.Calories != 2000 {
		t.Errorf("reloaded goals = %+v", goals)
	}
}
