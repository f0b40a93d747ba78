package models

import (
	"testing"
	"time"
)

func TestFoodItemMatches(t *testing.T) {
	item := FoodItem{Name: "Greek Yogurt", Aliases: []string{"yoghurt"}}
	tests := []struct {
		text string
		want bool
	}{
		{"greek yogurt", true},
		{"  GREEK YOGURT  ", true},
		{"Yoghurt", true},
		{"yogurt", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := item.Matches(tt.text); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestSearchText(t *testing.T) {
	item := FoodItem{Name: "greek yogurt", Aliases: []string{"yoghurt", "strained yogurt"}}
	if got := item.SearchText(); got != "greek yogurt yoghurt strained yogurt" {
		t.Errorf("SearchText = %q", got)
	}
	plain := FoodItem{Name: "apple"}
	if got := plain.SearchText(); got != "apple" {
		t.Errorf("SearchText = %q", got)
	}
}

func TestFoodEntryScaling(t *testing.T) {
	entry := FoodEntry{
		Food: FoodItem{
			Calories:       100,
			Macronutrients: map[string]float64{"protein": 10, "fat": 4},
		},
		Quantity: 2.5,
	}
	if got := entry.Calories(); got != 250 {
		t.Errorf("Calories = %v, want 250", got)
	}
	macros := entry.Macronutrients()
	if macros["protein"] != 25 || macros["fat"] != 10 {
		t.Errorf("Macronutrients = %v", macros)
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	ts := time.Date(2026, 8, 25, 2, 30, 0, 0, loc) // 2026-08-24 17:30 UTC
	day := DateOf(ts)
	want := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !day.Equal(want) {
		t.Errorf("DateOf = %v, want %v", day, want)
	}
}

func TestGroupEntriesByDay(t *testing.T) {
	day1 := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)
	entries := []FoodEntry{
		{ID: "a", Food: FoodItem{Calories: 100}, Quantity: 1, Timestamp: day1},
		{ID: "b", Food: FoodItem{Calories: 200}, Quantity: 1, Timestamp: day1.Add(4 * time.Hour)},
		{ID: "c", Food: FoodItem{Calories: 50}, Quantity: 2, Timestamp: day2},
	}
	grouped := GroupEntriesByDay(entries)
	if len(grouped) != 2 {
		t.Fatalf("expected 2 days, got %d", len(grouped))
	}
	log := grouped[DateOf(day1)]
	if len(log.Entries) != 2 || log.TotalCalories() != 300 {
		t.Errorf("day1 log = %+v", log)
	}
	if grouped[DateOf(day2)].TotalCalories() != 100 {
		t.Errorf("day2 calories = %v", grouped[DateOf(day2)].TotalCalories())
	}
}

func TestGoalsMerge(t *testing.T) {
	base := NutritionGoals{Macronutrients: map[string]float64{"protein": 100}}
	calories := 2000.0
	merged := base.Merge(&calories, map[string]float64{"fat": 60})
	if merged.Calories == nil || *merged.Calories != 2000 {
		t.Errorf("calories = %v", merged.Calories)
	}
	if merged.Macronutrients["protein"] != 100 || merged.Macronutrients["fat"] != 60 {
		t.Errorf("macros = %v", merged.Macronutrients)
	}
	if base.Macronutrients["fat"] != 0 {
		t.Error("Merge should not mutate the receiver")
	}

	cleared := merged.Merge(nil, map[string]float64{"protein": 0})
	if cleared.Calories == nil {
		t.Error("nil calories should leave target unchanged")
	}
	if _, ok := cleared.Macronutrients["protein"]; ok {
		t.Error("zero target should clear the macro goal")
	}

	negative := -1.0
	noCal := cleared.Merge(&negative, nil)
	if noCal.Calories != nil {
		t.Error("negative calories should clear the target")
	}
}

func TestCleanedMacros(t *testing.T) {
	goals := NutritionGoals{Macronutrients: map[string]float64{"protein": 100, "fat": 0, "carbs": -5}}
	cleaned := goals.CleanedMacros()
	if len(cleaned) != 1 || cleaned["protein"] != 100 {
		t.Errorf("CleanedMacros = %v", cleaned)
	}
}
