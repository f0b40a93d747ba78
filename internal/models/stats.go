package models

import "time"

// ProgressMetric compares a consumed amount against an optional target.
// Remaining and Progress are nil when no target is set.
type ProgressMetric struct {
	Target    *float64 `json:"target"`
	Consumed  float64  `json:"consumed"`
	Remaining *float64 `json:"remaining"`
	Progress  *float64 `json:"progress"`
}

// ProgressReport is the goal progress for a single day.
type ProgressReport struct {
	Day            string                    `json:"day"`
	Calories       ProgressMetric            `json:"calories"`
	Macronutrients map[string]ProgressMetric `json:"macronutrients"`
}

// DaySummary is one day in a weekly overview series.
type DaySummary struct {
	Day            string             `json:"day"`
	Calories       float64            `json:"calories"`
	Macronutrients map[string]float64 `json:"macronutrients"`
	EntryCount     int                `json:"entry_count"`
}

// WeeklyOverview aggregates recent days of logging activity.
type WeeklyOverview struct {
	Days            []DaySummary `json:"days"`
	AverageCalories float64      `json:"average_calories"`
	ActiveDays      int          `json:"active_days"`
	CurrentStreak   int          `json:"current_streak"`
}

// FoodCount is a food name with the number of times it was logged.
type FoodCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LifetimeStats summarizes the full logging history.
type LifetimeStats struct {
	TotalEntries   int        `json:"total_entries"`
	TotalCalories  float64    `json:"total_calories"`
	UniqueFoods    int        `json:"unique_foods"`
	FirstEntry     *time.Time `json:"first_entry"`
	MostLoggedFood *FoodCount `json:"most_logged_food"`
}
