package models

import "time"

// FoodEntry is a log entry for the consumption of a food item.
type FoodEntry struct {
	ID        string    `json:"id"`
	Food      FoodItem  `json:"food"`
	Quantity  float64   `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// Calories returns the calories consumed for this entry.
func (e *FoodEntry) Calories() float64 {
	return e.Food.Calories * e.Quantity
}

// Macronutrients returns the consumed macronutrient grams, scaled by quantity.
func (e *FoodEntry) Macronutrients() map[string]float64 {
	scaled := make(map[string]float64, len(e.Food.Macronutrients))
	for nutrient, amount := range e.Food.Macronutrients {
		scaled[nutrient] = amount * e.Quantity
	}
	return scaled
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DailyLog is the collection of food entries for one calendar day.
type DailyLog struct {
	Day     time.Time   `json:"day"`
	Entries []FoodEntry `json:"entries"`
}

// AddEntry appends an entry to the log.
func (l *DailyLog) AddEntry(entry FoodEntry) {
	l.Entries = append(l.Entries, entry)
}

// TotalCalories sums the calories of all entries.
func (l *DailyLog) TotalCalories() float64 {
	var total float64
	for i := range l.Entries {
		total += l.Entries[i].Calories()
	}
	return total
}

// TotalMacros sums the macronutrient grams of all entries.
func (l *DailyLog) TotalMacros() map[string]float64 {
	totals := make(map[string]float64)
	for i := range l.Entries {
		for nutrient, amount := range l.Entries[i].Macronutrients() {
			totals[nutrient] += amount
		}
	}
	return totals
}

// GroupEntriesByDay buckets entries into per-day logs keyed by UTC day.
func GroupEntriesByDay(entries []FoodEntry) map[time.Time]*DailyLog {
	grouped := make(map[time.Time]*DailyLog)
	for _, entry := range entries {
		day := DateOf(entry.Timestamp)
		log, ok := grouped[day]
		if !ok {
			log = &DailyLog{Day: day}
			grouped[day] = log
		}
		log.AddEntry(entry)
	}
	return grouped
}
