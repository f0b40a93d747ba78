// Package cli provides CLI output helpers for tabemono.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/hyperjump/tabemono/internal/models"
	"github.com/hyperjump/tabemono/pkg/utils"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat converts a --output flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCandidates writes recognition candidates to w in the given format.
func WriteCandidates(w io.Writer, candidates []models.Candidate, format OutputFormat) error {
	if format == OutputJSON {
		if candidates == nil {
			candidates = []models.Candidate{}
		}
		return writeJSON(w, map[string]interface{}{"candidates": candidates})
	}
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No matches found.")
		return nil
	}
	for i, c := range candidates {
		fmt.Fprintf(w, "%d. %s  (%.0f%% match)\n", i+1, c.Item.Name, c.Confidence*100)
		fmt.Fprintf(w, "   %s, %.0f kcal\n", c.Item.ServingSize, c.Item.Calories)
		if len(c.Item.Macronutrients) > 0 {
			fmt.Fprintf(w, "   %s\n", formatMacros(c.Item.Macronutrients))
		}
	}
	return nil
}

// WriteEntry writes a freshly logged entry to w.
func WriteEntry(w io.Writer, entry models.FoodEntry, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, entry)
	}
	fmt.Fprintf(w, "Logged %.2gx %s (%.0f kcal)\n", entry.Quantity, entry.Food.Name, entry.Calories())
	return nil
}

// WriteDailySummary writes a day's log with totals to w.
func WriteDailySummary(w io.Writer, log models.DailyLog, format OutputFormat) error {
	if format == OutputJSON {
		if log.Entries == nil {
			log.Entries = []models.FoodEntry{}
		}
		return writeJSON(w, map[string]interface{}{
			"day":            log.Day.Format("2006-01-02"),
			"entries":        log.Entries,
			"calories":       log.TotalCalories(),
			"macronutrients": log.TotalMacros(),
		})
	}
	fmt.Fprintf(w, "Summary for %s\n", log.Day.Format("2006-01-02"))
	if len(log.Entries) == 0 {
		fmt.Fprintln(w, "  (no entries)")
		return nil
	}
	for i := range log.Entries {
		entry := &log.Entries[i]
		fmt.Fprintf(w, "  %s  %.2gx %-24s %7.0f kcal\n",
			entry.Timestamp.Format("15:04"), entry.Quantity, utils.Truncate(entry.Food.Name, 21), entry.Calories())
	}
	fmt.Fprintf(w, "Total: %.0f kcal", log.TotalCalories())
	if macros := log.TotalMacros(); len(macros) > 0 {
		fmt.Fprintf(w, "  (%s)", formatMacros(macros))
	}
	fmt.Fprintln(w)
	return nil
}

// WriteFoodLibrary writes the catalog listing to w.
func WriteFoodLibrary(w io.Writer, foods []models.FoodItem, format OutputFormat) error {
	if format == OutputJSON {
		if foods == nil {
			foods = []models.FoodItem{}
		}
		return writeJSON(w, map[string]interface{}{"foods": foods})
	}
	// Long names are truncated so the columns stay aligned.
	for i := range foods {
		food := &foods[i]
		fmt.Fprintf(w, "%-28s %s, %.0f kcal\n", utils.Truncate(food.Name, 25), food.ServingSize, food.Calories)
	}
	fmt.Fprintf(w, "\n%d foods known\n", len(foods))
	return nil
}

// WriteProgress writes a goal progress report to w.
func WriteProgress(w io.Writer, report models.ProgressReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Progress for %s\n", report.Day)
	writeMetric(w, "calories", report.Calories, "kcal")
	names := make([]string, 0, len(report.Macronutrients))
	for name := range report.Macronutrients {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		writeMetric(w, name, report.Macronutrients[name], "g")
	}
	return nil
}

func writeMetric(w io.Writer, name string, metric models.ProgressMetric, unit string) {
	if metric.Target == nil {
		fmt.Fprintf(w, "  %-12s %.0f %s (no goal set)\n", name, metric.Consumed, unit)
		return
	}
	fmt.Fprintf(w, "  %-12s %.0f / %.0f %s (%.0f%%)\n",
		name, metric.Consumed, *metric.Target, unit, *metric.Progress*100)
}

// WriteWeeklyOverview writes the weekly stats series to w.
func WriteWeeklyOverview(w io.Writer, overview models.WeeklyOverview, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, overview)
	}
	fmt.Fprintln(w, "Last 7 days")
	for _, day := range overview.Days {
		marker := " "
		if day.EntryCount > 0 {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %s  %7.0f kcal  (%d entries)\n", marker, day.Day, day.Calories, day.EntryCount)
	}
	fmt.Fprintf(w, "Active days: %d, average %.0f kcal, streak %d\n",
		overview.ActiveDays, overview.AverageCalories, overview.CurrentStreak)
	return nil
}

// WriteLifetimeStats writes the history summary to w.
func WriteLifetimeStats(w io.Writer, stats models.LifetimeStats, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, stats)
	}
	fmt.Fprintf(w, "entries:        %d\n", stats.TotalEntries)
	fmt.Fprintf(w, "total_calories: %.0f\n", stats.TotalCalories)
	fmt.Fprintf(w, "unique_foods:   %d\n", stats.UniqueFoods)
	if stats.FirstEntry != nil {
		fmt.Fprintf(w, "first_entry:    %s\n", stats.FirstEntry.Format("2006-01-02"))
	}
	if stats.MostLoggedFood != nil {
		fmt.Fprintf(w, "most_logged:    %s (%d times)\n", stats.MostLoggedFood.Name, stats.MostLoggedFood.Count)
	}
	return nil
}

func formatMacros(macros map[string]float64) string {
	names := make([]string, 0, len(macros))
	for name := range macros {
		names = append(names, name)
	}
	sort.Strings(names)
	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s %.1fg", name, macros[name])
	}
	return out
}
