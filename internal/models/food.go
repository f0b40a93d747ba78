// Package models defines core data structures for foods, entries, and recognition results.
package models

import "strings"

// FoodItem is a known food in the reference catalog. Identity is the
// normalized (lowercased, trimmed) name; items are immutable once created.
type FoodItem struct {
	Name           string             `json:"name"`
	ServingSize    string             `json:"serving_size"`
	Calories       float64            `json:"calories"`
	Macronutrients map[string]float64 `json:"macronutrients"`
	Aliases        []string           `json:"aliases"`
}

// NormalizedName returns the case-insensitive identity of the item.
func NormalizedName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Matches reports whether text is an exact (case-insensitive) match for the
// item's name or one of its aliases.
func (f *FoodItem) Matches(text string) bool {
	normalized := NormalizedName(text)
	if normalized == NormalizedName(f.Name) {
		return true
	}
	for _, alias := range f.Aliases {
		if normalized == NormalizedName(alias) {
			return true
		}
	}
	return false
}

// SearchText returns the representative text for the item (name plus aliases
// joined), used to build the text-embedding corpus.
func (f *FoodItem) SearchText() string {
	parts := make([]string, 0, len(f.Aliases)+1)
	parts = append(parts, f.Name)
	parts = append(parts, f.Aliases...)
	return strings.Join(parts, " ")
}

// Candidate pairs a catalog item with a match confidence. Confidence is
// nominally in [0,1]; vector-similarity confidence is the raw cosine
// similarity and may drift marginally outside that range due to
// floating-point noise. It is deliberately not clamped.
type Candidate struct {
	Item       *FoodItem `json:"food"`
	Confidence float64   `json:"confidence"`
}
