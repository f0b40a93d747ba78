// Package lexical scores text queries against the catalog by name and alias matching.
package lexical

import (
	"sort"
	"strings"

	"github.com/hyperjump/tabemono/internal/catalog"
	"github.com/hyperjump/tabemono/internal/models"
)

// partialScale keeps token-overlap confidence strictly below 1.0 so that only
// exact name/alias matches report full confidence.
const partialScale = 0.95

// fuzzyMinTokenLen is the minimum token length for typo-tolerant matching;
// short tokens within edit distance 1 are usually different words.
const fuzzyMinTokenLen = 4

// Matcher ranks catalog items against a free-text query.
type Matcher struct {
	catalog *catalog.Store
	fuzzy   bool
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithFuzzy enables typo tolerance: tokens within Levenshtein distance 1
// count as overlapping.
func WithFuzzy(enabled bool) Option {
	return func(m *Matcher) { m.fuzzy = enabled }
}

// NewMatcher creates a matcher over the given catalog.
func NewMatcher(cat *catalog.Store, opts ...Option) *Matcher {
	m := &Matcher{catalog: cat}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Scan returns up to topK candidates for query, ranked by descending
// confidence with ties broken by catalog insertion order. An exact
// name/alias match scores 1.0; otherwise the token-overlap ratio between the
// query and the item's name+aliases, scaled into (0,1). A blank query
// short-circuits to an empty result without scanning.
func (m *Matcher) Scan(query string, topK int) []models.Candidate {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" || topK <= 0 {
		return nil
	}
	queryTokens := strings.Fields(normalized)

	items := m.catalog.Items()
	candidates := make([]models.Candidate, 0, len(items))
	for i := range items {
		item := &items[i]
		confidence := m.score(normalized, queryTokens, item)
		if confidence <= 0 {
			continue
		}
		candidates = append(candidates, models.Candidate{Item: item, Confidence: confidence})
	}

	// Stable sort keeps insertion order for equal confidence.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

func (m *Matcher) score(query string, queryTokens []string, item *models.FoodItem) float64 {
	if item.Matches(query) {
		return 1.0
	}
	itemTokens := strings.Fields(strings.ToLower(item.SearchText()))
	return partialScale * m.tokenOverlap(queryTokens, itemTokens)
}

// tokenOverlap computes the Jaccard similarity of two token sets. With fuzzy
// matching enabled, tokens within edit distance 1 are treated as equal.
func (m *Matcher) tokenOverlap(queryTokens, itemTokens []string) float64 {
	if len(queryTokens) == 0 || len(itemTokens) == 0 {
		return 0
	}
	querySet := uniqueTokens(queryTokens)
	itemSet := uniqueTokens(itemTokens)

	intersection := 0
	for token := range querySet {
		if _, ok := itemSet[token]; ok {
			intersection++
			continue
		}
		if m.fuzzy && m.fuzzyContains(itemSet, token) {
			intersection++
		}
	}
	union := len(querySet) + len(itemSet) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func (m *Matcher) fuzzyContains(set map[string]struct{}, token string) bool {
	if len(token) < fuzzyMinTokenLen {
		return false
	}
	for candidate := range set {
		if len(candidate) >= fuzzyMinTokenLen && LevenshteinDistance(token, candidate) <= 1 {
			return true
		}
	}
	return false
}

func uniqueTokens(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
