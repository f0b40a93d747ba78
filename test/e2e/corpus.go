// Package e2e provides end-to-end tests over the HTTP API with a fixture catalog.
package e2e

import (
	"github.com/hyperjump/tabemono/internal/catalog"
)

// QueryTestCase defines a text query and the catalog name(s) that must appear
// among the returned candidates. At least one of ExpectedNames must be present.
type QueryTestCase struct {
	Query         string
	ExpectedNames []string
	Description   string
}

// Corpus holds the fixture catalog and query test cases for E2E tests.
type Corpus struct {
	Records      []catalog.Record
	TestCases    []QueryTestCase
	TotalFoods   int
	TotalQueries int
}

// BuildCorpus returns a catalog of foods with aliases and query test cases
// covering exact, alias, and partial matches.
func BuildCorpus() *Corpus {
	records := buildRecords()
	cases := buildQueryTestCases()
	return &Corpus{
		Records:      records,
		TestCases:    cases,
		TotalFoods:   len(records),
		TotalQueries: len(cases),
	}
}

func buildRecords() []catalog.Record {
	foods := []struct {
		name    string
		serving string
		kcal    float64
		macros  map[string]float64
		aliases []string
	}{
		{"ramen", "1 bowl", 550, map[string]float64{"protein": 22, "carbs": 70, "fat": 18}, []string{"noodle soup"}},
		{"chicken soup", "1 bowl", 180, map[string]float64{"protein": 14}, nil},
		{"grilled chicken breast", "150 g", 240, map[string]float64{"protein": 45}, []string{"chicken breast"}},
		{"fried rice", "1 plate", 420, map[string]float64{"carbs": 60, "fat": 14}, nil},
		{"white rice", "1 cup", 205, map[string]float64{"carbs": 45}, []string{"steamed rice"}},
		{"sushi roll", "8 pieces", 300, map[string]float64{"carbs": 50, "protein": 12}, []string{"maki"}},
		{"miso soup", "1 bowl", 60, map[string]float64{"protein": 4}, nil},
		{"apple", "1 medium", 95, map[string]float64{"carbs": 25}, nil},
		{"banana", "1 medium", 105, map[string]float64{"carbs": 27}, nil},
		{"greek yogurt", "1 cup", 150, map[string]float64{"protein": 20}, []string{"yoghurt", "strained yogurt"}},
		{"oat milk", "1 cup", 120, map[string]float64{"carbs": 16}, nil},
		{"oatmeal", "1 cup cooked", 160, map[string]float64{"carbs": 28}, []string{"porridge"}},
		{"scrambled eggs", "2 eggs", 180, map[string]float64{"protein": 12, "fat": 14}, nil},
		{"caesar salad", "1 bowl", 350, map[string]float64{"fat": 26}, nil},
		{"greek salad", "1 bowl", 220, map[string]float64{"fat": 16}, nil},
		{"margherita pizza", "2 slices", 500, map[string]float64{"carbs": 60, "fat": 20}, []string{"cheese pizza"}},
		{"pepperoni pizza", "2 slices", 580, map[string]float64{"carbs": 58, "fat": 26}, nil},
		{"beef burger", "1 burger", 650, map[string]float64{"protein": 35, "fat": 38}, []string{"hamburger"}},
		{"veggie burger", "1 burger", 390, map[string]float64{"protein": 18}, nil},
		{"spaghetti bolognese", "1 plate", 560, map[string]float64{"carbs": 65, "protein": 28}, nil},
		{"pad thai", "1 plate", 600, map[string]float64{"carbs": 72}, nil},
		{"chicken curry", "1 bowl", 480, map[string]float64{"protein": 30, "fat": 24}, nil},
		{"lentil soup", "1 bowl", 190, map[string]float64{"protein": 12}, nil},
		{"avocado toast", "1 slice", 250, map[string]float64{"fat": 15, "carbs": 24}, nil},
		{"protein shake", "1 scoop", 130, map[string]float64{"protein": 25}, []string{"whey shake"}},
		{"dark chocolate", "30 g", 170, map[string]float64{"fat": 12, "carbs": 13}, nil},
		{"orange juice", "1 glass", 110, map[string]float64{"carbs": 26}, []string{"oj"}},
		{"black coffee", "1 cup", 2, map[string]float64{}, []string{"americano"}},
		{"croissant", "1 piece", 230, map[string]float64{"fat": 12, "carbs": 26}, nil},
		{"tuna sandwich", "1 sandwich", 340, map[string]float64{"protein": 22, "carbs": 35}, nil},
	}
	records := make([]catalog.Record, 0, len(foods))
	for _, f := range foods {
		kcal := f.kcal
		records = append(records, catalog.Record{
			Name:           f.name,
			ServingSize:    f.serving,
			Calories:       &kcal,
			Macronutrients: f.macros,
			Aliases:        f.aliases,
		})
	}
	return records
}

func buildQueryTestCases() []QueryTestCase {
	return []QueryTestCase{
		{"ramen", []string{"ramen"}, "exact name"},
		{"RAMEN  ", []string{"ramen"}, "case and whitespace insensitive"},
		{"noodle soup", []string{"ramen"}, "alias resolves to the item"},
		{"yoghurt", []string{"greek yogurt"}, "alias spelling variant"},
		{"maki", []string{"sushi roll"}, "short alias"},
		{"chicken", []string{"chicken soup", "grilled chicken breast", "chicken curry"}, "partial match across items"},
		{"rice", []string{"fried rice", "white rice"}, "partial match on shared token"},
		{"pizza", []string{"margherita pizza", "pepperoni pizza"}, "partial match on category word"},
		{"greek", []string{"greek yogurt", "greek salad"}, "partial match on qualifier"},
		{"hamburger", []string{"beef burger"}, "alias full word"},
		{"soup", []string{"chicken soup", "miso soup", "lentil soup"}, "generic token hits all soups"},
		{"chicken breast", []string{"grilled chicken breast"}, "alias phrase"},
		{"whey shake", []string{"protein shake"}, "two-word alias"},
		{"americano", []string{"black coffee"}, "drink alias"},
		{"toast", []string{"avocado toast"}, "single token of a two-word name"},
	}
}
