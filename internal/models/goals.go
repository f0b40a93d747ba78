package models

// NutritionGoals holds the user's daily targets. A nil calorie target or a
// missing macronutrient key means no goal is set for it.
type NutritionGoals struct {
	Calories       *float64           `json:"calories,omitempty"`
	Macronutrients map[string]float64 `json:"macronutrients,omitempty"`
}

// CleanedMacros returns a copy of the macro targets with non-positive values
// dropped (a zero or negative target means the goal was cleared).
func (g *NutritionGoals) CleanedMacros() map[string]float64 {
	cleaned := make(map[string]float64, len(g.Macronutrients))
	for nutrient, target := range g.Macronutrients {
		if target > 0 {
			cleaned[nutrient] = target
		}
	}
	return cleaned
}

// Merge returns a new goals value with the provided fields applied. A nil
// calories pointer leaves the calorie target unchanged; macro entries with a
// non-positive value remove that target.
func (g *NutritionGoals) Merge(calories *float64, macros map[string]float64) NutritionGoals {
	merged := NutritionGoals{
		Calories:       g.Calories,
		Macronutrients: make(map[string]float64, len(g.Macronutrients)+len(macros)),
	}
	for nutrient, target := range g.Macronutrients {
		merged.Macronutrients[nutrient] = target
	}
	if calories != nil {
		if *calories > 0 {
			c := *calories
			merged.Calories = &c
		} else {
			merged.Calories = nil
		}
	}
	for nutrient, target := range macros {
		if target > 0 {
			merged.Macronutrients[nutrient] = target
		} else {
			delete(merged.Macronutrients, nutrient)
		}
	}
	return merged
}
