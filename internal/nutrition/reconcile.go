package nutrition

import (
	"math"
	"regexp"
)

// Per-100g calorie figures outside [MinPer100g, MaxPer100g] are rejected.
const (
	MinPer100g = 10
	MaxPer100g = 1000
)

var per100gCalories = []*regexp.Regexp{
	regexp.MustCompile(`(?i)калорийность\s+на\s+100\s*(?:г|гр|грамм)\.?\s*:\s*` + decimal + `\s*` + kcal),
	regexp.MustCompile(`(?i)на\s+100\s*(?:г|гр|грамм)\.?\s*:\s*` + decimal + `\s*` + kcal),
	regexp.MustCompile(`(?i)per\s+100\s*g\s*:\s*` + decimal + `\s*` + kcal),
	regexp.MustCompile(`(?i)` + decimal + `\s*` + kcal + `\s*(?:/|на|per)\s*100\s*(?:г|g)`),
	regexp.MustCompile(`(?i)100\s*(?:г|g)[^\n]*?` + decimal + `\s*` + kcal),
}

// ExtractPer100g returns the calorie figure the text states for 100 g.
func ExtractPer100g(text string) Field[int] {
	text = prepare(text)
	var out Field[int]
	for _, re := range per100gCalories {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			n, ok := parseCalories(m[1])
			if !ok {
				continue
			}
			if n >= MinPer100g && n <= MaxPer100g {
				return found(n)
			}
			out = merge(out, Field[int]{Value: n, Outcome: OutOfBounds})
		}
	}
	return out
}

// CaloriesFromPer100g computes the calories of weightG grams of a food with
// per100g kcal per 100 g. The result is rounded once, at the end.
func CaloriesFromPer100g(weightG, per100g float64) int {
	return int(math.Round(weightG / 100.0 * per100g))
}

// Reconcile derives total calories when the text states no usable total but
// gives a per-100g figure. weightG is the parsed dish weight; zero or
// negative means unknown. The second result is false when either input is
// missing or the computed total falls outside the total-calorie bound.
func Reconcile(analysis string, weightG float64) (int, bool) {
	if weightG <= 0 {
		return 0, false
	}
	per100g := ExtractPer100g(analysis)
	if !per100g.OK() {
		return 0, false
	}
	total := CaloriesFromPer100g(weightG, float64(per100g.Value))
	if !validTotal(total) {
		return 0, false
	}
	return total, true
}

// ScaleMacros converts per-100g macros to totals for weightG grams. Fields
// missing from per100g stay missing.
func ScaleMacros(per100g Macros, weightG float64) Macros {
	scale := func(f Field[float64]) Field[float64] {
		if !f.OK() {
			return f
		}
		return found(math.Round(f.Value*weightG/100.0*10) / 10)
	}
	return Macros{
		Protein: scale(per100g.Protein),
		Fat:     scale(per100g.Fat),
		Carbs:   scale(per100g.Carbs),
	}
}
