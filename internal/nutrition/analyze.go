package nutrition

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// CalorieSource tells where Analysis.Result.Calories came from.
type CalorieSource string

const (
	SourceNone       CalorieSource = "none"
	SourceText       CalorieSource = "text"
	SourceReconciled CalorieSource = "reconciled"
)

// Analysis is the structured record built from one model answer.
type Analysis struct {
	// Valid is false when the answer failed IsValidAnalysis; nothing else is
	// filled in that case.
	Valid          bool
	Result         MacroResult
	CaloriesSource CalorieSource
	// WeightG is the dish weight used for reconciliation, 0 when unknown.
	WeightG float64
	// Display is the answer with markdown and explanation lines removed.
	Display string
}

// Usable reports whether the answer produced a calorie figure worth saving.
func (a Analysis) Usable() bool {
	return a.Valid && a.Result.Calories > 0
}

const maxFallbackName = 50

// FallbackName shortens a user description for use as a dish name.
func FallbackName(description string) string {
	name := strings.Join(strings.Fields(description), " ")
	if utf8.RuneCountInString(name) <= maxFallbackName {
		return name
	}
	return string([]rune(name)[:maxFallbackName]) + "…"
}

// Analyze runs the full pipeline over a model answer: validity gate,
// extraction, reconciliation from per-100g figures when the total is
// missing, and display cleanup. description is the user's own text, if any;
// it supplies the fallback dish name and, when the answer states no weight,
// the weight used for reconciliation.
func Analyze(text, description string) (a Analysis) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("nutrition analysis panicked", "panic", r)
			a = Analysis{CaloriesSource: SourceNone}
		}
	}()

	if !IsValidAnalysis(text) {
		return Analysis{CaloriesSource: SourceNone}
	}

	e := Extract(text)
	a = Analysis{Valid: true, CaloriesSource: SourceNone}

	if w, ok := ExtractWeight(text, description); ok {
		a.WeightG = w
	}

	if e.Calories.OK() {
		a.CaloriesSource = SourceText
	} else if total, ok := Reconcile(text, a.WeightG); ok {
		e.Calories = found(total)
		a.CaloriesSource = SourceReconciled
	}

	if !e.TotalSection && !e.Total.Any() && e.Per100g.Any() && a.WeightG > 0 {
		e.Total = ScaleMacros(e.Per100g, a.WeightG)
	}

	a.Result = e.Result(FallbackName(description))
	a.Display = CleanForDisplay(RemoveExplanations(text))
	return a
}
