package nutrition

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// decimal matches an integer or a decimal number written with "." or ",".
const decimal = `(\d+(?:[.,]\d+)?)`

// calorieNumber is decimal that also accepts thousands grouped with a space
// or a no-break space, as in "1 200".
const calorieNumber = `(\d{1,3}(?:[ \x{00A0}]\d{3})+|\d+(?:[.,]\d+)?)`

var groupSeparators = strings.NewReplacer(" ", "", "\u00a0", "")

// parseDecimal converts a captured number to float64. A comma decimal
// separator and trailing punctuation are tolerated.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".,")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseCalories parses a captured calorie figure and rounds it to whole kcal.
func parseCalories(s string) (int, bool) {
	v, ok := parseDecimal(groupSeparators.Replace(s))
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}

// normalize brings model output into NFC so precomposed and decomposed
// Cyrillic letters match the same patterns.
func normalize(text string) string {
	return norm.NFC.String(text)
}
