package nutrition

import (
	"strings"
	"unicode/utf8"
)

// MinAnalysisLength is the number of characters an answer must exceed to be
// considered at all.
const MinAnalysisLength = 20

var calorieTokens = []string{"калори", "ккал", "calori", "kcal"}

// IsValidAnalysis is a cheap pre-filter run before extraction: text must be
// longer than MinAnalysisLength characters and mention calories.
func IsValidAnalysis(text string) bool {
	if utf8.RuneCountInString(text) <= MinAnalysisLength {
		return false
	}
	lower := strings.ToLower(normalize(text))
	for _, token := range calorieTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
