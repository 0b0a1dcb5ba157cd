package nutrition

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "empty", text: "", expected: false},
		{name: "short with token", text: "100 ккал!!", expected: false},
		{name: "exactly at threshold", text: "ккал" + strings.Repeat(".", 16), expected: false},
		{name: "one past threshold", text: "ккал" + strings.Repeat(".", 17), expected: true},
		{name: "long without token", text: strings.Repeat("а", 200), expected: false},
		{name: "realistic block", text: appleAnalysis, expected: true},
		{name: "labeled calories", text: "Название: Суп\nКалорийность: 450 ккал\nБелки: 10г", expected: true},
		{name: "upper case token", text: "ОЦЕНКА: 300 ККАЛ НА ПОРЦИЮ", expected: true},
		{name: "english token", text: "Estimated Calories: about 320", expected: true},
		{name: "refusal", text: "Извините, я не могу определить блюдо на фото.", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidAnalysis(tt.text))
		})
	}
}
