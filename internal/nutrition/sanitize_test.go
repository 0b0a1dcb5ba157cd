package nutrition

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanForDisplay(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "strips emphasis and keeps line breaks",
			in:       "**Название:** Яблоко\n\n__Вес__: _3000г_\n*Калорийность*: 1500 ккал\n",
			expected: "Название: Яблоко\n\nВес: 3000г\nКалорийность: 1500 ккал\n",
		},
		{
			name:     "collapses interior spaces",
			in:       "a    b",
			expected: "a b",
		},
		{
			name:     "spaces are collapsed per line only",
			in:       "a    b\n\n\nc  d",
			expected: "a b\n\n\nc d",
		},
		{
			name:     "trailing spaces removed",
			in:       "Белки: 3г   \nЖиры: 1г",
			expected: "Белки: 3г\nЖиры: 1г",
		},
		{
			name:     "empty",
			in:       "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanForDisplay(tt.in)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, strings.Count(tt.in, "\n"), strings.Count(got, "\n"))
			assert.NotContains(t, got, "*")
			assert.NotContains(t, got, "_")
		})
	}
}

func TestRemoveExplanations(t *testing.T) {
	in := strings.Join([]string{
		"Название: Салат",
		"Калорийность: 450 ккал",
		"Примечание: оценка приблизительная",
		"💡 Совет: добавьте больше овощей",
		"Обратите внимание на размер порции",
		"Белки: 20г",
		"Note: values are approximate",
		"Рекомендация: пейте воду",
	}, "\n")

	expected := "Название: Салат\nКалорийность: 450 ккал\nБелки: 20г"
	assert.Equal(t, expected, RemoveExplanations(in))
	assert.Equal(t, "", RemoveExplanations(""))
}
