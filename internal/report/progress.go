// Package report renders nutrition progress as chat-friendly text.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const barWidth = 10

// ProgressEmoji grades progress toward a target, where 1 means reached.
func ProgressEmoji(progress float64) string {
	switch {
	case progress >= 1:
		return "🟢"
	case progress >= 0.8:
		return "🟡"
	case progress >= 0.5:
		return "🟠"
	default:
		return "🔴"
	}
}

// ProgressBar draws current/target as a bar of barWidth cells followed by
// the real percentage. The bar stops filling at 100%, the percentage does not.
func ProgressBar(current, target float64) string {
	if target <= 0 {
		return strings.Repeat("░", barWidth)
	}
	progress := current / target
	if progress < 0 {
		progress = 0
	}
	filled := int(progress * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("%s %d%%", bar, int(progress*100))
}

var (
	ruPrinter = message.NewPrinter(language.Russian)
	// Russian digit grouping uses no-break spaces; chat text uses plain ones.
	plainSpaces = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\u2212", "-")
)

// Thousands formats n with a space between groups of three digits.
func Thousands(n int) string {
	return plainSpaces.Replace(ruPrinter.Sprintf("%d", n))
}

// Kcal formats a calorie amount, e.g. "1 500 ккал".
func Kcal(n int) string {
	return Thousands(n) + " ккал"
}

// Grams formats a macro amount with one decimal, e.g. "12.5г".
func Grams(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "г"
}

// CalorieLine shows eaten calories against the target and what is left.
func CalorieLine(current, target int) string {
	if target <= 0 {
		return fmt.Sprintf("• Калории: %s (цель не задана)", Kcal(current))
	}
	progress := float64(current) / float64(target)
	line := fmt.Sprintf("%s Калории: %s / %s %s",
		ProgressEmoji(progress), Thousands(current), Kcal(target), ProgressBar(float64(current), float64(target)))
	if remaining := target - current; remaining > 0 {
		return line + "\n   Остаток: " + Kcal(remaining)
	} else if remaining < 0 {
		return line + "\n   Превышение: " + Kcal(-remaining)
	}
	return line
}

// MacroLine shows one macro against its target.
func MacroLine(name string, current, target float64) string {
	if target <= 0 {
		return fmt.Sprintf("• %s: %s (цель не задана)", name, Grams(current))
	}
	progress := current / target
	return fmt.Sprintf("%s %s: %s / %s %s",
		ProgressEmoji(progress), name, Grams(current), Grams(target), ProgressBar(current, target))
}
