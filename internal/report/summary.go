package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/vbonduro/calorigram/internal/domain"
	"github.com/vbonduro/calorigram/internal/nutrition"
)

var weekdays = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// Estimate is the reply shown after a meal has been analyzed and before it
// is logged.
func Estimate(r nutrition.MacroResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🍽️ %s\n", r.DishName)
	fmt.Fprintf(&b, "🔥 %s\n", Kcal(r.Calories))
	fmt.Fprintf(&b, "Б: %s • Ж: %s • У: %s", Grams(r.ProteinG), Grams(r.FatG), Grams(r.CarbsG))
	return b.String()
}

// Day renders one day's totals against targets, with a per-meal-type
// breakdown and the list of logged dishes.
func Day(s domain.DaySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Статистика за %s\n\n", s.Date.Format("02.01.2006"))

	if s.Totals.Meals == 0 {
		b.WriteString("Сегодня ещё нет записей о приёмах пищи.")
		return b.String()
	}

	b.WriteString(CalorieLine(s.Totals.Calories, s.Targets.Calories))
	b.WriteString("\n")
	b.WriteString(MacroLine("Белки", s.Totals.ProteinG, s.Targets.ProteinG))
	b.WriteString("\n")
	b.WriteString(MacroLine("Жиры", s.Totals.FatG, s.Targets.FatG))
	b.WriteString("\n")
	b.WriteString(MacroLine("Углеводы", s.Totals.CarbsG, s.Targets.CarbsG))
	b.WriteString("\n\n")

	for _, mt := range domain.MealTypes {
		t, ok := s.ByType[mt]
		if !ok || t.Meals == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", mt.Title(), Kcal(t.Calories))
		for _, m := range s.Meals {
			if m.MealType == mt {
				fmt.Fprintf(&b, "  • %s (%s)\n", m.DishName, Kcal(m.Calories))
			}
		}
	}

	if s.Targets.Calories > 0 {
		b.WriteString("\n")
		b.WriteString(MacroAdvice(s.Totals, s.Targets))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Week renders seven daily totals and the average over days with meals.
func Week(s domain.WeekSummary) string {
	var b strings.Builder
	b.WriteString("📅 Статистика за неделю\n\n")

	total, days := 0, 0
	for _, d := range s.Days {
		label := DateLabel(d.Date)
		if d.Totals.Meals == 0 {
			fmt.Fprintf(&b, "%s: —\n", label)
			continue
		}
		total += d.Totals.Calories
		days++
		mark := ""
		if s.Targets.Calories > 0 {
			mark = " " + ProgressEmoji(float64(d.Totals.Calories)/float64(s.Targets.Calories))
		}
		fmt.Fprintf(&b, "%s: %s%s\n", label, Kcal(d.Totals.Calories), mark)
	}

	if days == 0 {
		b.WriteString("\nЗа неделю нет записей.")
		return b.String()
	}
	fmt.Fprintf(&b, "\nВ среднем: %s в день", Kcal(total/days))
	if s.Targets.Calories > 0 {
		fmt.Fprintf(&b, " (цель %s)", Kcal(s.Targets.Calories))
	}
	return b.String()
}

// MacroAdvice suggests what to add or cut to reach the macro targets.
// Protein and fat are flagged beyond 5 g off target, carbs beyond 10 g.
func MacroAdvice(current domain.Totals, target domain.Targets) string {
	var lines []string
	if d := target.ProteinG - current.ProteinG; d > 5 {
		lines = append(lines, fmt.Sprintf("• Добавьте белка: +%s (творог, яйца, мясо)", Grams(d)))
	} else if d < -5 {
		lines = append(lines, fmt.Sprintf("• Уменьшите белки: %s", Grams(-d)))
	}
	if d := target.FatG - current.FatG; d > 5 {
		lines = append(lines, fmt.Sprintf("• Добавьте жиров: +%s (орехи, авокадо, масло)", Grams(d)))
	} else if d < -5 {
		lines = append(lines, fmt.Sprintf("• Уменьшите жиры: %s", Grams(-d)))
	}
	if d := target.CarbsG - current.CarbsG; d > 10 {
		lines = append(lines, fmt.Sprintf("• Добавьте углеводов: +%s (фрукты, крупы, хлеб)", Grams(d)))
	} else if d < -10 {
		lines = append(lines, fmt.Sprintf("• Уменьшите углеводы: %s", Grams(-d)))
	}
	if len(lines) == 0 {
		return "• Отличный баланс БЖУ! Продолжайте в том же духе"
	}
	return strings.Join(lines, "\n")
}

// DateLabel formats a day for buttons and headers.
func DateLabel(t time.Time) string {
	return fmt.Sprintf("%s %s", weekdays[t.Weekday()], t.Format("02.01"))
}
