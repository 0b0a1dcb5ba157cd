package nutrition

import (
	"regexp"
	"strings"
)

// MaxCalories is the exclusive upper bound for a dish total; larger values
// are treated as model hallucinations.
const MaxCalories = 10000

const kcal = `(?:ккал|kcal)`

// MacroResult is the structured outcome of reading one analysis text.
// Missing macros are 0 and a missing dish name is empty.
type MacroResult struct {
	Calories int
	ProteinG float64
	FatG     float64
	CarbsG   float64
	DishName string
}

// Macros holds protein, fat and carbs grams as read from one section.
type Macros struct {
	Protein Field[float64]
	Fat     Field[float64]
	Carbs   Field[float64]
}

// Any reports whether at least one macro was extracted.
func (m Macros) Any() bool {
	return m.Protein.OK() || m.Fat.OK() || m.Carbs.OK()
}

// Extraction keeps every field with its outcome so callers and tests can tell
// a default from a real reading.
type Extraction struct {
	DishName Field[string]
	Calories Field[int]
	// Total is read from the "total for dish" section when present,
	// otherwise from the text outside any per-100g section.
	Total Macros
	// Per100g is read from the per-100g section.
	Per100g Macros
	// TotalSection is true when the "total for dish" heading was found.
	TotalSection bool
}

// Result collapses the extraction to concrete values. fallbackName is used
// when the text names no dish.
func (e Extraction) Result(fallbackName string) MacroResult {
	return MacroResult{
		Calories: e.Calories.Or(0),
		ProteinG: e.Total.Protein.Or(0),
		FatG:     e.Total.Fat.Or(0),
		CarbsG:   e.Total.Carbs.Or(0),
		DishName: e.DishName.Or(fallbackName),
	}
}

// ExtractMacros reads dish name, total calories and total macros from text.
// Calories are 0 when no in-bounds figure is found.
func ExtractMacros(text string) MacroResult {
	return Extract(text).Result("")
}

// Extract reads every field it can from a model answer.
func Extract(text string) Extraction {
	text = prepare(text)
	e := Extraction{
		DishName: extractDishName(text),
		Calories: extractCalories(text),
	}
	if section, ok := totalSection(text); ok {
		e.TotalSection = true
		e.Total = extractMacroFields(section)
	} else {
		e.Total = extractMacroFields(outsidePer100g(text))
	}
	if section, ok := per100gSection(text); ok {
		e.Per100g = extractMacroFields(section)
	}
	return e
}

var emphasis = strings.NewReplacer("**", "", "__", "", "*", "", "_", "")

func prepare(text string) string {
	return emphasis.Replace(normalize(text))
}

// anchoredCalories are labeled total-calorie lines. They are tried first, in
// order, and the first in-bounds value wins.
var anchoredCalories = []*regexp.Regexp{
	regexp.MustCompile(`(?im)калорийность:\s*` + calorieNumber + `\s*` + kcal + `\.?\s*$`),
	regexp.MustCompile(`(?i)общая\s+калорийность:\s*` + calorieNumber + `\s*` + kcal),
	regexp.MustCompile(`(?i)калорийность\s+блюда:\s*` + calorieNumber + `\s*` + kcal),
	regexp.MustCompile(`(?i)всего\s+калорий:\s*` + calorieNumber + `\s*` + kcal),
	regexp.MustCompile(`(?i)общее\s+количество\s+калорий:\s*` + calorieNumber + `\s*` + kcal),
	regexp.MustCompile(`(?i)total\s+calories:\s*` + calorieNumber + `\s*` + kcal),
	regexp.MustCompile(`(?im)calories:\s*` + calorieNumber + `\s*` + kcal + `\.?\s*$`),
}

// looseCalories are searched when no labeled line matched. Each may match
// several times; see lastCandidate.
var looseCalories = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:калорийность|калорий|calories)[^\n]*?` + calorieNumber + `\s*` + kcal),
	regexp.MustCompile(`(?i)` + calorieNumber + `\s*` + kcal),
}

// per100gSuffix follows a kcal token that describes 100 g rather than the dish.
var per100gSuffix = regexp.MustCompile(`(?i)^\s*(?:/|на|per|в)\s*100\s*(?:г|g|мл|ml)`)

func validTotal(n int) bool {
	return n > 0 && n < MaxCalories
}

func extractCalories(text string) Field[int] {
	var out Field[int]
	for _, re := range anchoredCalories {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			n, ok := parseCalories(m[1])
			if !ok {
				continue
			}
			if validTotal(n) {
				return found(n)
			}
			out = merge(out, Field[int]{Value: n, Outcome: OutOfBounds})
		}
	}
	for _, re := range looseCalories {
		n, ok := lastCandidate(re, text)
		if !ok {
			continue
		}
		if validTotal(n) {
			return found(n)
		}
		out = merge(out, Field[int]{Value: n, Outcome: OutOfBounds})
	}
	return out
}

// lastCandidate returns the last calorie figure matched by re, skipping
// figures stated per 100 g. Model answers usually list per-100g values first
// and the dish total last; this is an assumption about answer layout, not a
// guarantee, and is kept here so a format change shows up in its tests.
func lastCandidate(re *regexp.Regexp, text string) (int, bool) {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if per100gSuffix.MatchString(text[m[1]:]) || per100gLine.MatchString(lineAt(text, m[2])) {
			continue
		}
		if n, ok := parseCalories(text[m[2]:m[3]]); ok {
			return n, true
		}
	}
	return 0, false
}

// lineAt returns the line of text containing byte offset i.
func lineAt(text string, i int) string {
	start := strings.LastIndexByte(text[:i], '\n') + 1
	end := strings.IndexByte(text[i:], '\n')
	if end < 0 {
		return text[start:]
	}
	return text[start : i+end]
}

var dishName = regexp.MustCompile(`(?im)^[^\p{L}\p{N}\n]*(?:название(?:\s+блюда)?|блюдо|dish(?:\s+name)?|name)\s*:[ \t]*(.*?)[ \t]*$`)

func extractDishName(text string) Field[string] {
	for _, m := range dishName.FindAllStringSubmatch(text, -1) {
		name := strings.Trim(m[1], " \t\"'«»`[]")
		if name != "" {
			return found(name)
		}
	}
	return Field[string]{}
}

var (
	proteinValue = regexp.MustCompile(`(?i)(?:белк\p{L}*|протеин\p{L}*|protein\p{L}*)\s*[:\-–—]\s*` + decimal)
	fatValue     = regexp.MustCompile(`(?i)(?:жир\p{L}*|fats?)\s*[:\-–—]\s*` + decimal)
	carbsValue   = regexp.MustCompile(`(?i)(?:углевод\p{L}*|carbohydrates?|carbs)\s*[:\-–—]\s*` + decimal)
)

func extractMacroFields(text string) Macros {
	return Macros{
		Protein: firstGrams(proteinValue, text),
		Fat:     firstGrams(fatValue, text),
		Carbs:   firstGrams(carbsValue, text),
	}
}

func firstGrams(re *regexp.Regexp, text string) Field[float64] {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if v, ok := parseDecimal(m[1]); ok {
			return found(v)
		}
	}
	return Field[float64]{}
}
