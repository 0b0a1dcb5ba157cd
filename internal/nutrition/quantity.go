package nutrition

import (
	"regexp"
	"strings"
)

// Unit is the normalized unit of a parsed quantity.
type Unit string

const (
	Gram       Unit = "g"
	Milliliter Unit = "ml"
)

// DefaultQuantity is one standard portion, used when no quantity is recognized.
var DefaultQuantity = Quantity{Amount: 100, Unit: Gram}

// Quantity is an amount normalized to grams or milliliters.
type Quantity struct {
	Amount float64
	Unit   Unit
}

type unitRule struct {
	re     *regexp.Regexp
	unit   Unit
	factor float64
}

// unitRule patterns need an explicit word end: \b in RE2 only knows ASCII
// letters, so it cannot terminate a Cyrillic unit like "л" before "лимон".
func newUnitRule(alternatives string, unit Unit, factor float64) unitRule {
	return unitRule{
		re:     regexp.MustCompile(decimal + `\s*(?:` + alternatives + `)(?:[^\p{L}]|$)`),
		unit:   unit,
		factor: factor,
	}
}

// unitRules is tried in order and the first matching rule wins. Spoons come
// before everything else because "ст.л." starts like other units, and within
// each rule longer spellings are listed before their prefixes.
var unitRules = []unitRule{
	newUnitRule(`ст\.\s?л\.?|столовых\s+ложек|столовые\s+ложки|столовой\s+ложки|столовая\s+ложка|tbsp|tablespoons?`, Gram, 15),
	newUnitRule(`ч\.\s?л\.?|чайных\s+ложек|чайные\s+ложки|чайной\s+ложки|чайная\s+ложка|tsp|teaspoons?`, Gram, 5),
	newUnitRule(`килограммов|килограмма|килограмм|кг|kg`, Gram, 1000),
	newUnitRule(`граммов|грамма|грамм|гр\.?|г\.?|grams?|g`, Gram, 1),
	newUnitRule(`миллилитров|миллилитра|миллилитр|мл|ml`, Milliliter, 1),
	newUnitRule(`литров|литра|литр|л\.?|liters?|litres?|l`, Milliliter, 1000),
	newUnitRule(`стаканов|стакана|стакан|cups?`, Gram, 250),
	newUnitRule(`штуки|штука|штук|шт\.?|pieces?|pcs|pc`, Gram, 100),
	newUnitRule(`порций|порции|порция|порц\.?|servings?|portions?`, Gram, 200),
}

// ParseQuantity extracts the first recognized quantity from a free-text dish
// description and normalizes it: kilograms and liters are multiplied by 1000,
// count-like units are approximated by weight (piece 100 g, portion 200 g,
// cup 250 g, tablespoon 15 g, teaspoon 5 g). Text without a recognizable
// quantity yields DefaultQuantity.
func ParseQuantity(description string) Quantity {
	q, ok := parseQuantity(description)
	if !ok {
		return DefaultQuantity
	}
	return q
}

func parseQuantity(description string) (Quantity, bool) {
	text := strings.ToLower(normalize(description))
	for _, rule := range unitRules {
		m := rule.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, ok := parseDecimal(m[1])
		if !ok {
			continue
		}
		return Quantity{Amount: amount * rule.factor, Unit: rule.unit}, true
	}
	return Quantity{}, false
}

var weightLine = regexp.MustCompile(`(?im)^[^\p{L}\p{N}\n]*(?:общий\s+)?(?:вес|масса|weight)[^:\n]*:\s*(.+)$`)

// ExtractWeight returns the weight stated by a "Вес: N г" line of a model
// answer, or the quantity written in description when the answer has none.
// Milliliters are treated as grams. The second result is false when neither
// text names a positive amount.
func ExtractWeight(analysis, description string) (float64, bool) {
	if m := weightLine.FindStringSubmatch(normalize(analysis)); m != nil {
		if q, ok := parseQuantity(m[1]); ok && q.Amount > 0 {
			return q.Amount, true
		}
	}
	if q, ok := parseQuantity(description); ok && q.Amount > 0 {
		return q.Amount, true
	}
	return 0, false
}
