package nutrition

import (
	"regexp"
	"strings"
)

var (
	totalHeading   = regexp.MustCompile(`(?i)общее\s+бжу|бжу\s+(?:всего\s+)?блюда|бжу\s+в\s+блюде|итого\s+бжу|overall\s+macros|total\s+macros|macros\s+in\s+the\s+dish`)
	per100gHeading = regexp.MustCompile(`(?i)(?:бжу|пищевая\s+ценность|macros|nutrition)\s+(?:на|per)\s+100\s*(?:г|гр|g|мл|ml)`)
	noteHeading    = regexp.MustCompile(`(?i)обратите\s+внимание|примечани|^\W*notes?\s*:`)
	per100gLine    = regexp.MustCompile(`(?i)(?:на|per|/)\s*100\s*(?:г|гр|g|мл|ml)`)
)

func isHeading(line string) bool {
	return totalHeading.MatchString(line) || per100gHeading.MatchString(line) || noteHeading.MatchString(line)
}

// sectionAfter returns the text under the first line matching heading: the
// rest of the heading line after the match, followed by the lines up to the
// next blank line or the next heading. Blank lines directly under the
// heading are skipped.
func sectionAfter(heading *regexp.Regexp, text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		loc := heading.FindStringIndex(line)
		if loc == nil {
			continue
		}
		body := []string{line[loc[1]:]}
		started := false
		for _, next := range lines[i+1:] {
			if strings.TrimSpace(next) == "" {
				if started {
					break
				}
				continue
			}
			if isHeading(next) {
				break
			}
			started = true
			body = append(body, next)
		}
		return strings.Join(body, "\n"), true
	}
	return "", false
}

// totalSection returns the "total for dish" macro section.
func totalSection(text string) (string, bool) {
	return sectionAfter(totalHeading, text)
}

// per100gSection returns the per-100g macro section.
func per100gSection(text string) (string, bool) {
	return sectionAfter(per100gHeading, text)
}

// outsidePer100g drops the per-100g section and every line that states a
// value per 100 g, leaving text whose macro figures can only be totals.
func outsidePer100g(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	inPer100g, started := false, false
	for _, line := range lines {
		blank := strings.TrimSpace(line) == ""
		switch {
		case per100gHeading.MatchString(line):
			inPer100g, started = true, false
			continue
		case inPer100g && blank && !started:
			continue
		case inPer100g && (blank || isHeading(line)):
			inPer100g = false
		case inPer100g:
			started = true
			continue
		}
		if per100gLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
