package nutrition

import (
	"regexp"
	"strings"
)

var repeatedSpaces = regexp.MustCompile(` {2,}`)

// CleanForDisplay strips markdown emphasis markers (**, __, *, _) and
// collapses runs of spaces inside each line. Line breaks are kept as they are.
func CleanForDisplay(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(emphasis.Replace(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(repeatedSpaces.ReplaceAllString(line, " "), " \t")
	}
	return strings.Join(lines, "\n")
}

var explanation = regexp.MustCompile(`(?i)примечани|рекомендац|совет|обратит?е?\s+внимание|важно|пояснени|disclaimer|recommend|\bnote\b|\btips?\b`)

// RemoveExplanations drops every line that reads like a note, a
// recommendation or a disclaimer, keeping only data lines.
func RemoveExplanations(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if explanation.MatchString(normalize(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
