package slots

import (
	"regexp"
	"strings"
)

var (
	locationKeyRe = regexp.MustCompile(`(?i)(?:^|\s)(?:no|na|local)\b`)

	// Occurrences that introduce a date, a value or a later "local" keyword
	// are not locations.
	locationSkipRe = regexp.MustCompile(`(?i)^(?:dia|valor|local)(?:\s|$)`)

	locationEndRe = regexp.MustCompile(`(?i)\s+(?:(?:no\s+valor|no\s+dia|às|valor)(?:\s|$)|por\s+(?:r\$\s*)?\d)`)
)

// Location returns the place following "no", "na" or "local", up to
// "no valor", "no dia", "às", "valor", "por" followed by an amount, or the
// end of the text.
func Location(text string) (string, bool) {
	text = Normalize(text)

	for _, loc := range locationKeyRe.FindAllStringIndex(text, -1) {
		rest := text[loc[1]:]
		if rest == "" || !strings.ContainsRune(" \t:", rune(rest[0])) {
			continue
		}
		rest = strings.TrimLeft(rest, " \t:")
		rest = strings.TrimPrefix(rest, "é ")
		if locationSkipRe.MatchString(rest) {
			continue
		}
		if end := locationEndRe.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
		if place, ok := clean(rest); ok {
			return place, true
		}
	}
	return "", false
}
