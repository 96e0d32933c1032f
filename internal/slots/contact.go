package slots

import (
	"regexp"
	"strings"
)

var (
	phoneRe = regexp.MustCompile(`(?i)(?:telefone|celular|fone)(?:\s+(?:é|e))?\s*:?\s*([\d\s().-]{10,20})`)
	emailRe = regexp.MustCompile(`(?i)e-?mail(?:\s+(?:é|e))?\s*:?\s*([a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,})`)
)

// Phone returns the 10 or 11 digit number following "telefone", "celular"
// or "fone". Spacing and punctuation between digits are dropped.
func Phone(text string) (string, bool) {
	m := phoneRe.FindStringSubmatch(Normalize(text))
	if m == nil {
		return "", false
	}

	var b strings.Builder
	for _, r := range m[1] {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 || len(digits) > 11 {
		return "", false
	}
	return digits, true
}

// Email returns the address following "email" or "e-mail", lower-cased.
func Email(text string) (string, bool) {
	m := emailRe.FindStringSubmatch(Normalize(text))
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}
