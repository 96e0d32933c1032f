package slots

import (
	"regexp"
	"strconv"
	"strings"
)

var valueRe = regexp.MustCompile(`(?i)(?:no\s+valor(?:\s+de)?|valor\s+de|(?:^|\s)por)\s*(?:r\$\s*)?(\d[\d.]*(?:,\d+)?)`)

// Value returns the monetary amount following "valor de", "no valor" or
// "por", written in Brazilian format ("1.234,56"), normalized to a plain
// decimal string ("1234.56").
func Value(text string) (string, bool) {
	m := valueRe.FindStringSubmatch(Normalize(text))
	if m == nil {
		return "", false
	}
	v := normalizeAmount(m[1])
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		return "", false
	}
	return v, true
}

// normalizeAmount drops thousands separators and turns the decimal comma
// into a dot. Without a comma, a final dot group that is not three digits
// long is read as a decimal point ("3000.50").
func normalizeAmount(raw string) string {
	raw = strings.TrimRight(raw, ".")

	if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		return strings.Replace(raw, ",", ".", 1)
	}
	if i := strings.LastIndex(raw, "."); i >= 0 && len(raw)-i-1 != 3 {
		return strings.ReplaceAll(raw[:i], ".", "") + raw[i:]
	}
	return strings.ReplaceAll(raw, ".", "")
}
