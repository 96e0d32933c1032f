package slots

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var months = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"março":     time.March,
	"marco":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
}

var (
	dateRe = regexp.MustCompile(`(?i)(?:^|\s)(?:no\s+dia|dia|em)\s+(\d{1,2})\b(?:\s+de\s+(\p{L}+))?(?:\s+de\s+(\d{4}))?`)
	timeRe = regexp.MustCompile(`(?i)(?:^|\s)(?:às|as|horas|hora)\s*(\d{1,2})(?:[:h](\d{2}))?(?:\s*h(?:oras?)?)?(?:[^\d]|$)`)
)

// MonthNumber maps a Portuguese month name to its month, case-insensitively.
func MonthNumber(name string) (time.Month, bool) {
	m, ok := months[strings.ToLower(name)]
	return m, ok
}

// Date returns the date following "dia", "em" or "no dia" as YYYY-MM-DD.
// A missing or unknown month defaults to now's month, a missing year to
// now's year. Dates that do not exist on the calendar are rejected.
func Date(text string, now time.Time) (string, bool) {
	m := dateRe.FindStringSubmatch(Normalize(text))
	if m == nil {
		return "", false
	}

	day, _ := strconv.Atoi(m[1])
	month := now.Month()
	if mm, ok := MonthNumber(m[2]); ok {
		month = mm
	}
	year := now.Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}

	if day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

// Time returns the time following "às", "as" or "hora" as HH:MM. Minutes
// default to "00"; trailing "h" or "horas" markers are ignored.
func Time(text string) (string, bool) {
	m := timeRe.FindStringSubmatch(Normalize(text))
	if m == nil {
		return "", false
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
