// Package slots extracts event-creation fields from Portuguese utterances.
//
// Each slot has its own extractor and is located independently of the
// others: a miss on one slot never affects another. All extractors accept
// raw utterance text; matching is case-insensitive except for the first
// letter of a client name.
package slots

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Result is the outcome of one extraction pass. An empty field means the
// slot was not found.
type Result struct {
	EventName  string `json:"event_name,omitempty"`
	ClientName string `json:"client_name,omitempty"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty"`
	Location   string `json:"location,omitempty"`
	Value      string `json:"value,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Empty reports whether no slot was found.
func (r Result) Empty() bool {
	return r == (Result{})
}

// Extract runs every slot extractor over text. now supplies the default
// month and year for dates that omit them.
func Extract(text string, now time.Time) Result {
	text = Normalize(text)

	var r Result
	r.EventName, _ = EventName(text)
	r.ClientName, _ = ClientName(text)
	r.Date, _ = Date(text, now)
	r.Time, _ = Time(text)
	r.Location, _ = Location(text)
	r.Value, _ = Value(text)
	r.Phone, _ = Phone(text)
	r.Email, _ = Email(text)
	return r
}

// Normalize composes decomposed accents (speech engines often emit NFD)
// and trims surrounding whitespace.
func Normalize(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}

var (
	eventNameRe = regexp.MustCompile(`(?i)(?:^|\s)evento\s+(?:é\s+)?(.+?)(?:\s+(?:da|do|no|às|em|dia)(?:\s|$)|\s*$)`)

	// Only the connector words are case-insensitive; the name itself must
	// start with an uppercase letter.
	clientNameRe = regexp.MustCompile(`(?:^|\s)(?i:da|do|cliente)\s+(?:(?i:é)\s+)?(\p{Lu}.*?)(?:\s+(?i:no|dia|em|às)(?:\s|$)|\s*$)`)
)

// EventName returns the text following the word "evento", up to the next
// connector ("da", "do", "no", "às", "em", "dia") or the end of the text.
func EventName(text string) (string, bool) {
	m := eventNameRe.FindStringSubmatch(Normalize(text))
	if m == nil {
		return "", false
	}
	return clean(m[1])
}

// ClientName returns the capitalized name following "da", "do" or
// "cliente", up to "no", "dia", "em", "às" or the end of the text.
func ClientName(text string) (string, bool) {
	m := clientNameRe.FindStringSubmatch(Normalize(text))
	if m == nil {
		return "", false
	}
	return clean(m[1])
}

// clean trims whitespace and sentence punctuation left around free-text
// slots by speech transcripts.
func clean(s string) (string, bool) {
	s = strings.Trim(s, " \t\n.,;:!?")
	return s, s != ""
}
