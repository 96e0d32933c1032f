// Package dialogue holds the event-creation draft and the state machine
// that accumulates it across voice turns.
package dialogue

import (
	"github.com/nadzzz/fotiva/internal/slots"
)

// Field labels, in the order they are reported as missing.
const (
	LabelEventName  = "nome do evento"
	LabelClientName = "nome do cliente"
	LabelDate       = "data"
	LabelTime       = "horário"
	LabelLocation   = "local"
	LabelValue      = "valor"
)

// Draft is the partially filled event being created by voice. It has the
// same shape as an extraction result; empty fields are unfilled.
type Draft slots.Result

// Merge returns d with every non-empty field of r written over it.
// Empty fields of r never clear a filled slot.
func (d Draft) Merge(r slots.Result) Draft {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&d.EventName, r.EventName)
	set(&d.ClientName, r.ClientName)
	set(&d.Date, r.Date)
	set(&d.Time, r.Time)
	set(&d.Location, r.Location)
	set(&d.Value, r.Value)
	set(&d.Phone, r.Phone)
	set(&d.Email, r.Email)
	return d
}

// Missing lists the labels of the required fields still empty.
func (d Draft) Missing() []string {
	var missing []string
	for _, f := range []struct {
		value string
		label string
	}{
		{d.EventName, LabelEventName},
		{d.ClientName, LabelClientName},
		{d.Date, LabelDate},
		{d.Time, LabelTime},
		{d.Location, LabelLocation},
		{d.Value, LabelValue},
	} {
		if f.value == "" {
			missing = append(missing, f.label)
		}
	}
	return missing
}

// Complete reports whether every required field is filled. Phone and
// email are optional.
func (d Draft) Complete() bool {
	return len(d.Missing()) == 0
}
