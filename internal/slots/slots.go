package slots

import "time"

// Duration is the fixed length of an in-person estimate appointment.
const Duration = 45 * time.Minute

// candidateHours are the daily appointment start hours offered to customers.
var candidateHours = []int{9, 11, 14, 16}

const displayLayout = "Mon Jan 02 at 03:04 PM"

// Slot is a candidate appointment start time.
type Slot struct {
	Start time.Time `json:"start"`
}

// End returns the appointment end time.
func (s Slot) End() time.Time {
	return s.Start.Add(Duration)
}

// Label formats the slot the way it is shown to customers,
// e.g. "Mon Feb 10 at 10:00 AM".
func (s Slot) Label() string {
	return s.Start.Format(displayLayout)
}

// Generate returns up to count slots on the calendar day after now, drawn
// from the fixed candidate hours, keeping only starts strictly after now,
// in ascending order. Deterministic for a fixed now; never wraps to a
// further day when fewer candidates qualify.
func Generate(now time.Time, count int) []Slot {
	if count <= 0 {
		return nil
	}

	tomorrow := now.AddDate(0, 0, 1)
	generated := make([]Slot, 0, count)
	for _, hour := range candidateHours {
		start := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, 0, 0, 0, now.Location())
		if !start.After(now) {
			continue
		}
		generated = append(generated, Slot{Start: start})
		if len(generated) == count {
			break
		}
	}
	return generated
}
