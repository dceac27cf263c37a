// Package calendar creates appointment events on a shop's calendar.
// Booking is best-effort throughout: a missing calendar or a failed create
// never blocks the conversation reply.
package calendar

import (
	"context"
	"time"
)

// Booking describes one appointment to create.
type Booking struct {
	ShopID        string
	ShopName      string
	CalendarID    string
	CustomerPhone string
	Start         time.Time
	End           time.Time
}

// Booker creates a calendar event and returns the provider's event ID.
// An empty event ID with a nil error means the booking was a valid no-op
// (e.g. the shop has no calendar configured).
type Booker interface {
	CreateEvent(ctx context.Context, b Booking) (string, error)
}
