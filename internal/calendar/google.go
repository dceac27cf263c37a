package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleBooker creates events through the Google Calendar API using a
// service account.
type GoogleBooker struct {
	events   *gcal.EventsService
	timezone string
}

// NewGoogleBooker builds a Booker from a service-account credentials file.
func NewGoogleBooker(ctx context.Context, credentialsFile, timezone string) (*GoogleBooker, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("calendar: credentials file path cannot be empty")
	}
	if timezone == "" {
		timezone = "UTC"
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create calendar service: %w", err)
	}
	return &GoogleBooker{events: svc.Events, timezone: timezone}, nil
}

// CreateEvent inserts the appointment on the shop's calendar. A shop
// without a calendar ID is a no-op success.
func (g *GoogleBooker) CreateEvent(ctx context.Context, b Booking) (string, error) {
	if b.CalendarID == "" {
		return "", nil
	}

	event := &gcal.Event{
		Summary:     fmt.Sprintf("Estimate appointment - %s", b.ShopName),
		Description: fmt.Sprintf("Customer phone: %s", b.CustomerPhone),
		Start: &gcal.EventDateTime{
			DateTime: b.Start.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: b.End.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
	}

	created, err := g.events.Insert(b.CalendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: failed to insert event: %w", err)
	}
	return created.Id, nil
}
