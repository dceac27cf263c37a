package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteline/autobody-ai-platform/internal/calendar"
	"github.com/quoteline/autobody-ai-platform/internal/estimate"
	"github.com/quoteline/autobody-ai-platform/internal/session"
	"github.com/quoteline/autobody-ai-platform/internal/shops"
	"github.com/quoteline/autobody-ai-platform/pkg/logging"
)

type scriptedEstimator struct {
	raw *estimate.RawEstimate
	err error
}

func (s *scriptedEstimator) EstimateDamage(_ context.Context, _ []string) (*estimate.RawEstimate, error) {
	return s.raw, s.err
}

type recordingBooker struct {
	bookings []calendar.Booking
	err      error
}

func (b *recordingBooker) CreateEvent(_ context.Context, booking calendar.Booking) (string, error) {
	b.bookings = append(b.bookings, booking)
	if b.err != nil {
		return "", b.err
	}
	return "evt-123", nil
}

func testLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)
	return loc
}

type engineFixture struct {
	engine *Engine
	store  session.Store
	booker *recordingBooker
	now    time.Time
}

func newFixture(t *testing.T, estClient estimate.Client) *engineFixture {
	t.Helper()
	loc := testLocation(t)
	now := time.Date(2025, time.February, 9, 13, 30, 0, 0, loc)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewRedisStore(client, time.Hour)

	booker := &recordingBooker{}
	engine := NewEngine(Config{
		Sessions:  store,
		Estimator: estimate.NewService(estClient, time.Second, logging.Default()),
		Booker:    booker,
		SlotCount: 3,
		Location:  loc,
		Now:       func() time.Time { return now },
		Logger:    logging.Default(),
	})
	return &engineFixture{engine: engine, store: store, booker: booker, now: now}
}

var testShop = shops.ShopConfig{ID: "shop-a", Name: "Northside Collision", CalendarID: "cal-a", WebhookToken: "tok-a"}

func TestImageTriggeredEstimate(t *testing.T) {
	fx := newFixture(t, &scriptedEstimator{raw: &estimate.RawEstimate{
		DamageAreas: []string{"front bumper", "hood"},
		DamageTypes: []string{"dent"},
	}})
	ctx := context.Background()

	reply := fx.engine.Handle(ctx, testShop, Inbound{
		From:      "+15550001111",
		MediaURLs: []string{"https://media/0.jpg", "https://media/1.jpg"},
	})

	assert.Contains(t, reply, "🔎 AI Damage Estimate for Northside Collision")
	assert.Contains(t, reply, "Severity: Moderate")
	assert.Contains(t, reply, "Damaged Areas: front bumper, hood")
	assert.Contains(t, reply, "Damage Types: dent")
	assert.Contains(t, reply, "Estimated Cost: $450 – $1,200")
	assert.Contains(t, reply, "Confidence: 0.70")
	assert.Contains(t, reply, "Reply with a number to book an in-person estimate:")

	// Exactly three numbered next-day slots.
	assert.Contains(t, reply, "1) Mon Feb 10 at 09:00 AM")
	assert.Contains(t, reply, "2) Mon Feb 10 at 11:00 AM")
	assert.Contains(t, reply, "3) Mon Feb 10 at 02:00 PM")
	assert.NotContains(t, reply, "4)")

	sess, err := fx.store.Get(ctx, testShop.ID, "+15550001111")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, sess.AwaitingTime)
	assert.Len(t, sess.Slots, 3)
}

func TestEmptyEstimatePlaceholders(t *testing.T) {
	fx := newFixture(t, &scriptedEstimator{raw: &estimate.RawEstimate{}})

	reply := fx.engine.Handle(context.Background(), testShop, Inbound{
		From:      "+15550001111",
		MediaURLs: []string{"https://media/0.jpg"},
	})

	assert.Contains(t, reply, "Damaged Areas: General Damage")
	assert.Contains(t, reply, "Damage Types: Unspecified")
}

func TestSelectionBooksAndConfirms(t *testing.T) {
	fx := newFixture(t, &scriptedEstimator{raw: &estimate.RawEstimate{}})
	ctx := context.Background()

	fx.engine.Handle(ctx, testShop, Inbound{From: "+15550001111", MediaURLs: []string{"https://media/0.jpg"}})

	reply := fx.engine.Handle(ctx, testShop, Inbound{From: "+15550001111", Body: "2"})
	assert.Equal(t, "Your appointment is booked for Mon Feb 10 at 11:00 AM.", reply)

	require.Len(t, fx.booker.bookings, 1)
	booking := fx.booker.bookings[0]
	assert.Equal(t, "cal-a", booking.CalendarID)
	assert.Equal(t, "+15550001111", booking.CustomerPhone)
	assert.Equal(t, 45*time.Minute, booking.End.Sub(booking.Start))
	assert.Equal(t, 11, booking.Start.Hour())

	sess, err := fx.store.Get(ctx, testShop.ID, "+15550001111")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.False(t, sess.AwaitingTime)
}

func TestOutOfRangeSelectionFallsThrough(t *testing.T) {
	fx := newFixture(t, &scriptedEstimator{raw: &estimate.RawEstimate{}})
	ctx := context.Background()

	fx.engine.Handle(ctx, testShop, Inbound{From: "+15550001111", MediaURLs: []string{"https://media/0.jpg"}})

	reply := fx.engine.Handle(ctx, testShop, Inbound{From: "+15550001111", Body: "4"})
	assert.Contains(t, reply, "Thanks for messaging Northside Collision!")
	assert.Empty(t, fx.booker.bookings)

	sess, err := fx.store.Get(ctx, testShop.ID, "+15550001111")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, sess.AwaitingTime, "out-of-range selection must not change state")
}

func TestSelectionWinsOverImagesWhileAwaiting(t *testing.T) {
	fx := newFixture(t, &scriptedEstimator{raw: &estimate.RawEstimate{}})
	ctx := context.Background()

	fx.engine.Handle(ctx, testShop, Inbound{From: "+15550001111", MediaURLs: []string{"https://media/0.jpg"}})

	reply := fx.engine.Handle(ctx, testShop, Inbound{
		From:      "+15550001111",
		Body:      "1",
		MediaURLs: []string{"https://media/2.jpg"},
	})
	assert.True(t, strings.HasPrefix(reply, "Your appointment is booked for"),
		"a valid selection while awaiting wins over attached images")
}

func TestSelectionIgnoredWhenNotAwaiting(t *testing.T) {
	fx := newFixture(t, &scriptedEstimator{raw: &estimate.RawEstimate{}})
	ctx := context.Background()

	reply := fx.engine.Handle(ctx, testShop, Inbound{From: "+15550001111", Body: "2"})
	assert.Contains(t, reply, "Thanks for messaging Northside Collision!")
	assert.Empty(t, fx.booker.bookings)
}

func TestGenericReplyCreatesNoSession(t *testing.T) {
	fx := newFixture(t, &scriptedEstimator{raw: &estimate.RawEstimate{}})
	ctx := context.Background()

	fx.engine.Handle(ctx, testShop, Inbound{From: "+15550001111", Body: "hello there"})

	sess, err := fx.store.Get(ctx, testShop.ID, "+15550001111")
	require.NoError(t, err)
	assert.Nil(t, sess, "generic reply must not create a session")
}

func TestBookingFailureDoesNotChangeReply(t *testing.T) {
	fx := newFixture(t, &scriptedEstimator{raw: &estimate.RawEstimate{}})
	fx.booker.err = errors.New("calendar is down")
	ctx := context.Background()

	fx.engine.Handle(ctx, testShop, Inbound{From: "+15550001111", MediaURLs: []string{"https://media/0.jpg"}})

	reply := fx.engine.Handle(ctx, testShop, Inbound{From: "+15550001111", Body: "1"})
	assert.Equal(t, "Your appointment is booked for Mon Feb 10 at 09:00 AM.", reply)
	assert.Len(t, fx.booker.bookings, 1, "booking attempted exactly once, never retried")

	sess, err := fx.store.Get(ctx, testShop.ID, "+15550001111")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.False(t, sess.AwaitingTime)
}

func TestEstimatorFailureStillReplies(t *testing.T) {
	fx := newFixture(t, &scriptedEstimator{err: fmt.Errorf("%w: timeout", estimate.ErrUnavailable)})

	reply := fx.engine.Handle(context.Background(), testShop, Inbound{
		From:      "+15550001111",
		MediaURLs: []string{"https://media/0.jpg"},
	})
	assert.Contains(t, reply, "Confidence: 0.55")
	assert.Contains(t, reply, "Estimated Cost: $450 – $1,200")
	assert.Contains(t, reply, "1) ")
}

func TestCrossTenantIsolation(t *testing.T) {
	fx := newFixture(t, &scriptedEstimator{raw: &estimate.RawEstimate{}})
	ctx := context.Background()
	sender := "+15550001111"
	otherShop := shops.ShopConfig{ID: "shop-b", Name: "Lakeview Auto Body", WebhookToken: "tok-b"}

	fx.engine.Handle(ctx, testShop, Inbound{From: sender, MediaURLs: []string{"https://media/0.jpg"}})

	// Same sender at a different shop sees no pending selection.
	reply := fx.engine.Handle(ctx, otherShop, Inbound{From: sender, Body: "1"})
	assert.Contains(t, reply, "Thanks for messaging Lakeview Auto Body!")
	assert.Empty(t, fx.booker.bookings)

	sess, err := fx.store.Get(ctx, testShop.ID, sender)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, sess.AwaitingTime, "shop-a session untouched by shop-b traffic")
}

func TestEndToEndEstimateThenBooking(t *testing.T) {
	fx := newFixture(t, &scriptedEstimator{raw: &estimate.RawEstimate{
		Severity:   strPtr("Severe"),
		MinCost:    f64Ptr(900),
		MaxCost:    f64Ptr(3200),
		Confidence: f64Ptr(0.9),
	}})
	ctx := context.Background()
	sender := "+15557772222"

	first := fx.engine.Handle(ctx, testShop, Inbound{From: sender, MediaURLs: []string{"https://media/0.jpg"}})
	assert.Contains(t, first, "Severity: Severe")
	assert.Contains(t, first, "Estimated Cost: $900 – $3,200")
	assert.Contains(t, first, "Confidence: 0.90")
	assert.Equal(t, 3, strings.Count(first, ") Mon Feb 10"))

	second := fx.engine.Handle(ctx, testShop, Inbound{From: sender, Body: "1"})
	assert.Equal(t, "Your appointment is booked for Mon Feb 10 at 09:00 AM.", second)

	sess, err := fx.store.Get(ctx, testShop.ID, sender)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.False(t, sess.AwaitingTime)

	// A stale "2" after booking falls back to the intro, not a re-booking.
	third := fx.engine.Handle(ctx, testShop, Inbound{From: sender, Body: "2"})
	assert.Contains(t, third, "Thanks for messaging")
	assert.Len(t, fx.booker.bookings, 1)
}

func TestNilBookerStillConfirms(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2025, time.February, 9, 13, 30, 0, 0, loc)
	store := session.NewMemoryStore(time.Hour)
	engine := NewEngine(Config{
		Sessions:  store,
		Estimator: estimate.NewService(&scriptedEstimator{raw: &estimate.RawEstimate{}}, time.Second, logging.Default()),
		SlotCount: 3,
		Location:  loc,
		Now:       func() time.Time { return now },
	})
	ctx := context.Background()

	engine.Handle(ctx, shops.DefaultShop, Inbound{From: "+15550001111", MediaURLs: []string{"https://media/0.jpg"}})
	reply := engine.Handle(ctx, shops.DefaultShop, Inbound{From: "+15550001111", Body: "3"})
	assert.Equal(t, "Your appointment is booked for Mon Feb 10 at 02:00 PM.", reply)
}

func TestSelectionTracksConfiguredSlotCount(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2025, time.February, 9, 13, 30, 0, 0, loc)
	booker := &recordingBooker{}
	engine := NewEngine(Config{
		Sessions:  session.NewMemoryStore(time.Hour),
		Estimator: estimate.NewService(&scriptedEstimator{raw: &estimate.RawEstimate{}}, time.Second, logging.Default()),
		Booker:    booker,
		SlotCount: 4,
		Location:  loc,
		Now:       func() time.Time { return now },
	})
	ctx := context.Background()

	first := engine.Handle(ctx, testShop, Inbound{From: "+15550001111", MediaURLs: []string{"https://media/0.jpg"}})
	assert.Contains(t, first, "4) Mon Feb 10 at 04:00 PM")

	// Choices outside the offered range still fall through to the intro.
	for _, body := range []string{"0", "5", "04x"} {
		reply := engine.Handle(ctx, testShop, Inbound{From: "+15550001111", Body: body})
		assert.Contains(t, reply, "Thanks for messaging", "body %q", body)
	}
	assert.Empty(t, booker.bookings)

	reply := engine.Handle(ctx, testShop, Inbound{From: "+15550001111", Body: "4"})
	assert.Equal(t, "Your appointment is booked for Mon Feb 10 at 04:00 PM.", reply)
	require.Len(t, booker.bookings, 1)
	assert.Equal(t, 16, booker.bookings[0].Start.Hour())
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
