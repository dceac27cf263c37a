// Package conversation implements the state machine that turns inbound SMS
// messages into replies and bookings. One logical session exists per
// (shop, sender) pair; the engine evaluates each message against the
// session, in this order: pending slot selection, new damage photos,
// generic instructions.
package conversation

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quoteline/autobody-ai-platform/internal/calendar"
	"github.com/quoteline/autobody-ai-platform/internal/estimate"
	"github.com/quoteline/autobody-ai-platform/internal/observability/metrics"
	"github.com/quoteline/autobody-ai-platform/internal/session"
	"github.com/quoteline/autobody-ai-platform/internal/shops"
	"github.com/quoteline/autobody-ai-platform/internal/slots"
	"github.com/quoteline/autobody-ai-platform/pkg/logging"
)

var engineTracer = otel.Tracer("autobody.internal.conversation")

const bookingTimeout = 10 * time.Second

// lockStripes bounds memory for per-key serialization; collisions only cost
// unnecessary serialization between unrelated keys.
const lockStripes = 64

// Inbound is one incoming message from a customer.
type Inbound struct {
	From      string
	Body      string
	MediaURLs []string
}

// Engine drives the conversation state machine.
type Engine struct {
	sessions  session.Store
	estimator *estimate.Service
	booker    calendar.Booker
	slotCount int
	location  *time.Location
	now       func() time.Time
	logger    *logging.Logger
	metrics   *metrics.ConversationMetrics

	locks [lockStripes]sync.Mutex
}

// Config wires the engine's collaborators. Booker may be nil (no calendar
// integration); Metrics may be nil.
type Config struct {
	Sessions  session.Store
	Estimator *estimate.Service
	Booker    calendar.Booker
	SlotCount int
	Location  *time.Location
	Now       func() time.Time
	Logger    *logging.Logger
	Metrics   *metrics.ConversationMetrics
}

// NewEngine creates the conversation engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Sessions == nil {
		panic("conversation: session store cannot be nil")
	}
	if cfg.Estimator == nil {
		panic("conversation: estimator cannot be nil")
	}
	if cfg.SlotCount <= 0 {
		cfg.SlotCount = 3
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Engine{
		sessions:  cfg.Sessions,
		estimator: cfg.Estimator,
		booker:    cfg.Booker,
		slotCount: cfg.SlotCount,
		location:  cfg.Location,
		now:       cfg.Now,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// Handle evaluates one inbound message for the given shop and returns the
// reply body. It always replies: estimator and calendar failures degrade to
// defaults, and store failures degrade to stateless behavior.
func (e *Engine) Handle(ctx context.Context, shop shops.ShopConfig, in Inbound) string {
	ctx, span := engineTracer.Start(ctx, "conversation.handle")
	defer span.End()
	span.SetAttributes(
		attribute.String("autobody.shop_id", shop.ID),
		attribute.Int("autobody.media_count", len(in.MediaURLs)),
	)

	// Read-modify-write for one session key must not interleave.
	lock := e.lockFor(shop.ID, in.From)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.sessions.Get(ctx, shop.ID, in.From)
	if err != nil {
		span.RecordError(err)
		e.logger.Error("failed to load session, continuing without state",
			"error", err, "shop_id", shop.ID)
		sess = nil
	}

	if reply, handled := e.handleSelection(ctx, shop, in, sess); handled {
		return reply
	}

	if len(in.MediaURLs) > 0 {
		return e.handleImages(ctx, shop, in)
	}

	e.observe("intro")
	return renderIntro(shop.Name)
}

// handleSelection consumes a pending slot choice. It reports handled=false
// when the message is not a selection, the session is not awaiting one, or
// the index is out of range of the current slot list; out-of-range choices
// deliberately fall through to the generic reply.
func (e *Engine) handleSelection(ctx context.Context, shop shops.ShopConfig, in Inbound, sess *session.Session) (string, bool) {
	if sess == nil || !sess.AwaitingTime {
		return "", false
	}
	idx, ok := selectionIndex(in.Body)
	if !ok || idx >= len(sess.Slots) {
		return "", false
	}

	chosen := sess.Slots[idx]
	e.book(ctx, shop, chosen, in.From)

	sess.AwaitingTime = false
	if err := e.sessions.Put(ctx, shop.ID, in.From, sess); err != nil {
		e.logger.Error("failed to persist session after booking",
			"error", err, "shop_id", shop.ID)
	}

	e.observe("booking")
	return renderConfirmation(chosen), true
}

// handleImages runs the estimate pipeline and offers a fresh slot list.
func (e *Engine) handleImages(ctx context.Context, shop shops.ShopConfig, in Inbound) string {
	start := e.now()

	est := e.estimator.Estimate(ctx, in.MediaURLs)
	if e.metrics != nil {
		e.metrics.ObserveEstimatorLatency(e.now().Sub(start).Seconds())
	}

	generated := slots.Generate(e.now().In(e.location), e.slotCount)

	// Slots must be non-empty whenever a selection is pending.
	sess := &session.Session{
		AwaitingTime: len(generated) > 0,
		Slots:        generated,
	}
	if err := e.sessions.Put(ctx, shop.ID, in.From, sess); err != nil {
		e.logger.Error("failed to persist session after estimate",
			"error", err, "shop_id", shop.ID)
	}

	e.observe("estimate")
	return renderEstimate(shop.Name, est, generated)
}

// book attempts the calendar event once, bounded and best-effort. Its
// outcome never changes the reply or the state transition.
func (e *Engine) book(ctx context.Context, shop shops.ShopConfig, chosen slots.Slot, phone string) {
	if e.booker == nil {
		e.observeBooking("skipped")
		return
	}

	bookCtx, cancel := context.WithTimeout(ctx, bookingTimeout)
	defer cancel()

	eventID, err := e.booker.CreateEvent(bookCtx, calendar.Booking{
		ShopID:        shop.ID,
		ShopName:      shop.Name,
		CalendarID:    shop.CalendarID,
		CustomerPhone: phone,
		Start:         chosen.Start,
		End:           chosen.End(),
	})
	if err != nil {
		e.observeBooking("error")
		e.logger.Warn("calendar booking failed, confirmation sent anyway",
			"error", err, "shop_id", shop.ID, "slot", chosen.Label())
		return
	}
	if eventID == "" {
		e.observeBooking("skipped")
		return
	}
	e.observeBooking("ok")
	e.logger.Info("calendar event created",
		"shop_id", shop.ID, "event_id", eventID, "slot", chosen.Label())
}

func (e *Engine) observe(outcome string) {
	if e.metrics != nil {
		e.metrics.ObserveInbound(outcome)
	}
}

func (e *Engine) observeBooking(status string) {
	if e.metrics != nil {
		e.metrics.ObserveBooking(status)
	}
}

func (e *Engine) lockFor(shopID, sender string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(session.Key(shopID, sender)))
	return &e.locks[h.Sum32()%lockStripes]
}

// selectionIndex maps a numeric reply to a zero-based slot index. Range
// checking against the offered slots happens in handleSelection, so the
// accepted replies track however many slots were presented.
func selectionIndex(body string) (int, bool) {
	s := trimmed(body)
	if s == "" {
		return -1, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return -1, false
	}
	return n - 1, true
}
