package dialogue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookwise/models"
	"bookwise/services/availability"
	"bookwise/services/calendarsvc"
	"bookwise/services/composer"
	"bookwise/services/nlu"
)

// fakeCalendar is an in-memory calendarsvc.Service with controllable
// failures for exercising the retry and conflict paths.
type fakeCalendar struct {
	mu          sync.Mutex
	busy        []models.Interval
	events      map[string]*models.EventRef
	failNext    int
	storeOnFail bool
	created     int
	cancelled   []string
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{events: make(map[string]*models.EventRef)}
}

func (f *fakeCalendar) GetBusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]models.Interval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Interval
	window := models.Interval{Start: start, End: end}
	for _, b := range f.busy {
		if b.Overlaps(window) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, calendarID string, req models.EventRequest) (*models.EventRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.events[req.IdempotencyToken]; ok {
		return existing, nil
	}
	if f.failNext > 0 {
		f.failNext--
		if f.storeOnFail {
			f.insert(req)
		}
		return nil, &calendarsvc.TransientError{Op: "create_event", Err: context.DeadlineExceeded}
	}
	for _, b := range f.busy {
		if req.Interval.Overlaps(b) {
			return nil, &calendarsvc.ConflictError{Message: "interval already booked"}
		}
	}
	return f.insert(req), nil
}

func (f *fakeCalendar) insert(req models.EventRequest) *models.EventRef {
	f.created++
	ref := &models.EventRef{
		EventID:    req.IdempotencyToken,
		CalendarID: "primary",
		Interval:   req.Interval,
	}
	f.events[req.IdempotencyToken] = ref
	f.busy = append(f.busy, req.Interval)
	return ref
}

func (f *fakeCalendar) CancelEvent(ctx context.Context, calendarID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, eventID)
	return nil
}

func (f *fakeCalendar) FindEventByToken(ctx context.Context, calendarID, token string) (*models.EventRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[token], nil
}

// fakeRecords is an in-memory booking record repository.
type fakeRecords struct {
	mu      sync.Mutex
	records map[string]*models.Booking
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: make(map[string]*models.Booking)}
}

func (f *fakeRecords) Create(ctx context.Context, booking models.Booking) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dup := booking
	f.records[booking.ID] = &dup
	return booking.ID, nil
}

func (f *fakeRecords) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id], nil
}

func (f *fakeRecords) GetBySessionID(ctx context.Context, sessionID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, r := range f.records {
		if r.SessionID == sessionID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRecords) MarkCancelled(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return errors.New("booking not found")
	}
	r.Status = models.BookingStatusCancelled
	return nil
}

// testEngine wires the dialogue service against in-memory collaborators
// with a controllable clock. The clock starts Monday 2026-03-02 10:00 UTC.
type testEngine struct {
	svc  *DefaultDialogueService
	cal  *fakeCalendar
	recs *fakeRecords
	now  time.Time
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	te := &testEngine{
		cal:  newFakeCalendar(),
		recs: newFakeRecords(),
		now:  time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
	}
	te.svc = NewDialogueService(
		NewMemorySessionStore(),
		te.cal,
		te.recs,
		nlu.NewExtractor(time.UTC),
		nlu.NewClassifier(0.6),
		availability.NewResolver(9, 17, 7, 3, time.UTC),
		composer.NewComposer(time.UTC),
		Options{
			CalendarID:          "primary",
			ConfidenceThreshold: 0.6,
			SessionTimeout:      30 * time.Minute,
			CalendarTimeout:     5 * time.Second,
			MaxHistory:          40,
			DefaultDurationMin:  60,
			Loc:                 time.UTC,
			Now:                 func() time.Time { return te.now },
		},
	)
	return te
}

func (te *testEngine) start(t *testing.T) string {
	t.Helper()
	res, err := te.svc.StartSession(context.Background())
	require.NoError(t, err)
	return res.SessionID
}

func (te *testEngine) turn(t *testing.T, sessionID, message string) *models.TurnResult {
	t.Helper()
	res, err := te.svc.HandleTurn(context.Background(), sessionID, message)
	require.NoError(t, err)
	return res
}

func TestOneShotBookingFlow(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	res := te.turn(t, id, "book a meeting about roadmap review next friday at 2 pm for 30 minutes")
	assert.Equal(t, models.StateConfirming, res.State)

	res = te.turn(t, id, "yes")
	require.Equal(t, models.StateBooked, res.State)
	require.NotNil(t, res.Booking)
	assert.Equal(t, "roadmap review", res.Booking.Title)
	assert.Equal(t, time.Date(2026, 3, 13, 14, 0, 0, 0, time.UTC), res.Booking.Interval.Start)
	assert.Equal(t, time.Date(2026, 3, 13, 14, 30, 0, 0, time.UTC), res.Booking.Interval.End)
	assert.Equal(t, 1, te.cal.created)
}

func TestWindowRequestProposesThenBooks(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	res := te.turn(t, id, "book a call next friday between 2 and 4 pm")
	require.Equal(t, models.StateConfirming, res.State)
	assert.Contains(t, res.Reply, "1.")

	res = te.turn(t, id, "yes")
	require.Equal(t, models.StateBooked, res.State)
	require.NotNil(t, res.Booking)
	assert.Equal(t, "Appointment", res.Booking.Title)
	assert.Equal(t, time.Date(2026, 3, 13, 14, 0, 0, 0, time.UTC), res.Booking.Interval.Start)
	assert.Equal(t, time.Date(2026, 3, 13, 15, 0, 0, 0, time.UTC), res.Booking.Interval.End)
}

func TestSlotFillingAsksInOrder(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	res := te.turn(t, id, "I need to book a meeting")
	assert.Equal(t, models.StateCollectingSlots, res.State)
	assert.Contains(t, res.Reply, "date")

	res = te.turn(t, id, "tomorrow")
	assert.Equal(t, models.StateCollectingSlots, res.State)
	assert.Contains(t, res.Reply, "time")

	res = te.turn(t, id, "2 pm")
	assert.Equal(t, models.StateConfirming, res.State)
}

func TestRejectedCandidateNeverReproposed(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	res := te.turn(t, id, "book a meeting tomorrow at 2 pm")
	require.Equal(t, models.StateConfirming, res.State)

	res = te.turn(t, id, "no")
	assert.Equal(t, models.StateCollectingSlots, res.State)

	// Asking for the same time again must not re-propose the rejected slot.
	res = te.turn(t, id, "2 pm")
	require.Equal(t, models.StateConfirming, res.State)

	session, err := te.svc.GetSession(context.Background(), id)
	require.NoError(t, err)
	rejected := models.Interval{
		Start: time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC),
	}
	for _, c := range session.Candidates {
		assert.False(t, c.Interval.Start.Equal(rejected.Start) && c.Interval.End.Equal(rejected.End),
			"rejected interval proposed again")
	}
}

func TestConflictProposesAlternatives(t *testing.T) {
	te := newTestEngine(t)
	te.cal.busy = []models.Interval{{
		Start: time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC),
	}}
	id := te.start(t)

	res := te.turn(t, id, "book a meeting tomorrow at 2 pm")
	require.Equal(t, models.StateConfirming, res.State)

	session, err := te.svc.GetSession(context.Background(), id)
	require.NoError(t, err)
	require.NotEmpty(t, session.Candidates)
	for _, c := range session.Candidates {
		assert.False(t, c.Interval.Overlaps(te.cal.busy[0]))
	}

	// Pick the first alternative by number.
	res = te.turn(t, id, "1")
	require.Equal(t, models.StateBooked, res.State)
	require.NotNil(t, res.Booking)
	assert.False(t, res.Booking.Interval.Overlaps(te.cal.busy[0]))
}

func TestNoAvailabilityReturnsToCollecting(t *testing.T) {
	te := newTestEngine(t)
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	te.cal.busy = []models.Interval{{Start: day.Add(9 * time.Hour), End: day.Add(17 * time.Hour)}}
	id := te.start(t)

	res := te.turn(t, id, "book a meeting tomorrow afternoon")
	assert.Equal(t, models.StateCollectingSlots, res.State)
	assert.Contains(t, res.Reply, "couldn't find")

	// Both date and time are re-elicited; a lone time answer must not loop
	// against the fully booked day.
	session, err := te.svc.GetSession(context.Background(), id)
	require.NoError(t, err)
	_, hasDate := session.Slots[models.SlotDate]
	assert.False(t, hasDate, "date slot must be cleared after no availability")

	res = te.turn(t, id, "morning")
	assert.Equal(t, models.StateCollectingSlots, res.State)
	assert.Contains(t, res.Reply, "date")
}

func TestTransientFailureRetriesWithSameToken(t *testing.T) {
	te := newTestEngine(t)
	// The first create fails after the event landed on the calendar side.
	te.cal.failNext = 1
	te.cal.storeOnFail = true
	id := te.start(t)

	res := te.turn(t, id, "book a meeting tomorrow at 2 pm")
	require.Equal(t, models.StateConfirming, res.State)

	res = te.turn(t, id, "yes")
	require.Equal(t, models.StateBooked, res.State)
	require.NotNil(t, res.Booking)
	assert.Equal(t, 1, te.cal.created, "retry must not create a second event")
}

func TestCounterOfferOnRejectionAppliedSameTurn(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	res := te.turn(t, id, "book a meeting tomorrow at 2 pm")
	require.Equal(t, models.StateConfirming, res.State)

	// Declining with a counter-offer re-confirms the new time immediately.
	res = te.turn(t, id, "no, make it 3 pm")
	require.Equal(t, models.StateConfirming, res.State)
	assert.Contains(t, res.Reply, "3:00 PM")

	res = te.turn(t, id, "yes")
	require.Equal(t, models.StateBooked, res.State)
	require.NotNil(t, res.Booking)
	assert.Equal(t, time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC), res.Booking.Interval.Start)
}

func TestFarewellGetsGoodbye(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	res := te.turn(t, id, "thanks, goodbye")
	assert.Equal(t, models.StateCollectingIntent, res.State)
	assert.Contains(t, res.Reply, "Have a great day")
}

func TestCancelAfterBookingTombstonesEventAndRecord(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	te.turn(t, id, "book a meeting tomorrow at 2 pm")
	res := te.turn(t, id, "yes")
	require.Equal(t, models.StateBooked, res.State)
	require.NotNil(t, res.Booking)
	bookingID := res.Booking.ID
	eventID := res.Booking.EventID

	res = te.turn(t, id, "cancel that appointment")
	assert.Equal(t, models.StateCancelled, res.State)
	assert.Nil(t, res.Booking)
	assert.Contains(t, te.cal.cancelled, eventID)

	rec, err := te.recs.GetByID(context.Background(), bookingID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.BookingStatusCancelled, rec.Status)

	// With the booking gone the session is closed for good.
	_, err = te.svc.HandleTurn(context.Background(), id, "cancel")
	require.Error(t, err)
	assert.True(t, IsCode(err, "sessionClosed"))
}

func TestTerminalSessionReleasesLock(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	te.turn(t, id, "book a meeting tomorrow at 2 pm")
	res := te.turn(t, id, "yes")
	require.Equal(t, models.StateBooked, res.State)

	te.svc.locks.mu.Lock()
	_, held := te.svc.locks.locks[id]
	te.svc.locks.mu.Unlock()
	assert.False(t, held, "lock entry must be released once the session is terminal")
}

func TestCancelFromAnyState(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	te.turn(t, id, "book a meeting tomorrow at 2 pm")
	res := te.turn(t, id, "cancel")
	assert.Equal(t, models.StateCancelled, res.State)

	// A closed session rejects further turns.
	_, err := te.svc.HandleTurn(context.Background(), id, "hello")
	require.Error(t, err)
	assert.True(t, IsCode(err, "sessionClosed"))
}

func TestSessionExpiry(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)
	te.turn(t, id, "book a meeting")

	te.now = te.now.Add(31 * time.Minute)

	// The turn that trips the timeout still gets a reply.
	res := te.turn(t, id, "tomorrow")
	assert.Equal(t, models.StateExpired, res.State)
	assert.Contains(t, res.Reply, "expired")

	// Every turn after that is rejected.
	_, err := te.svc.HandleTurn(context.Background(), id, "tomorrow")
	require.Error(t, err)
	assert.True(t, IsCode(err, "sessionExpired"))

	session, err := te.svc.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StateExpired, session.State)
}

func TestExpireInactiveSweep(t *testing.T) {
	te := newTestEngine(t)
	stale := te.start(t)
	te.turn(t, stale, "book a meeting")

	te.now = te.now.Add(31 * time.Minute)
	fresh := te.start(t)
	te.turn(t, fresh, "book a meeting")

	count, err := te.svc.ExpireInactive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	s1, err := te.svc.GetSession(context.Background(), stale)
	require.NoError(t, err)
	assert.Equal(t, models.StateExpired, s1.State)

	s2, err := te.svc.GetSession(context.Background(), fresh)
	require.NoError(t, err)
	assert.NotEqual(t, models.StateExpired, s2.State)
}

func TestAtMostOneActiveBooking(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	te.turn(t, id, "book a meeting tomorrow at 2 pm")
	res := te.turn(t, id, "yes")
	require.Equal(t, models.StateBooked, res.State)

	// The booked session takes no further turns, so it can never acquire a
	// second booking.
	_, err := te.svc.HandleTurn(context.Background(), id, "book another one tomorrow at 4 pm")
	require.Error(t, err)
	assert.Equal(t, 1, te.cal.created)
}

func TestUnknownUtteranceAsksForClarification(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	res := te.turn(t, id, "the weather is nice")
	assert.Equal(t, models.StateCollectingIntent, res.State)
	assert.Contains(t, res.Reply, "more specific")
}

func TestAvailabilityQueryDoesNotEnterBookingFlow(t *testing.T) {
	te := newTestEngine(t)
	id := te.start(t)

	res := te.turn(t, id, "what's my availability tomorrow")
	assert.Equal(t, models.StateCollectingIntent, res.State)
	assert.Contains(t, res.Reply, "open")
}

func TestCheckAvailabilityDirect(t *testing.T) {
	te := newTestEngine(t)
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	te.cal.busy = []models.Interval{{Start: day.Add(9 * time.Hour), End: day.Add(12 * time.Hour)}}

	cands, err := te.svc.CheckAvailability(context.Background(), "2026-03-03", 60)
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	for _, c := range cands {
		assert.False(t, c.Interval.Overlaps(te.cal.busy[0]))
	}
}
