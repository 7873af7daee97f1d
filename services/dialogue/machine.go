// File: services/dialogue/machine.go
package dialogue

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookwise/models"
	"bookwise/services/availability"
	"bookwise/services/nlu"
	"bookwise/utils"
)

// StartSession creates a fresh session and greets the user.
func (s *DefaultDialogueService) StartSession(ctx context.Context) (*models.TurnResult, error) {
	now := s.now()
	session := models.NewSession(uuid.New().String(), now)
	session.State = models.StateCollectingIntent

	reply := s.Composer.Greeting()
	session.AppendTurn("assistant", reply, now, s.Opts.MaxHistory)
	if err := s.Store.Save(ctx, session); err != nil {
		return nil, err
	}
	utils.GetLogger().Info("session started", zap.String("sessionID", session.SessionID))
	return &models.TurnResult{SessionID: session.SessionID, Reply: reply, State: session.State}, nil
}

// HandleTurn advances a session with one user utterance and returns exactly
// one reply. The whole turn runs under the session's lock so concurrent
// requests for the same session serialize instead of interleaving state.
func (s *DefaultDialogueService) HandleTurn(ctx context.Context, sessionID, message string) (*models.TurnResult, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	session, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if session.State == models.StateExpired {
		s.locks.drop(sessionID)
		return nil, NewSessionExpiredError(sessionID)
	}
	if session.State.Terminal() {
		// A confirmed booking can still be called off.
		if session.State == models.StateBooked && session.Booking != nil {
			if intent, _ := s.Classifier.Classify(message, nlu.SessionContext{State: session.State}); intent == nlu.IntentCancel {
				return s.cancelBooking(ctx, session, message, now)
			}
		}
		s.locks.drop(sessionID)
		return nil, NewTerminalSessionError(sessionID)
	}
	if s.Opts.SessionTimeout > 0 && now.Sub(session.LastActive) > s.Opts.SessionTimeout {
		session.State = models.StateExpired
		reply := s.Composer.Expired()
		session.AppendTurn("user", message, now, s.Opts.MaxHistory)
		session.AppendTurn("assistant", reply, now, s.Opts.MaxHistory)
		if err := s.Store.Save(ctx, session); err != nil {
			return nil, err
		}
		s.locks.drop(sessionID)
		return &models.TurnResult{SessionID: sessionID, Reply: reply, State: models.StateExpired}, nil
	}

	session.TurnCount++
	session.LastActive = now
	session.AppendTurn("user", message, now, s.Opts.MaxHistory)

	entities := s.Extractor.Extract(message, now.In(s.Opts.Loc))
	intent, confidence := s.Classifier.Classify(message, nlu.SessionContext{
		State:       session.State,
		HasEntities: len(entities) > 0,
	})
	utils.GetLogger().Debug("turn classified",
		zap.String("sessionID", sessionID),
		zap.String("intent", string(intent)),
		zap.Float64("confidence", confidence),
		zap.Int("entities", len(entities)),
	)

	reply := s.advance(ctx, session, message, intent, entities, now)

	session.AppendTurn("assistant", reply, now, s.Opts.MaxHistory)
	if err := s.Store.Save(ctx, session); err != nil {
		return nil, err
	}
	if session.State.Terminal() {
		s.locks.drop(sessionID)
	}
	return &models.TurnResult{
		SessionID: session.SessionID,
		Reply:     reply,
		State:     session.State,
		Booking:   session.ActiveBooking(),
	}, nil
}

// advance runs one transition of the dialogue machine and returns the reply.
func (s *DefaultDialogueService) advance(ctx context.Context, session *models.Session, message string, intent nlu.Intent, entities []models.CandidateEntity, now time.Time) string {
	// Cancellation short-circuits every state.
	if intent == nlu.IntentCancel {
		session.State = models.StateCancelled
		session.Candidates = nil
		session.Attempt = nil
		return s.Composer.Cancelled()
	}

	switch session.State {
	case models.StateGreeting, models.StateCollectingIntent:
		return s.advanceIntent(ctx, session, message, intent, entities, now)
	case models.StateCollectingSlots:
		return s.advanceSlots(ctx, session, message, entities, now)
	case models.StateConfirming:
		return s.advanceConfirm(ctx, session, message, entities, now)
	default:
		return s.Composer.Clarify()
	}
}

func (s *DefaultDialogueService) advanceIntent(ctx context.Context, session *models.Session, message string, intent nlu.Intent, entities []models.CandidateEntity, now time.Time) string {
	switch intent {
	case nlu.IntentGreeting:
		session.State = models.StateCollectingIntent
		return s.Composer.Greeting()
	case nlu.IntentSmalltalk:
		if nlu.Farewell(message) {
			return s.Composer.Goodbye()
		}
		return s.Composer.Help()
	case nlu.IntentCheckAvailability:
		applyEntities(session.Slots, entities, session.TurnCount, false, s.Opts.DefaultDurationMin)
		return s.answerAvailability(ctx, session, now)
	case nlu.IntentSchedule, nlu.IntentModify:
		session.State = models.StateCollectingSlots
		applyEntities(session.Slots, entities, session.TurnCount, false, s.Opts.DefaultDurationMin)
		return s.collectOrResolve(ctx, session, now)
	default:
		if len(entities) > 0 {
			// Entities without a clear verb still read as a booking request.
			session.State = models.StateCollectingSlots
			applyEntities(session.Slots, entities, session.TurnCount, false, s.Opts.DefaultDurationMin)
			return s.collectOrResolve(ctx, session, now)
		}
		return s.Composer.Clarify()
	}
}

func (s *DefaultDialogueService) advanceSlots(ctx context.Context, session *models.Session, message string, entities []models.CandidateEntity, now time.Time) string {
	applyEntities(session.Slots, entities, session.TurnCount, isCorrection(message), s.Opts.DefaultDurationMin)
	return s.collectOrResolve(ctx, session, now)
}

// collectOrResolve asks for the next missing slot, or moves on to the
// availability check once the store is complete.
func (s *DefaultDialogueService) collectOrResolve(ctx context.Context, session *models.Session, now time.Time) string {
	if missing := missingRequired(session.Slots, s.Opts.ConfidenceThreshold); missing != "" {
		session.State = models.StateCollectingSlots
		return s.Composer.AskSlot(missing)
	}
	return s.checkAvailability(ctx, session, now)
}

// checkAvailability fetches the busy snapshot and either confirms the
// user's exact request or proposes ranked candidates.
func (s *DefaultDialogueService) checkAvailability(ctx context.Context, session *models.Session, now time.Time) string {
	session.State = models.StateCheckingAvailability

	cons := s.constraintsFromSlots(session)
	busy, err := s.fetchBusy(ctx, now, cons)
	if err != nil {
		utils.GetLogger().Warn("calendar unavailable",
			zap.String("sessionID", session.SessionID), zap.Error(err))
		session.State = models.StateCollectingSlots
		return s.Composer.CalendarUnavailable()
	}

	if requested, ok := requestedInterval(session.Slots, s.Opts.Loc); ok && exactRequest(session.Slots, cons.DurationMin) {
		if err := validateInterval(requested, now); err != nil {
			session.State = models.StateCollectingSlots
			session.Slots.Clear(models.SlotTimeRange)
			return s.Composer.ValidationError(err.Error())
		}
		if !overlapsBusy(requested, busy) && !session.HasRejected(requested) {
			session.Candidates = []models.CandidateInterval{{
				Interval:   requested,
				Confidence: 1.0,
				Reason:     models.ReasonUserRequest,
			}}
			session.State = models.StateConfirming
			return s.Composer.ConfirmPrompt(requested, titleOf(session.Slots))
		}
		alts := s.Resolver.ResolveConflict(now, requested, cons, busy)
		alts = dropRejected(alts, session)
		if len(alts) == 0 {
			return s.noAvailability(session)
		}
		session.Candidates = alts
		session.State = models.StateConfirming
		return s.Composer.ProposeAlternatives(alts)
	}

	cands := dropRejected(s.Resolver.Propose(now, cons, busy), session)
	if len(cands) == 0 {
		return s.noAvailability(session)
	}
	session.Candidates = cands
	session.State = models.StateConfirming
	return s.Composer.ProposeCandidates(cands)
}

// noAvailability returns the machine to slot collection with both the date
// and time cleared, so the next answers are elicited from scratch instead
// of looping against a fully booked day.
func (s *DefaultDialogueService) noAvailability(session *models.Session) string {
	session.State = models.StateCollectingSlots
	session.Slots.Clear(models.SlotDate, models.SlotTimeRange)
	return s.Composer.NoAvailability()
}

// advanceConfirm interprets the user's answer to a proposal: yes, a slot
// number, a counter-offer carrying new entities, or no.
func (s *DefaultDialogueService) advanceConfirm(ctx context.Context, session *models.Session, message string, entities []models.CandidateEntity, now time.Time) string {
	counterOffer := nlu.Negative(message) || isCorrection(message)
	if n, ok := slotNumber(message); ok && !counterOffer && n >= 1 && n <= len(session.Candidates) {
		return s.book(ctx, session, session.Candidates[n-1].Interval, now)
	}
	if nlu.Affirmative(message) && len(session.Candidates) > 0 {
		return s.book(ctx, session, session.Candidates[0].Interval, now)
	}
	if nlu.Negative(message) {
		for _, c := range session.Candidates {
			session.Rejected = append(session.Rejected, c.Interval)
		}
		session.Candidates = nil
		// "no, make it 3 pm" declines and corrects in one turn.
		if len(entities) > 0 {
			applyEntities(session.Slots, entities, session.TurnCount, true, s.Opts.DefaultDurationMin)
			return s.collectOrResolve(ctx, session, now)
		}
		session.Slots.Clear(models.SlotTimeRange)
		session.State = models.StateCollectingSlots
		return s.Composer.AskSlot(models.SlotTimeRange)
	}
	if len(entities) > 0 {
		// Counter-offer: treat as correction and redo the availability check.
		session.Candidates = nil
		applyEntities(session.Slots, entities, session.TurnCount, true, s.Opts.DefaultDurationMin)
		return s.collectOrResolve(ctx, session, now)
	}
	if len(session.Candidates) == 0 {
		session.State = models.StateCollectingSlots
		return s.Composer.AskSlot(models.SlotTimeRange)
	}
	return s.Composer.ConfirmPrompt(session.Candidates[0].Interval, titleOf(session.Slots))
}

// constraintsFromSlots translates the slot store into resolver constraints.
func (s *DefaultDialogueService) constraintsFromSlots(session *models.Session) availability.Constraints {
	cons := availability.Constraints{
		DurationMin:    durationMinutes(session.Slots, s.Opts.DefaultDurationMin),
		PreferredStart: -1,
		Exclude:        append([]models.Interval(nil), session.Rejected...),
	}
	if v, ok := session.Slots[models.SlotDate]; ok && v.Date != "" {
		cons.Date = v.Date
	}
	if v, ok := session.Slots[models.SlotTimeRange]; ok && v.End > v.Start {
		cons.WindowStart, cons.WindowEnd = v.Start, v.End
		cons.PreferredStart = v.Start
	}
	return cons
}

// fetchBusy pulls the busy snapshot covering the constrained scan window.
func (s *DefaultDialogueService) fetchBusy(ctx context.Context, now time.Time, cons availability.Constraints) ([]models.Interval, error) {
	from := now
	until := now.AddDate(0, 0, s.Resolver.ScanDays+1)
	if cons.Date != "" {
		if day, err := time.ParseInLocation("2006-01-02", cons.Date, s.Opts.Loc); err == nil {
			from = day
			until = day.AddDate(0, 0, 1)
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, s.Opts.CalendarTimeout)
	defer cancel()
	return s.Calendar.GetBusyIntervals(callCtx, s.Opts.CalendarID, from, until)
}

// exactRequest reports whether the time range slot pins a concrete start
// rather than a wide window like "afternoon".
func exactRequest(slots models.SlotStore, durationMin int) bool {
	v, ok := slots[models.SlotTimeRange]
	if !ok || v.End <= v.Start {
		return false
	}
	width := v.End - v.Start
	return width <= durationMin || width <= 60
}

func titleOf(slots models.SlotStore) string {
	if v, ok := slots[models.SlotTitle]; ok {
		return v.Text
	}
	return ""
}

func overlapsBusy(iv models.Interval, busy []models.Interval) bool {
	for _, b := range busy {
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}

func dropRejected(cands []models.CandidateInterval, session *models.Session) []models.CandidateInterval {
	out := cands[:0]
	for _, c := range cands {
		if !session.HasRejected(c.Interval) {
			out = append(out, c)
		}
	}
	return out
}

// slotNumber parses a bare ordinal reply like "2" or "option 2".
func slotNumber(message string) (int, bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(message)))
	for _, f := range fields {
		f = strings.Trim(f, ".,!")
		if n, err := strconv.Atoi(f); err == nil {
			return n, true
		}
	}
	return 0, false
}

// isCorrection detects utterances that revise earlier information.
var correctionMarkers = []string{"actually", "instead", "change", "make it", "rather", "no,"}

func isCorrection(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range correctionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
