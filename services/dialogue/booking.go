// File: services/dialogue/booking.go
package dialogue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookwise/models"
	"bookwise/services/calendarsvc"
	"bookwise/utils"
)

// book drives a confirmed interval through the calendar create call. Each
// attempt carries an idempotency token minted once, so the single retry
// after a transient failure can never double-book: the collaborator is
// probed for an event with that token before the create is reissued.
func (s *DefaultDialogueService) book(ctx context.Context, session *models.Session, iv models.Interval, now time.Time) string {
	if err := validateInterval(iv, now); err != nil {
		session.State = models.StateCollectingSlots
		session.Slots.Clear(models.SlotTimeRange)
		return s.Composer.ValidationError(err.Error())
	}

	session.State = models.StateBooking
	title := titleOf(session.Slots)
	if title == "" {
		title = "Appointment"
	}
	if session.Attempt == nil || !session.Attempt.Interval.Start.Equal(iv.Start) || !session.Attempt.Interval.End.Equal(iv.End) {
		session.Attempt = &models.BookingAttempt{
			Token:    uuid.New().String(),
			Interval: iv,
			Title:    title,
		}
	}

	ref, err := s.createEvent(ctx, session.Attempt)
	if err != nil {
		if calendarsvc.IsConflict(err) {
			return s.proposeAfterConflict(ctx, session, iv, now)
		}
		utils.GetLogger().Warn("booking failed",
			zap.String("sessionID", session.SessionID), zap.Error(err))
		session.State = models.StateConfirming
		return s.Composer.BookingFailed()
	}

	booking := &models.Booking{
		ID:        uuid.New().String(),
		SessionID: session.SessionID,
		Interval:  ref.Interval,
		Title:     title,
		Attendees: attendeesOf(session.Slots),
		EventID:   ref.EventID,
		Status:    models.BookingStatusConfirmed,
		CreatedAt: now,
	}
	if s.Records != nil {
		if _, err := s.Records.Create(ctx, *booking); err != nil {
			// The calendar event exists; the audit record is best effort.
			utils.GetLogger().Warn("failed to persist booking record",
				zap.String("sessionID", session.SessionID), zap.Error(err))
		}
	}

	session.Booking = booking
	session.Attempt = nil
	session.Candidates = nil
	session.State = models.StateBooked
	utils.GetLogger().Info("booking confirmed",
		zap.String("sessionID", session.SessionID),
		zap.String("eventID", ref.EventID),
	)
	return s.Composer.Booked(booking)
}

// createEvent performs the create with a bounded timeout and at most one
// token-guarded retry on a transient failure.
func (s *DefaultDialogueService) createEvent(ctx context.Context, attempt *models.BookingAttempt) (*models.EventRef, error) {
	req := models.EventRequest{
		Interval:         attempt.Interval,
		Title:            attempt.Title,
		IdempotencyToken: attempt.Token,
	}

	callCtx, cancel := context.WithTimeout(ctx, s.Opts.CalendarTimeout)
	ref, err := s.Calendar.CreateEvent(callCtx, s.Opts.CalendarID, req)
	cancel()
	if err == nil {
		return ref, nil
	}
	if !calendarsvc.IsTransient(err) || attempt.Retried {
		return nil, err
	}

	// The first call may have succeeded on the collaborator side before the
	// failure reached us. Look the token up before trying again.
	attempt.Retried = true
	probeCtx, cancel := context.WithTimeout(ctx, s.Opts.CalendarTimeout)
	existing, probeErr := s.Calendar.FindEventByToken(probeCtx, s.Opts.CalendarID, attempt.Token)
	cancel()
	if probeErr == nil && existing != nil {
		return existing, nil
	}

	retryCtx, cancel := context.WithTimeout(ctx, s.Opts.CalendarTimeout)
	defer cancel()
	return s.Calendar.CreateEvent(retryCtx, s.Opts.CalendarID, req)
}

// cancelBooking calls off a confirmed booking: the calendar event is
// tombstoned first, then the audit record. On a calendar failure the
// session stays booked so the user can try again.
func (s *DefaultDialogueService) cancelBooking(ctx context.Context, session *models.Session, message string, now time.Time) (*models.TurnResult, error) {
	session.TurnCount++
	session.LastActive = now
	session.AppendTurn("user", message, now, s.Opts.MaxHistory)

	callCtx, cancel := context.WithTimeout(ctx, s.Opts.CalendarTimeout)
	err := s.Calendar.CancelEvent(callCtx, s.Opts.CalendarID, session.Booking.EventID)
	cancel()

	var reply string
	if err != nil {
		utils.GetLogger().Warn("cancel failed",
			zap.String("sessionID", session.SessionID),
			zap.String("eventID", session.Booking.EventID),
			zap.Error(err))
		reply = s.Composer.CalendarUnavailable()
	} else {
		if s.Records != nil {
			if err := s.Records.MarkCancelled(ctx, session.Booking.ID); err != nil {
				utils.GetLogger().Warn("failed to mark booking record cancelled",
					zap.String("sessionID", session.SessionID), zap.Error(err))
			}
		}
		session.Booking.Status = models.BookingStatusCancelled
		session.State = models.StateCancelled
		reply = s.Composer.Cancelled()
		utils.GetLogger().Info("booking cancelled",
			zap.String("sessionID", session.SessionID),
			zap.String("eventID", session.Booking.EventID))
	}

	session.AppendTurn("assistant", reply, now, s.Opts.MaxHistory)
	if err := s.Store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.locks.drop(session.SessionID)
	return &models.TurnResult{
		SessionID: session.SessionID,
		Reply:     reply,
		State:     session.State,
		Booking:   session.ActiveBooking(),
	}, nil
}

// proposeAfterConflict handles a create that lost the race for its slot.
func (s *DefaultDialogueService) proposeAfterConflict(ctx context.Context, session *models.Session, iv models.Interval, now time.Time) string {
	session.Attempt = nil
	session.Rejected = append(session.Rejected, iv)

	cons := s.constraintsFromSlots(session)
	busy, err := s.fetchBusy(ctx, now, cons)
	if err != nil {
		session.State = models.StateCollectingSlots
		return s.Composer.CalendarUnavailable()
	}
	alts := dropRejected(s.Resolver.ResolveConflict(now, iv, cons, busy), session)
	if len(alts) == 0 {
		return s.noAvailability(session)
	}
	session.Candidates = alts
	session.State = models.StateConfirming
	return s.Composer.ProposeAlternatives(alts)
}

func attendeesOf(slots models.SlotStore) []string {
	if v, ok := slots[models.SlotAttendees]; ok {
		return v.Attendees
	}
	return nil
}
