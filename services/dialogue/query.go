// File: services/dialogue/query.go
package dialogue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bookwise/models"
	"bookwise/services/availability"
	"bookwise/utils"
)

// GetSession returns a snapshot of the stored session.
func (s *DefaultDialogueService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.Store.Get(ctx, sessionID)
}

// CheckAvailability answers a direct availability query without touching any
// session. An empty date scans the full window from today.
func (s *DefaultDialogueService) CheckAvailability(ctx context.Context, date string, durationMin int) ([]models.CandidateInterval, error) {
	if durationMin <= 0 {
		durationMin = s.Opts.DefaultDurationMin
	}
	now := s.now()
	cons := availability.Constraints{
		Date:           date,
		DurationMin:    durationMin,
		PreferredStart: -1,
	}
	busy, err := s.fetchBusy(ctx, now, cons)
	if err != nil {
		return nil, err
	}
	return s.Resolver.Propose(now, cons, busy), nil
}

// answerAvailability serves an in-conversation availability question using
// whatever slots the utterance carried, without entering the booking flow.
func (s *DefaultDialogueService) answerAvailability(ctx context.Context, session *models.Session, now time.Time) string {
	cons := s.constraintsFromSlots(session)
	busy, err := s.fetchBusy(ctx, now, cons)
	if err != nil {
		return s.Composer.CalendarUnavailable()
	}
	session.State = models.StateCollectingIntent
	return s.Composer.Availability(s.Resolver.Propose(now, cons, busy))
}

// ExpireInactive transitions every session idle past the timeout into the
// expired state. It runs from the periodic sweeper and takes each session's
// lock so it never races an in-flight turn.
func (s *DefaultDialogueService) ExpireInactive(ctx context.Context) (int, error) {
	ids, err := s.Store.ActiveIDs(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	cutoff := s.now().Add(-s.Opts.SessionTimeout)
	for _, id := range ids {
		m := s.locks.lock(id)
		session, err := s.Store.Get(ctx, id)
		if err != nil {
			m.Unlock()
			continue
		}
		if !session.State.Terminal() && session.LastActive.Before(cutoff) {
			session.State = models.StateExpired
			if err := s.Store.Save(ctx, session); err != nil {
				m.Unlock()
				return expired, err
			}
			expired++
		}
		if session.State.Terminal() {
			s.locks.drop(id)
		}
		m.Unlock()
	}
	if expired > 0 {
		utils.GetLogger().Info("expired inactive sessions", zap.Int("count", expired))
	}
	return expired, nil
}
