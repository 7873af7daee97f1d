// File: services/dialogue/interface.go
package dialogue

import (
	"context"
	"time"

	recordsRepo "bookwise/database/repository/records"
	"bookwise/models"
	"bookwise/services/availability"
	"bookwise/services/calendarsvc"
	"bookwise/services/composer"
	"bookwise/services/nlu"
)

// DialogueService drives the booking conversation. One HandleTurn call
// consumes one user utterance and returns exactly one reply; all session
// mutation happens inside it, under the per-session lock.
type DialogueService interface {
	// StartSession creates a fresh session and returns its greeting.
	StartSession(ctx context.Context) (*models.TurnResult, error)

	// HandleTurn advances the session with one user message.
	HandleTurn(ctx context.Context, sessionID, message string) (*models.TurnResult, error)

	// GetSession returns a session snapshot for inspection.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// CheckAvailability answers a direct availability query outside any
	// conversation flow.
	CheckAvailability(ctx context.Context, date string, durationMin int) ([]models.CandidateInterval, error)

	// ExpireInactive marks sessions idle past the timeout as expired. It
	// returns how many sessions it transitioned.
	ExpireInactive(ctx context.Context) (int, error)
}

// Options carries the policy knobs the engine needs per turn.
type Options struct {
	CalendarID          string
	ConfidenceThreshold float64
	SessionTimeout      time.Duration
	CalendarTimeout     time.Duration
	MaxHistory          int
	DefaultDurationMin  int
	Loc                 *time.Location
	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

// DefaultDialogueService implements DialogueService.
type DefaultDialogueService struct {
	Store      SessionStore
	Calendar   calendarsvc.Service
	Records    recordsRepo.BookingRecordRepository
	Extractor  *nlu.Extractor
	Classifier *nlu.Classifier
	Resolver   *availability.Resolver
	Composer   composer.Composer
	Opts       Options

	locks *sessionLocks
}

// NewDialogueService wires the engine from its collaborators.
func NewDialogueService(
	store SessionStore,
	calendar calendarsvc.Service,
	records recordsRepo.BookingRecordRepository,
	extractor *nlu.Extractor,
	classifier *nlu.Classifier,
	resolver *availability.Resolver,
	comp composer.Composer,
	opts Options,
) *DefaultDialogueService {
	if opts.Loc == nil {
		opts.Loc = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DefaultDialogueService{
		Store:      store,
		Calendar:   calendar,
		Records:    records,
		Extractor:  extractor,
		Classifier: classifier,
		Resolver:   resolver,
		Composer:   comp,
		Opts:       opts,
		locks:      newSessionLocks(),
	}
}

func (s *DefaultDialogueService) now() time.Time {
	return s.Opts.Now()
}
