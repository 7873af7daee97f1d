// File: services/calendarsvc/interface.go
package calendarsvc

import (
	"context"
	"time"

	"bookwise/models"
)

// Service is the calendar collaborator contract. All methods are network
// calls that may fail transiently; callers bound them with a context timeout
// and treat a timeout as failure, never success.
type Service interface {
	// GetBusyIntervals returns the busy blocks on the calendar between start and end.
	GetBusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]models.Interval, error)

	// CreateEvent creates an event for the requested interval. The
	// idempotency token in the request makes creation safe to retry: a
	// request with a token the calendar has already seen returns the
	// existing event instead of creating a second one.
	CreateEvent(ctx context.Context, calendarID string, req models.EventRequest) (*models.EventRef, error)

	// CancelEvent cancels a previously created event.
	CancelEvent(ctx context.Context, calendarID, eventID string) error

	// FindEventByToken looks up an event by its idempotency token. It
	// returns nil without error when no such event exists.
	FindEventByToken(ctx context.Context, calendarID, token string) (*models.EventRef, error)
}
