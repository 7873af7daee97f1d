package calendarsvc

import (
	"context"
	"errors"
	"fmt"
)

// TransientError marks a calendar failure worth retrying once (timeouts,
// connection resets, 5xx-equivalents).
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("calendar %s failed transiently: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ConflictError means a booking attempt collided with an event created in
// the meantime; the caller re-runs conflict resolution and re-confirms.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("calendarConflict: %s", e.Message)
}

// IsTransient reports whether err is retryable. Context deadline hits count
// as transient since the outcome on the calendar side is unknown.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsConflict reports whether err is an interval collision.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
