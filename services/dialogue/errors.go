package dialogue

import "fmt"

// DialogueError carries a stable code alongside the human message so
// handlers can map engine failures to HTTP statuses.
type DialogueError struct {
	Code    string
	Message string
}

func (e *DialogueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewSessionNotFoundError(sessionID string) error {
	return &DialogueError{
		Code:    "sessionNotFound",
		Message: fmt.Sprintf("session %q does not exist", sessionID),
	}
}

func NewSessionExpiredError(sessionID string) error {
	return &DialogueError{
		Code:    "sessionExpired",
		Message: fmt.Sprintf("session %q has expired", sessionID),
	}
}

func NewTerminalSessionError(sessionID string) error {
	return &DialogueError{
		Code:    "sessionClosed",
		Message: fmt.Sprintf("session %q is closed to further turns", sessionID),
	}
}

// IsCode reports whether err is a DialogueError with the given code.
func IsCode(err error, code string) bool {
	de, ok := err.(*DialogueError)
	return ok && de.Code == code
}
