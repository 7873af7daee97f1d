package models

import "time"

// DialogueState identifies where a session is in the booking conversation.
type DialogueState string

const (
	StateGreeting             DialogueState = "GREETING"
	StateCollectingIntent     DialogueState = "COLLECTING_INTENT"
	StateCollectingSlots      DialogueState = "COLLECTING_SLOTS"
	StateCheckingAvailability DialogueState = "CHECKING_AVAILABILITY"
	StateConfirming           DialogueState = "CONFIRMING"
	StateBooking              DialogueState = "BOOKING"
	StateBooked               DialogueState = "BOOKED"
	StateCancelled            DialogueState = "CANCELLED"
	StateExpired              DialogueState = "EXPIRED"
)

// Terminal reports whether no further transitions are possible from s.
func (s DialogueState) Terminal() bool {
	return s == StateBooked || s == StateCancelled || s == StateExpired
}

// Turn is one utterance in the conversation history.
type Turn struct {
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// BookingAttempt tracks the in-flight calendar mutation for a confirmed slot.
// The token is minted once per attempt so a retried create can be matched
// against an event that may already exist on the collaborator side.
type BookingAttempt struct {
	Token    string   `json:"token"`
	Interval Interval `json:"interval"`
	Title    string   `json:"title"`
	Retried  bool     `json:"retried,omitempty"`
}

// Session holds the full conversational context between turns. It is owned
// exclusively by the dialogue service and round-trips through the session
// store as JSON.
type Session struct {
	SessionID  string              `json:"sessionId"`
	CreatedAt  time.Time           `json:"createdAt"`
	LastActive time.Time           `json:"lastActive"`
	State      DialogueState       `json:"state"`
	Slots      SlotStore           `json:"slots"`
	History    []Turn              `json:"history,omitempty"`
	Candidates []CandidateInterval `json:"candidates,omitempty"`
	Rejected   []Interval          `json:"rejected,omitempty"`
	Attempt    *BookingAttempt     `json:"attempt,omitempty"`
	Booking    *Booking            `json:"booking,omitempty"`
	TurnCount  int                 `json:"turnCount"`
}

// NewSession returns a fresh session in the greeting state.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		SessionID:  id,
		CreatedAt:  now,
		LastActive: now,
		State:      StateGreeting,
		Slots:      SlotStore{},
	}
}

// AppendTurn records a turn, trimming history to the configured bound.
func (s *Session) AppendTurn(role, text string, at time.Time, maxHistory int) {
	s.History = append(s.History, Turn{Role: role, Text: text, At: at})
	if maxHistory > 0 && len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
}

// HasRejected reports whether the given interval was already turned down by
// the user in this session.
func (s *Session) HasRejected(iv Interval) bool {
	for _, r := range s.Rejected {
		if r.Start.Equal(iv.Start) && r.End.Equal(iv.End) {
			return true
		}
	}
	return false
}

// ActiveBooking returns the session's booking unless it has been cancelled.
func (s *Session) ActiveBooking() *Booking {
	if s.Booking == nil || s.Booking.Status == BookingStatusCancelled {
		return nil
	}
	return s.Booking
}
