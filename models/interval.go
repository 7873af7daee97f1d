package models

import "time"

// Interval is a continuous absolute time block.
type Interval struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

// Overlaps reports whether two intervals share any time.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// CandidateReason records where a proposed interval came from.
type CandidateReason string

const (
	ReasonUserRequest CandidateReason = "user_request"
	ReasonResolver    CandidateReason = "resolver"
)

// CandidateInterval is a proposed appointment slot.
type CandidateInterval struct {
	Interval   Interval        `json:"interval"`
	Confidence float64         `json:"confidence"`
	Reason     CandidateReason `json:"reason"`
}
