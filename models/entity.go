package models

// EntityType classifies an extracted scheduling entity.
type EntityType string

const (
	EntityDate         EntityType = "date"
	EntityRelativeDate EntityType = "relative_date"
	EntityTime         EntityType = "time"
	EntityTimeRange    EntityType = "time_range"
	EntityDuration     EntityType = "duration"
	EntityTitle        EntityType = "title"
	EntityAttendees    EntityType = "attendees"
)

// CandidateEntity is one structured date/time/duration candidate parsed from
// raw text. Normalized fields follow the slot conventions: Date is
// "2006-01-02" anchored to the extraction reference time, Start/End are
// minutes from midnight, Duration is minutes.
type CandidateEntity struct {
	Type       EntityType `json:"type"`
	Raw        string     `json:"raw"`
	Date       string     `json:"date,omitempty"`
	Start      int        `json:"start,omitempty"`
	End        int        `json:"end,omitempty"`
	Duration   int        `json:"duration,omitempty"`
	Text       string     `json:"text,omitempty"`
	Attendees  []string   `json:"attendees,omitempty"`
	Confidence float64    `json:"confidence"`
}
