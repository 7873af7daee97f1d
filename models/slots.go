package models

// SlotName identifies a required piece of booking information.
type SlotName string

const (
	SlotDate      SlotName = "date"
	SlotTimeRange SlotName = "time_range"
	SlotDuration  SlotName = "duration"
	SlotTitle     SlotName = "title"
	SlotAttendees SlotName = "attendees"
)

// SlotValue is one extracted booking field with provenance. The normalized
// representation depends on the slot: Date holds "2006-01-02", Start/End are
// minutes from midnight for time_range, Duration is minutes, Text carries the
// title and Attendees the attendee list.
type SlotValue struct {
	Raw        string   `json:"raw"`
	Date       string   `json:"date,omitempty"`
	Start      int      `json:"start,omitempty"`
	End        int      `json:"end,omitempty"`
	Duration   int      `json:"duration,omitempty"`
	Text       string   `json:"text,omitempty"`
	Attendees  []string `json:"attendees,omitempty"`
	Confidence float64  `json:"confidence"`
	SourceTurn int      `json:"sourceTurn"`
}

// Normalized reports whether the value carries a usable normalized form for
// the given slot.
func (v SlotValue) Normalized(name SlotName) bool {
	switch name {
	case SlotDate:
		return v.Date != ""
	case SlotTimeRange:
		return v.End > v.Start
	case SlotDuration:
		return v.Duration > 0
	case SlotTitle:
		return v.Text != ""
	case SlotAttendees:
		return len(v.Attendees) > 0
	}
	return false
}

// SlotStore maps slot names to their current (possibly partial) values.
type SlotStore map[SlotName]SlotValue

// Filled reports whether a slot holds a normalized value at or above the
// confidence threshold.
func (s SlotStore) Filled(name SlotName, threshold float64) bool {
	v, ok := s[name]
	return ok && v.Normalized(name) && v.Confidence >= threshold
}

// Clear removes a slot value entirely.
func (s SlotStore) Clear(names ...SlotName) {
	for _, n := range names {
		delete(s, n)
	}
}

// Clone returns a deep copy so a stored session cannot alias caller state.
func (s SlotStore) Clone() SlotStore {
	out := make(SlotStore, len(s))
	for k, v := range s {
		if len(v.Attendees) > 0 {
			v.Attendees = append([]string(nil), v.Attendees...)
		}
		out[k] = v
	}
	return out
}
