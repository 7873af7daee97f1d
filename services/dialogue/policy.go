package dialogue

import (
	"fmt"
	"time"

	"bookwise/models"
)

// Booking validity bounds.
const (
	minDurationMin = 15
	maxDurationMin = 480
	maxLeadDays    = 365
)

// requiredSlots is the order in which missing information is requested.
// Date comes before time so a bare clock answer can anchor to it.
var requiredSlots = []models.SlotName{
	models.SlotDate,
	models.SlotTimeRange,
	models.SlotDuration,
	models.SlotTitle,
}

// applyEntities merges extracted entities into the slot store. An existing
// value is overwritten only when the new one is at least as confident, or
// when the utterance is an explicit correction. A date change invalidates a
// previously captured time range, since "actually, Thursday" does not carry
// the old clock time with it.
func applyEntities(slots models.SlotStore, entities []models.CandidateEntity, turn int, correction bool, defaultDurationMin int) {
	for _, ent := range entities {
		name, val := entityToSlot(ent, defaultDurationMin)
		if name == "" {
			continue
		}
		val.SourceTurn = turn
		if prev, ok := slots[name]; ok {
			if !correction && val.Confidence < prev.Confidence {
				continue
			}
			if name == models.SlotDate && prev.Date != val.Date {
				slots.Clear(models.SlotTimeRange)
			}
		}
		slots[name] = val
	}
}

// entityToSlot maps one extracted entity onto the slot it fills. A bare time
// becomes a time range using the current or default duration.
func entityToSlot(ent models.CandidateEntity, defaultDurationMin int) (models.SlotName, models.SlotValue) {
	val := models.SlotValue{Raw: ent.Raw, Confidence: ent.Confidence}
	switch ent.Type {
	case models.EntityDate, models.EntityRelativeDate:
		val.Date = ent.Date
		return models.SlotDate, val
	case models.EntityTimeRange:
		val.Start, val.End = ent.Start, ent.End
		return models.SlotTimeRange, val
	case models.EntityTime:
		dur := ent.Duration
		if dur <= 0 {
			dur = defaultDurationMin
		}
		val.Start, val.End = ent.Start, ent.Start+dur
		return models.SlotTimeRange, val
	case models.EntityDuration:
		val.Duration = ent.Duration
		return models.SlotDuration, val
	case models.EntityTitle:
		val.Text = ent.Text
		return models.SlotTitle, val
	case models.EntityAttendees:
		val.Attendees = ent.Attendees
		return models.SlotAttendees, val
	}
	return "", models.SlotValue{}
}

// missingRequired returns the first required slot that is absent or below
// the confidence threshold, or "" when the store is complete. Duration and
// title fall back to defaults rather than blocking the flow.
func missingRequired(slots models.SlotStore, threshold float64) models.SlotName {
	for _, name := range requiredSlots {
		if name == models.SlotDuration || name == models.SlotTitle {
			continue
		}
		if !slots.Filled(name, threshold) {
			return name
		}
	}
	return ""
}

// requestedInterval assembles the absolute interval the filled slots describe.
func requestedInterval(slots models.SlotStore, loc *time.Location) (models.Interval, bool) {
	dateVal, okDate := slots[models.SlotDate]
	timeVal, okTime := slots[models.SlotTimeRange]
	if !okDate || !okTime || dateVal.Date == "" || timeVal.End <= timeVal.Start {
		return models.Interval{}, false
	}
	day, err := time.ParseInLocation("2006-01-02", dateVal.Date, loc)
	if err != nil {
		return models.Interval{}, false
	}
	start := day.Add(time.Duration(timeVal.Start) * time.Minute)
	end := day.Add(time.Duration(timeVal.End) * time.Minute)

	// A stated duration narrows a wide window ("afternoon, 30 minutes")
	// down to the window's opening stretch.
	if durVal, ok := slots[models.SlotDuration]; ok && durVal.Duration > 0 {
		if span := int(end.Sub(start).Minutes()); span > durVal.Duration {
			end = start.Add(time.Duration(durVal.Duration) * time.Minute)
		}
	}
	return models.Interval{Start: start, End: end}, true
}

// durationMinutes returns the duration slot value, or the default.
func durationMinutes(slots models.SlotStore, defaultDurationMin int) int {
	if v, ok := slots[models.SlotDuration]; ok && v.Duration > 0 {
		return v.Duration
	}
	return defaultDurationMin
}

// validateInterval enforces the booking bounds before any calendar call.
func validateInterval(iv models.Interval, now time.Time) error {
	if !iv.End.After(iv.Start) {
		return fmt.Errorf("the end time must come after the start time")
	}
	if iv.Start.Before(now) {
		return fmt.Errorf("that time is in the past")
	}
	if iv.Start.After(now.AddDate(0, 0, maxLeadDays)) {
		return fmt.Errorf("appointments can be booked at most a year ahead")
	}
	mins := int(iv.Duration().Minutes())
	if mins < minDurationMin {
		return fmt.Errorf("appointments must be at least %d minutes", minDurationMin)
	}
	if mins > maxDurationMin {
		return fmt.Errorf("appointments can be at most %d minutes", maxDurationMin)
	}
	return nil
}
