package models

import "time"

// BookingStatus is the lifecycle state of a confirmed booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is the terminal artifact of a successful session. It is created
// only by a successful calendar create call and is immutable afterwards,
// except for cancellation which flips the status to a tombstone so the
// session keeps its audit history.
type Booking struct {
	ID        string        `json:"id" bson:"id"`
	SessionID string        `json:"sessionId" bson:"sessionId"`
	Interval  Interval      `json:"interval" bson:"interval"`
	Title     string        `json:"title" bson:"title"`
	Attendees []string      `json:"attendees,omitempty" bson:"attendees,omitempty"`
	EventID   string        `json:"eventId" bson:"eventId"`
	Status    BookingStatus `json:"status" bson:"status"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
}

// EventRequest is the payload for creating a calendar event.
type EventRequest struct {
	Interval         Interval `json:"interval"`
	Title            string   `json:"title"`
	Attendees        []string `json:"attendees,omitempty"`
	IdempotencyToken string   `json:"idempotencyToken"`
}

// EventRef identifies an event on the calendar collaborator.
type EventRef struct {
	EventID    string   `json:"eventId" bson:"eventId"`
	CalendarID string   `json:"calendarId" bson:"calendarId"`
	Interval   Interval `json:"interval" bson:"interval"`
}
