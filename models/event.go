package models

import "time"

// EventStatus is the lifecycle state of a stored calendar event.
type EventStatus string

const (
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusCancelled EventStatus = "cancelled"
)

// CalendarEvent is the persisted form of an event on the calendar backend.
type CalendarEvent struct {
	ID         string      `bson:"id" json:"id"`
	CalendarID string      `bson:"calendarId" json:"calendarId"`
	Interval   Interval    `bson:"interval" json:"interval"`
	Title      string      `bson:"title" json:"title"`
	Attendees  []string    `bson:"attendees,omitempty" json:"attendees,omitempty"`
	Token      string      `bson:"token" json:"token"`
	Status     EventStatus `bson:"status" json:"status"`
	CreatedAt  time.Time   `bson:"createdAt" json:"createdAt"`
}

// Ref converts the stored event into the collaborator-facing reference.
func (e CalendarEvent) Ref() *EventRef {
	return &EventRef{EventID: e.ID, CalendarID: e.CalendarID, Interval: e.Interval}
}
