package calendarRepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"bookwise/models"
	"bookwise/services/calendarsvc"
)

// GetBusyIntervals returns confirmed event intervals overlapping [start, end).
func (r *mongoCalendarRepo) GetBusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]models.Interval, error) {
	filter := bson.M{
		"calendarId":     calendarID,
		"status":         models.EventStatusConfirmed,
		"interval.start": bson.M{"$lt": end},
		"interval.end":   bson.M{"$gt": start},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, wrapTransient("get_busy_intervals", err)
	}
	defer cursor.Close(ctx)

	var events []models.CalendarEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, wrapTransient("get_busy_intervals", err)
	}
	intervals := make([]models.Interval, 0, len(events))
	for _, ev := range events {
		intervals = append(intervals, ev.Interval)
	}
	return intervals, nil
}

// CreateEvent inserts the event and verifies the interval is still free.
// The unique token index makes a duplicate create return the event that
// already exists instead of a second one. The overlap check runs after the
// insert and rolls it back on collision, so two concurrent creates for the
// same gap cannot both survive.
func (r *mongoCalendarRepo) CreateEvent(ctx context.Context, calendarID string, req models.EventRequest) (*models.EventRef, error) {
	event := models.CalendarEvent{
		ID:         uuid.New().String(),
		CalendarID: calendarID,
		Interval:   req.Interval,
		Title:      req.Title,
		Attendees:  req.Attendees,
		Token:      req.IdempotencyToken,
		Status:     models.EventStatusConfirmed,
		CreatedAt:  time.Now(),
	}

	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			existing, findErr := r.FindEventByToken(ctx, calendarID, req.IdempotencyToken)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, wrapTransient("create_event", err)
	}

	conflicting, err := r.countOverlapping(ctx, calendarID, event.ID, req.Interval)
	if err != nil {
		// Unknown overlap state: drop the event rather than risk a double booking.
		_, _ = r.coll.DeleteOne(ctx, bson.M{"id": event.ID})
		return nil, wrapTransient("create_event", err)
	}
	if conflicting > 0 {
		_, _ = r.coll.DeleteOne(ctx, bson.M{"id": event.ID})
		return nil, &calendarsvc.ConflictError{Message: "interval already booked"}
	}

	return event.Ref(), nil
}

func (r *mongoCalendarRepo) countOverlapping(ctx context.Context, calendarID, excludeID string, iv models.Interval) (int64, error) {
	filter := bson.M{
		"calendarId":     calendarID,
		"id":             bson.M{"$ne": excludeID},
		"status":         models.EventStatusConfirmed,
		"interval.start": bson.M{"$lt": iv.End},
		"interval.end":   bson.M{"$gt": iv.Start},
	}
	return r.coll.CountDocuments(ctx, filter)
}

// CancelEvent flips an event to cancelled; the record stays for audit.
func (r *mongoCalendarRepo) CancelEvent(ctx context.Context, calendarID, eventID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": eventID, "calendarId": calendarID},
		bson.M{"$set": bson.M{"status": models.EventStatusCancelled}},
	)
	if err != nil {
		return wrapTransient("cancel_event", err)
	}
	if res.MatchedCount == 0 {
		return errors.New("event not found")
	}
	return nil
}

// FindEventByToken returns the event created with the given idempotency
// token, or nil when none exists.
func (r *mongoCalendarRepo) FindEventByToken(ctx context.Context, calendarID, token string) (*models.EventRef, error) {
	var event models.CalendarEvent
	err := r.coll.FindOne(ctx, bson.M{"calendarId": calendarID, "token": token}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, wrapTransient("find_event_by_token", err)
	}
	return event.Ref(), nil
}

func wrapTransient(op string, err error) error {
	return &calendarsvc.TransientError{Op: op, Err: err}
}
