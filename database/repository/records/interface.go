package recordsRepo

import (
	"context"

	"bookwise/database"
	"bookwise/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRecordRepository persists the audit trail of confirmed bookings.
type BookingRecordRepository interface {
	Create(ctx context.Context, booking models.Booking) (string, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetBySessionID(ctx context.Context, sessionID string) ([]models.Booking, error)
	MarkCancelled(ctx context.Context, id string) error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a new BookingRecordRepository instance using MongoDB.
func NewMongoBookingRepo() BookingRecordRepository {
	db := database.MongoClient.Database("bookwise")
	return &mongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
