// File: database/repository/calendar/interface.go
package calendarRepo

import (
	"fmt"

	"bookwise/database"
	"bookwise/services/calendarsvc"

	"go.mongodb.org/mongo-driver/mongo"
)

type mongoCalendarRepo struct {
	coll *mongo.Collection
}

// NewMongoCalendarRepo constructs the MongoDB-backed calendar collaborator.
func NewMongoCalendarRepo() calendarsvc.Service {
	db := database.MongoClient.Database("bookwise")
	repo := &mongoCalendarRepo{
		coll: db.Collection("calendar_events"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}
