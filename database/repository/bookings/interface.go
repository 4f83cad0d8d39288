package bookingsRepo

import (
	"context"

	"frontdesk/database"
	"frontdesk/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingRepository interface {
	Create(ctx context.Context, record models.BookingRecord) (string, error)
	GetByID(ctx context.Context, id string) (*models.BookingRecord, error)
	ListByEmail(ctx context.Context, email string) ([]models.BookingRecord, error)
	MarkReminded(ctx context.Context, id string) error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a new BookingRepository instance using MongoDB.
func NewMongoBookingRepo() BookingRepository {
	db := database.MongoClient.Database("frontdesk")
	return &mongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
