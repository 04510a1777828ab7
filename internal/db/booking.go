package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/opsboard/internal/models"
)

// MongoBookingCollection implements BookingCollection for MongoDB.
type MongoBookingCollection struct {
	Collection *mongo.Collection
}

// InsertBooking assigns an id and timestamps, then inserts the booking.
func (c *MongoBookingCollection) InsertBooking(ctx context.Context, booking *models.Booking) error {
	stamp(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	return insertOne(ctx, c.Collection, booking)
}

// FindBookings returns the bookings matching filter, earliest first.
func (c *MongoBookingCollection) FindBookings(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "reference", Value: 1}})
	return findAll[models.Booking](ctx, c.Collection, filter, opts)
}

// FindBookingByID finds a booking by its ID.
func (c *MongoBookingCollection) FindBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	return findByID[models.Booking](ctx, c.Collection, id)
}

// UpdateBooking replaces a booking by its ID.
func (c *MongoBookingCollection) UpdateBooking(ctx context.Context, id string, booking models.Booking) error {
	stamp(&booking.ID, nil, &booking.UpdatedAt)
	return replaceByID(ctx, c.Collection, id, booking)
}

// DeleteBooking deletes a booking by its ID.
func (c *MongoBookingCollection) DeleteBooking(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}
