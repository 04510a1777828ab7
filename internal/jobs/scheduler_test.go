package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"

	"github.com/ukydev/opsboard/internal/db/dbtest"
	"github.com/ukydev/opsboard/internal/events"
	"github.com/ukydev/opsboard/internal/models"
)

type collected struct {
	events []models.Event
}

func (c *collected) Publish(_ context.Context, ev models.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func fixedClock(date string) func() time.Time {
	t, err := time.Parse("2006-01-02 15:04", date+" 09:30")
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func newScheduler(today string) (*Scheduler, *dbtest.MockBookingCollection, *dbtest.MockVehicleCollection, *dbtest.MockVehicleCheckCollection, *collected) {
	bookings := &dbtest.MockBookingCollection{}
	vehicles := &dbtest.MockVehicleCollection{}
	checks := &dbtest.MockVehicleCheckCollection{}
	pub := &collected{}
	s := &Scheduler{
		Bookings:   bookings,
		Vehicles:   vehicles,
		Checks:     checks,
		Publisher:  pub,
		Updates:    pub,
		Location:   time.UTC,
		WindowDays: 14,
		Now:        fixedClock(today),
	}
	return s, bookings, vehicles, checks, pub
}

func TestCompleteFinishedBookings(t *testing.T) {
	s, bookings, _, _, pub := newScheduler("2024-06-10")

	done := models.Booking{ID: primitive.NewObjectID(), Reference: "J-1", EndDate: "2024-06-07", Status: models.BookingConfirmed}
	bookings.On("FindBookings", mock.Anything, bson.M{
		"status":   models.BookingConfirmed,
		"end_date": bson.M{"$lt": "2024-06-10"},
	}).Return([]models.Booking{done}, nil)
	bookings.On("UpdateBooking", mock.Anything, done.ID.Hex(), mock.MatchedBy(func(b models.Booking) bool {
		return b.Status == models.BookingCompleted && b.Reference == "J-1"
	})).Return(nil)

	n, err := s.CompleteFinishedBookings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.OpUpdated, pub.events[0].Op)
	assert.Equal(t, models.CollectionBookings, pub.events[0].Collection)
	bookings.AssertExpectations(t)
}

func TestCompleteFinishedBookings_NoUpdatesPublisher(t *testing.T) {
	s, bookings, _, _, pub := newScheduler("2024-06-10")
	s.Updates = nil
	b := models.Booking{ID: primitive.NewObjectID(), EndDate: "2024-06-01", Status: models.BookingConfirmed}
	bookings.On("FindBookings", mock.Anything, mock.Anything).Return([]models.Booking{b}, nil)
	bookings.On("UpdateBooking", mock.Anything, b.ID.Hex(), mock.Anything).Return(nil)

	n, err := s.CompleteFinishedBookings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, pub.events, "booking changes are left to the change stream")
}

func TestCompleteFinishedBookings_UpdateFails(t *testing.T) {
	s, bookings, _, _, pub := newScheduler("2024-06-10")
	b := models.Booking{ID: primitive.NewObjectID(), EndDate: "2024-06-01", Status: models.BookingConfirmed}
	bookings.On("FindBookings", mock.Anything, mock.Anything).Return([]models.Booking{b}, nil)
	bookings.On("UpdateBooking", mock.Anything, b.ID.Hex(), mock.Anything).Return(errors.New("write conflict"))

	n, err := s.CompleteFinishedBookings(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pub.events)
}

func TestDueReminders(t *testing.T) {
	s, _, vehicles, _, pub := newScheduler("2024-06-10")
	fleet := []models.Vehicle{
		{ID: primitive.NewObjectID(), Registration: "AA11 AAA", MOTDue: "2024-06-01", ServiceDue: "2025-01-01", Status: models.VehicleActive},
		{ID: primitive.NewObjectID(), Registration: "BB22 BBB", MOTDue: "2025-03-01", ServiceDue: "2024-06-20", Status: models.VehicleActive},
		{ID: primitive.NewObjectID(), Registration: "CC33 CCC", MOTDue: "2025-03-01", ServiceDue: "2025-03-01", Status: models.VehicleActive},
	}
	vehicles.On("FindVehicles", mock.Anything, bson.M{"status": bson.M{"$ne": models.VehicleDisposed}}).Return(fleet, nil)

	n, err := s.DueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, pub.events, 2)
	assert.Equal(t, models.OpReminder, pub.events[0].Op)
	assert.Equal(t, "AA11 AAA: MOT overdue, service ok", pub.events[0].Message)
	assert.Equal(t, "BB22 BBB: MOT ok, service due_soon", pub.events[1].Message)
}

func TestMissingChecks(t *testing.T) {
	s, bookings, vehicles, checks, pub := newScheduler("2024-06-10")
	van := models.Vehicle{ID: primitive.NewObjectID(), Registration: "VAN1", Kind: models.KindVehicle, Status: models.VehicleActive}
	truck := models.Vehicle{ID: primitive.NewObjectID(), Registration: "TRK1", Kind: models.KindVehicle, Status: models.VehicleActive}
	idle := models.Vehicle{ID: primitive.NewObjectID(), Registration: "IDLE", Kind: models.KindVehicle, Status: models.VehicleActive}

	bookings.On("FindBookings", mock.Anything, bson.M{
		"start_date": bson.M{"$lte": "2024-06-10"},
		"end_date":   bson.M{"$gte": "2024-06-10"},
	}).Return([]models.Booking{{
		ID: primitive.NewObjectID(), StartDate: "2024-06-09", EndDate: "2024-06-11",
		VehicleIDs: []string{van.ID.Hex(), truck.ID.Hex()}, Status: models.BookingConfirmed,
	}}, nil)
	vehicles.On("FindVehicles", mock.Anything, bson.M{"kind": models.KindVehicle}).Return([]models.Vehicle{van, truck, idle}, nil)
	checks.On("FindChecks", mock.Anything, bson.M{"date": "2024-06-10"}).Return([]models.VehicleCheck{
		{VehicleID: truck.ID.Hex(), Date: "2024-06-10", Result: models.CheckPass},
	}, nil)

	n, err := s.MissingChecks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.CollectionChecks, pub.events[0].Collection)
	assert.Equal(t, van.ID.Hex(), pub.events[0].ID)
	assert.Contains(t, pub.events[0].Message, "VAN1")
}

func TestMissingChecks_LookupError(t *testing.T) {
	s, bookings, _, _, _ := newScheduler("2024-06-10")
	bookings.On("FindBookings", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	_, err := s.MissingChecks(context.Background())
	assert.ErrorContains(t, err, "find bookings")
}

func TestScheduler_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &Scheduler{Publisher: events.Discard, Location: time.UTC}
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
