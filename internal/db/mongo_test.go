package db

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/opsboard/internal/models"
)

// testDatabase connects to MONGO_URI and returns a freshly dropped test
// database, skipping when no server is reachable.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "uri" {
		t.Skip("MONGO_URI not set or invalid, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	database := client.Database("test_opsboard")
	require.NoError(t, database.Drop(context.Background()))
	return database
}

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestNilCollection(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, (&MongoBookingCollection{}).InsertBooking(ctx, &models.Booking{}), errNilCollection)
	_, err := (&MongoVehicleCollection{}).FindVehicles(ctx, nil)
	assert.ErrorIs(t, err, errNilCollection)
	assert.ErrorIs(t, (&MongoHolidayCollection{}).DeleteHoliday(ctx, primitive.NewObjectID().Hex()), errNilCollection)
}

func TestInvalidIDIsNotFound(t *testing.T) {
	coll := &MongoEmployeeCollection{Collection: &mongo.Collection{}}
	_, err := coll.FindEmployeeByID(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingQuery(t *testing.T) {
	q := BookingQuery(models.BookingFilter{
		From: "2024-06-01", To: "2024-06-30", Status: models.BookingConfirmed,
		VehicleID: "v1", EmployeeID: "e1", Client: "ignored",
	})
	assert.Equal(t, bson.M{
		"end_date":    bson.M{"$gte": "2024-06-01"},
		"start_date":  bson.M{"$lte": "2024-06-30"},
		"status":      models.BookingConfirmed,
		"vehicle_ids": "v1",
		"crew_ids":    "e1",
	}, q)

	assert.Equal(t, bson.M{}, BookingQuery(models.BookingFilter{}))
}

func TestStorageDoesNotImportViews(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)
	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, imp := range f.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			require.NoError(t, err)
			assert.NotEqual(t, "github.com/ukydev/opsboard/internal/views", path, name)
			assert.False(t, strings.HasPrefix(path, "github.com/ukydev/opsboard/internal/handlers"), name)
		}
	}
}

func TestHolidayQuery(t *testing.T) {
	q := HolidayQuery(models.HolidayFilter{EmployeeID: "e1", Status: models.HolidayPending, From: "2024-01-01"})
	assert.Equal(t, bson.M{
		"end_date":    bson.M{"$gte": "2024-01-01"},
		"employee_id": "e1",
		"status":      models.HolidayPending,
	}, q)
}

func TestDateFilters(t *testing.T) {
	assert.Equal(t, bson.M{"dates": bson.M{"$elemMatch": bson.M{"$gte": "2024-02-01", "$lte": "2024-02-29"}}},
		DatesBetween("dates", "2024-02-01", "2024-02-29"))
	assert.Equal(t, bson.M{}, DatesBetween("dates", "", ""))
	assert.Equal(t, bson.M{"date": bson.M{"$lte": "2024-02-29"}}, Between("date", "", "2024-02-29"))
}

func TestIDsIn(t *testing.T) {
	id := primitive.NewObjectID()
	got := IDsIn([]string{id.Hex(), "not-an-id"})
	assert.Equal(t, bson.M{"_id": bson.M{"$in": []primitive.ObjectID{id}}}, got)
}

func TestChangeEventToEvent(t *testing.T) {
	id := primitive.NewObjectID()
	raw, err := bson.Marshal(models.Vehicle{ID: id, Registration: "AB12 CDE", Status: models.VehicleActive})
	require.NoError(t, err)

	var c changeEvent
	c.OperationType = "replace"
	c.DocumentKey.ID = id
	c.FullDocument = raw
	c.ClusterTime = primitive.Timestamp{T: 1717000000}

	ev, ok := c.toEvent(models.CollectionVehicles)
	require.True(t, ok)
	assert.Equal(t, models.OpUpdated, ev.Op)
	assert.Equal(t, id.Hex(), ev.ID)
	assert.Equal(t, time.Unix(1717000000, 0).UTC(), ev.At)
	v, ok := ev.Document.(*models.Vehicle)
	require.True(t, ok)
	assert.Equal(t, "AB12 CDE", v.Registration)

	c.OperationType = "delete"
	ev, ok = c.toEvent(models.CollectionVehicles)
	require.True(t, ok)
	assert.Equal(t, models.OpDeleted, ev.Op)
	assert.Nil(t, ev.Document)

	c.OperationType = "invalidate"
	_, ok = c.toEvent(models.CollectionVehicles)
	assert.False(t, ok)
}

func TestBookingCollection_Integration(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	coll := &MongoBookingCollection{Collection: database.Collection(models.CollectionBookings)}

	first := &models.Booking{Reference: "J-2", Client: "Acme", StartDate: "2024-06-10", EndDate: "2024-06-12",
		CrewIDs: []string{"e1"}, Status: models.BookingConfirmed}
	second := &models.Booking{Reference: "J-1", Client: "Zenith", StartDate: "2024-06-01", EndDate: "2024-06-02",
		VehicleIDs: []string{"v1"}, Status: models.BookingProvisional}
	require.NoError(t, coll.InsertBooking(ctx, first))
	require.NoError(t, coll.InsertBooking(ctx, second))
	assert.False(t, first.ID.IsZero())
	assert.False(t, first.CreatedAt.IsZero())

	all, err := coll.FindBookings(ctx, bson.M{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "J-1", all[0].Reference)

	june11, err := coll.FindBookings(ctx, BookingQuery(models.BookingFilter{From: "2024-06-11", To: "2024-06-11"}))
	require.NoError(t, err)
	require.Len(t, june11, 1)
	assert.Equal(t, first.ID, june11[0].ID)

	first.Status = models.BookingCompleted
	require.NoError(t, coll.UpdateBooking(ctx, first.ID.Hex(), *first))
	got, err := coll.FindBookingByID(ctx, first.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, got.Status)

	require.NoError(t, coll.DeleteBooking(ctx, first.ID.Hex()))
	assert.ErrorIs(t, coll.DeleteBooking(ctx, first.ID.Hex()), ErrNotFound)
	_, err = coll.FindBookingByID(ctx, first.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVehicleCheckCollection_DuplicateIntegration(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	require.NoError(t, EnsureIndexes(ctx, database))

	coll := &MongoVehicleCheckCollection{Collection: database.Collection(models.CollectionChecks)}
	require.NoError(t, coll.InsertCheck(ctx, &models.VehicleCheck{VehicleID: "v1", Date: "2024-06-03", Result: models.CheckPass}))
	err := coll.InsertCheck(ctx, &models.VehicleCheck{VehicleID: "v1", Date: "2024-06-03", Result: models.CheckPass})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, coll.InsertCheck(ctx, &models.VehicleCheck{VehicleID: "v1", Date: "2024-06-04", Result: models.CheckPass}))
	checks, err := coll.FindChecks(ctx, Between("date", "2024-06-04", ""))
	require.NoError(t, err)
	assert.Len(t, checks, 1)
}

func TestDefectCollection_ResolveIntegration(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	coll := &MongoDefectCollection{Collection: database.Collection(models.CollectionDefects)}

	open := &models.Defect{VehicleID: "v1", Item: "Tyres", Status: models.DefectOpen}
	other := &models.Defect{VehicleID: "v1", Item: "Lights", Status: models.DefectOpen}
	require.NoError(t, coll.InsertDefect(ctx, open))
	require.NoError(t, coll.InsertDefect(ctx, other))

	at := time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC)
	require.NoError(t, coll.ResolveDefects(ctx, []string{open.ID.Hex()}, "u1", at))

	got, err := coll.FindDefectByID(ctx, open.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.DefectResolved, got.Status)
	assert.Equal(t, "u1", got.ResolvedBy)
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, got.ResolvedAt.Equal(at))

	stillOpen, err := coll.FindDefects(ctx, bson.M{"status": models.DefectOpen})
	require.NoError(t, err)
	require.Len(t, stillOpen, 1)
	assert.Equal(t, other.ID, stillOpen[0].ID)

	assert.ErrorIs(t, coll.ResolveDefects(ctx, []string{"bogus"}, "u1", at), ErrNotFound)
}
