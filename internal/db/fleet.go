package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/opsboard/internal/models"
)

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record into the collection.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	stamp(&vehicle.ID, &vehicle.CreatedAt, &vehicle.UpdatedAt)
	return insertOne(ctx, c.Collection, vehicle)
}

// FindVehicles queries vehicle records, ordered by registration.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, filter bson.M) ([]models.Vehicle, error) {
	return findAll[models.Vehicle](ctx, c.Collection, filter, options.Find().SetSort(bson.D{{Key: "registration", Value: 1}}))
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	return findByID[models.Vehicle](ctx, c.Collection, id)
}

// UpdateVehicle replaces a vehicle by its ID.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	stamp(&vehicle.ID, nil, &vehicle.UpdatedAt)
	return replaceByID(ctx, c.Collection, id, vehicle)
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// MongoMaintenanceCollection implements MaintenanceCollection for MongoDB.
type MongoMaintenanceCollection struct {
	Collection *mongo.Collection
}

// InsertMaintenance inserts a maintenance booking into the collection.
func (c *MongoMaintenanceCollection) InsertMaintenance(ctx context.Context, m *models.MaintenanceBooking) error {
	stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return insertOne(ctx, c.Collection, m)
}

// FindMaintenance queries maintenance bookings, ordered by first date.
func (c *MongoMaintenanceCollection) FindMaintenance(ctx context.Context, filter bson.M) ([]models.MaintenanceBooking, error) {
	return findAll[models.MaintenanceBooking](ctx, c.Collection, filter, options.Find().SetSort(bson.D{{Key: "dates.0", Value: 1}}))
}

// FindMaintenanceByID finds a maintenance booking by its ID.
func (c *MongoMaintenanceCollection) FindMaintenanceByID(ctx context.Context, id string) (*models.MaintenanceBooking, error) {
	return findByID[models.MaintenanceBooking](ctx, c.Collection, id)
}

// UpdateMaintenance replaces a maintenance booking by its ID.
func (c *MongoMaintenanceCollection) UpdateMaintenance(ctx context.Context, id string, m models.MaintenanceBooking) error {
	stamp(&m.ID, nil, &m.UpdatedAt)
	return replaceByID(ctx, c.Collection, id, m)
}

// DeleteMaintenance deletes a maintenance booking by its ID.
func (c *MongoMaintenanceCollection) DeleteMaintenance(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// MongoVehicleCheckCollection implements VehicleCheckCollection for MongoDB.
type MongoVehicleCheckCollection struct {
	Collection *mongo.Collection
}

// InsertCheck inserts a check. A second check for the same vehicle and date
// fails with ErrDuplicate.
func (c *MongoVehicleCheckCollection) InsertCheck(ctx context.Context, check *models.VehicleCheck) error {
	stamp(&check.ID, &check.CreatedAt, nil)
	return insertOne(ctx, c.Collection, check)
}

func (c *MongoVehicleCheckCollection) FindChecks(ctx context.Context, filter bson.M) ([]models.VehicleCheck, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "vehicle_id", Value: 1}})
	return findAll[models.VehicleCheck](ctx, c.Collection, filter, opts)
}

func (c *MongoVehicleCheckCollection) FindCheckByID(ctx context.Context, id string) (*models.VehicleCheck, error) {
	return findByID[models.VehicleCheck](ctx, c.Collection, id)
}

func (c *MongoVehicleCheckCollection) DeleteCheck(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// MongoDefectCollection implements DefectCollection for MongoDB.
type MongoDefectCollection struct {
	Collection *mongo.Collection
}

func (c *MongoDefectCollection) InsertDefect(ctx context.Context, defect *models.Defect) error {
	stamp(&defect.ID, &defect.ReportedAt, nil)
	return insertOne(ctx, c.Collection, defect)
}

func (c *MongoDefectCollection) FindDefects(ctx context.Context, filter bson.M) ([]models.Defect, error) {
	return findAll[models.Defect](ctx, c.Collection, filter, options.Find().SetSort(bson.D{{Key: "reported_at", Value: -1}}))
}

func (c *MongoDefectCollection) FindDefectByID(ctx context.Context, id string) (*models.Defect, error) {
	return findByID[models.Defect](ctx, c.Collection, id)
}

func (c *MongoDefectCollection) UpdateDefect(ctx context.Context, id string, defect models.Defect) error {
	return replaceByID(ctx, c.Collection, id, defect)
}

// ResolveDefects marks every listed defect that is still open as resolved.
func (c *MongoDefectCollection) ResolveDefects(ctx context.Context, ids []string, by string, at time.Time) error {
	if c.Collection == nil {
		return errNilCollection
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return fmt.Errorf("invalid defect ID %q: %w", id, ErrNotFound)
		}
		oids = append(oids, oid)
	}
	if len(oids) == 0 {
		return nil
	}
	_, err := c.Collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": oids}, "status": bson.M{"$ne": models.DefectResolved}},
		bson.M{"$set": bson.M{"status": models.DefectResolved, "resolved_by": by, "resolved_at": at}},
	)
	return err
}
