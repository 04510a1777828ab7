package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/opsboard/internal/models"
)

// MongoEmployeeCollection implements EmployeeCollection for MongoDB.
type MongoEmployeeCollection struct {
	Collection *mongo.Collection
}

func (c *MongoEmployeeCollection) InsertEmployee(ctx context.Context, employee *models.Employee) error {
	stamp(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
	return insertOne(ctx, c.Collection, employee)
}

func (c *MongoEmployeeCollection) FindEmployees(ctx context.Context, filter bson.M) ([]models.Employee, error) {
	return findAll[models.Employee](ctx, c.Collection, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (c *MongoEmployeeCollection) FindEmployeeByID(ctx context.Context, id string) (*models.Employee, error) {
	return findByID[models.Employee](ctx, c.Collection, id)
}

func (c *MongoEmployeeCollection) UpdateEmployee(ctx context.Context, id string, employee models.Employee) error {
	stamp(&employee.ID, nil, &employee.UpdatedAt)
	return replaceByID(ctx, c.Collection, id, employee)
}

func (c *MongoEmployeeCollection) DeleteEmployee(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// MongoHolidayCollection implements HolidayCollection for MongoDB.
type MongoHolidayCollection struct {
	Collection *mongo.Collection
}

func (c *MongoHolidayCollection) InsertHoliday(ctx context.Context, holiday *models.Holiday) error {
	stamp(&holiday.ID, &holiday.CreatedAt, &holiday.UpdatedAt)
	return insertOne(ctx, c.Collection, holiday)
}

func (c *MongoHolidayCollection) FindHolidays(ctx context.Context, filter bson.M) ([]models.Holiday, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "employee_name", Value: 1}})
	return findAll[models.Holiday](ctx, c.Collection, filter, opts)
}

func (c *MongoHolidayCollection) FindHolidayByID(ctx context.Context, id string) (*models.Holiday, error) {
	return findByID[models.Holiday](ctx, c.Collection, id)
}

func (c *MongoHolidayCollection) UpdateHoliday(ctx context.Context, id string, holiday models.Holiday) error {
	stamp(&holiday.ID, nil, &holiday.UpdatedAt)
	return replaceByID(ctx, c.Collection, id, holiday)
}

func (c *MongoHolidayCollection) DeleteHoliday(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// MongoBankHolidayCollection implements BankHolidayCollection for MongoDB.
type MongoBankHolidayCollection struct {
	Collection *mongo.Collection
}

func (c *MongoBankHolidayCollection) InsertBankHoliday(ctx context.Context, bh *models.BankHoliday) error {
	stamp(&bh.ID, nil, nil)
	return insertOne(ctx, c.Collection, bh)
}

func (c *MongoBankHolidayCollection) FindBankHolidays(ctx context.Context, filter bson.M) ([]models.BankHoliday, error) {
	return findAll[models.BankHoliday](ctx, c.Collection, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

func (c *MongoBankHolidayCollection) DeleteBankHoliday(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}
