// Package dbtest provides testify mocks of the db collection interfaces.
package dbtest

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/opsboard/internal/db"
	"github.com/ukydev/opsboard/internal/models"
)

var (
	_ db.BookingCollection      = (*MockBookingCollection)(nil)
	_ db.EmployeeCollection     = (*MockEmployeeCollection)(nil)
	_ db.HolidayCollection      = (*MockHolidayCollection)(nil)
	_ db.BankHolidayCollection  = (*MockBankHolidayCollection)(nil)
	_ db.VehicleCollection      = (*MockVehicleCollection)(nil)
	_ db.MaintenanceCollection  = (*MockMaintenanceCollection)(nil)
	_ db.VehicleCheckCollection = (*MockVehicleCheckCollection)(nil)
	_ db.DefectCollection       = (*MockDefectCollection)(nil)
	_ db.UserCollection         = (*MockUserCollection)(nil)
)

func one[T any](args mock.Arguments) (*T, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func many[T any](args mock.Arguments) ([]T, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

// MockBookingCollection is a mock implementation of BookingCollection
type MockBookingCollection struct{ mock.Mock }

func (m *MockBookingCollection) InsertBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *MockBookingCollection) FindBookings(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	return many[models.Booking](m.Called(ctx, filter))
}
func (m *MockBookingCollection) FindBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	return one[models.Booking](m.Called(ctx, id))
}
func (m *MockBookingCollection) UpdateBooking(ctx context.Context, id string, b models.Booking) error {
	return m.Called(ctx, id, b).Error(0)
}
func (m *MockBookingCollection) DeleteBooking(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockEmployeeCollection is a mock implementation of EmployeeCollection
type MockEmployeeCollection struct{ mock.Mock }

func (m *MockEmployeeCollection) InsertEmployee(ctx context.Context, e *models.Employee) error {
	return m.Called(ctx, e).Error(0)
}
func (m *MockEmployeeCollection) FindEmployees(ctx context.Context, filter bson.M) ([]models.Employee, error) {
	return many[models.Employee](m.Called(ctx, filter))
}
func (m *MockEmployeeCollection) FindEmployeeByID(ctx context.Context, id string) (*models.Employee, error) {
	return one[models.Employee](m.Called(ctx, id))
}
func (m *MockEmployeeCollection) UpdateEmployee(ctx context.Context, id string, e models.Employee) error {
	return m.Called(ctx, id, e).Error(0)
}
func (m *MockEmployeeCollection) DeleteEmployee(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockHolidayCollection is a mock implementation of HolidayCollection
type MockHolidayCollection struct{ mock.Mock }

func (m *MockHolidayCollection) InsertHoliday(ctx context.Context, h *models.Holiday) error {
	return m.Called(ctx, h).Error(0)
}
func (m *MockHolidayCollection) FindHolidays(ctx context.Context, filter bson.M) ([]models.Holiday, error) {
	return many[models.Holiday](m.Called(ctx, filter))
}
func (m *MockHolidayCollection) FindHolidayByID(ctx context.Context, id string) (*models.Holiday, error) {
	return one[models.Holiday](m.Called(ctx, id))
}
func (m *MockHolidayCollection) UpdateHoliday(ctx context.Context, id string, h models.Holiday) error {
	return m.Called(ctx, id, h).Error(0)
}
func (m *MockHolidayCollection) DeleteHoliday(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockBankHolidayCollection is a mock implementation of BankHolidayCollection
type MockBankHolidayCollection struct{ mock.Mock }

func (m *MockBankHolidayCollection) InsertBankHoliday(ctx context.Context, bh *models.BankHoliday) error {
	return m.Called(ctx, bh).Error(0)
}
func (m *MockBankHolidayCollection) FindBankHolidays(ctx context.Context, filter bson.M) ([]models.BankHoliday, error) {
	return many[models.BankHoliday](m.Called(ctx, filter))
}
func (m *MockBankHolidayCollection) DeleteBankHoliday(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockVehicleCollection is a mock implementation of VehicleCollection
type MockVehicleCollection struct{ mock.Mock }

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, v *models.Vehicle) error {
	return m.Called(ctx, v).Error(0)
}
func (m *MockVehicleCollection) FindVehicles(ctx context.Context, filter bson.M) ([]models.Vehicle, error) {
	return many[models.Vehicle](m.Called(ctx, filter))
}
func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	return one[models.Vehicle](m.Called(ctx, id))
}
func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, id string, v models.Vehicle) error {
	return m.Called(ctx, id, v).Error(0)
}
func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockMaintenanceCollection is a mock implementation of MaintenanceCollection
type MockMaintenanceCollection struct{ mock.Mock }

func (m *MockMaintenanceCollection) InsertMaintenance(ctx context.Context, mb *models.MaintenanceBooking) error {
	return m.Called(ctx, mb).Error(0)
}
func (m *MockMaintenanceCollection) FindMaintenance(ctx context.Context, filter bson.M) ([]models.MaintenanceBooking, error) {
	return many[models.MaintenanceBooking](m.Called(ctx, filter))
}
func (m *MockMaintenanceCollection) FindMaintenanceByID(ctx context.Context, id string) (*models.MaintenanceBooking, error) {
	return one[models.MaintenanceBooking](m.Called(ctx, id))
}
func (m *MockMaintenanceCollection) UpdateMaintenance(ctx context.Context, id string, mb models.MaintenanceBooking) error {
	return m.Called(ctx, id, mb).Error(0)
}
func (m *MockMaintenanceCollection) DeleteMaintenance(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockVehicleCheckCollection is a mock implementation of VehicleCheckCollection
type MockVehicleCheckCollection struct{ mock.Mock }

func (m *MockVehicleCheckCollection) InsertCheck(ctx context.Context, c *models.VehicleCheck) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockVehicleCheckCollection) FindChecks(ctx context.Context, filter bson.M) ([]models.VehicleCheck, error) {
	return many[models.VehicleCheck](m.Called(ctx, filter))
}
func (m *MockVehicleCheckCollection) FindCheckByID(ctx context.Context, id string) (*models.VehicleCheck, error) {
	return one[models.VehicleCheck](m.Called(ctx, id))
}
func (m *MockVehicleCheckCollection) DeleteCheck(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockDefectCollection is a mock implementation of DefectCollection
type MockDefectCollection struct{ mock.Mock }

func (m *MockDefectCollection) InsertDefect(ctx context.Context, d *models.Defect) error {
	return m.Called(ctx, d).Error(0)
}
func (m *MockDefectCollection) FindDefects(ctx context.Context, filter bson.M) ([]models.Defect, error) {
	return many[models.Defect](m.Called(ctx, filter))
}
func (m *MockDefectCollection) FindDefectByID(ctx context.Context, id string) (*models.Defect, error) {
	return one[models.Defect](m.Called(ctx, id))
}
func (m *MockDefectCollection) UpdateDefect(ctx context.Context, id string, d models.Defect) error {
	return m.Called(ctx, id, d).Error(0)
}
func (m *MockDefectCollection) ResolveDefects(ctx context.Context, ids []string, by string, at time.Time) error {
	return m.Called(ctx, ids, by, at).Error(0)
}

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct{ mock.Mock }

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return one[models.User](m.Called(ctx, id))
}
func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return one[models.User](m.Called(ctx, username))
}
func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return one[models.User](m.Called(ctx, email))
}
func (m *MockUserCollection) FindUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	return many[models.User](m.Called(ctx, filter))
}
func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	return m.Called(ctx, id, user).Error(0)
}
func (m *MockUserCollection) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
