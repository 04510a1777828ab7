package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/opsboard/internal/models"
)

// BookingCollection defines the interface for booking data operations.
type BookingCollection interface {
	InsertBooking(ctx context.Context, booking *models.Booking) error
	FindBookings(ctx context.Context, filter bson.M) ([]models.Booking, error)
	FindBookingByID(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, id string, booking models.Booking) error
	DeleteBooking(ctx context.Context, id string) error
}

// EmployeeCollection defines the interface for employee data operations.
type EmployeeCollection interface {
	InsertEmployee(ctx context.Context, employee *models.Employee) error
	FindEmployees(ctx context.Context, filter bson.M) ([]models.Employee, error)
	FindEmployeeByID(ctx context.Context, id string) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, id string, employee models.Employee) error
	DeleteEmployee(ctx context.Context, id string) error
}

// HolidayCollection defines the interface for holiday request operations.
type HolidayCollection interface {
	InsertHoliday(ctx context.Context, holiday *models.Holiday) error
	FindHolidays(ctx context.Context, filter bson.M) ([]models.Holiday, error)
	FindHolidayByID(ctx context.Context, id string) (*models.Holiday, error)
	UpdateHoliday(ctx context.Context, id string, holiday models.Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
}

// BankHolidayCollection defines the interface for bank holiday operations.
type BankHolidayCollection interface {
	InsertBankHoliday(ctx context.Context, bh *models.BankHoliday) error
	FindBankHolidays(ctx context.Context, filter bson.M) ([]models.BankHoliday, error)
	DeleteBankHoliday(ctx context.Context, id string) error
}

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicles(ctx context.Context, filter bson.M) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
}

// MaintenanceCollection defines the interface for maintenance booking operations.
type MaintenanceCollection interface {
	InsertMaintenance(ctx context.Context, m *models.MaintenanceBooking) error
	FindMaintenance(ctx context.Context, filter bson.M) ([]models.MaintenanceBooking, error)
	FindMaintenanceByID(ctx context.Context, id string) (*models.MaintenanceBooking, error)
	UpdateMaintenance(ctx context.Context, id string, m models.MaintenanceBooking) error
	DeleteMaintenance(ctx context.Context, id string) error
}

// VehicleCheckCollection defines the interface for vehicle check operations.
type VehicleCheckCollection interface {
	InsertCheck(ctx context.Context, check *models.VehicleCheck) error
	FindChecks(ctx context.Context, filter bson.M) ([]models.VehicleCheck, error)
	FindCheckByID(ctx context.Context, id string) (*models.VehicleCheck, error)
	DeleteCheck(ctx context.Context, id string) error
}

// DefectCollection defines the interface for defect operations.
type DefectCollection interface {
	InsertDefect(ctx context.Context, defect *models.Defect) error
	FindDefects(ctx context.Context, filter bson.M) ([]models.Defect, error)
	FindDefectByID(ctx context.Context, id string) (*models.Defect, error)
	UpdateDefect(ctx context.Context, id string, defect models.Defect) error
	ResolveDefects(ctx context.Context, ids []string, by string, at time.Time) error
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsers(ctx context.Context, filter bson.M) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	DeleteUser(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
}
