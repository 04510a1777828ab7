package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenanceKind describes the work being done.
type MaintenanceKind string

const (
	MaintenanceService MaintenanceKind = "service"
	MaintenanceRepair  MaintenanceKind = "repair"
	MaintenanceMOT     MaintenanceKind = "mot"
	MaintenanceTyres   MaintenanceKind = "tyres"
	MaintenanceOther   MaintenanceKind = "other"
)

// MaintenanceStatus tracks a maintenance booking through the workshop.
type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "scheduled"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// MaintenanceBooking represents a vehicle service or repair booked on one or more dates.
type MaintenanceBooking struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID string             `json:"vehicle_id" bson:"vehicle_id"`
	Kind      MaintenanceKind    `json:"kind" bson:"kind"`
	Dates     []string           `json:"dates" bson:"dates"` // sorted YYYY-MM-DD
	Garage    string             `json:"garage" bson:"garage"`
	Status    MaintenanceStatus  `json:"status" bson:"status"`
	Cost      float64            `json:"cost" bson:"cost"`
	Notes     string             `json:"notes" bson:"notes"`
	DefectIDs []string           `json:"defect_ids,omitempty" bson:"defect_ids,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// Blocking reports whether the booking takes the vehicle out of service on its dates.
func (m *MaintenanceBooking) Blocking() bool {
	return m.Status == MaintenanceScheduled || m.Status == MaintenanceInProgress
}

// OnDate reports whether the booking covers date.
func (m *MaintenanceBooking) OnDate(date string) bool {
	for _, d := range m.Dates {
		if d == date {
			return true
		}
	}
	return false
}

// MaintenanceRequest is the body for creating or replacing a maintenance booking.
type MaintenanceRequest struct {
	VehicleID string            `json:"vehicle_id" validate:"required"`
	Kind      MaintenanceKind   `json:"kind" validate:"required,oneof=service repair mot tyres other"`
	Dates     []string          `json:"dates" validate:"required,min=1,dive,datetime=2006-01-02"`
	Garage    string            `json:"garage"`
	Status    MaintenanceStatus `json:"status" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	Cost      float64           `json:"cost" validate:"gte=0"`
	Notes     string            `json:"notes"`
	DefectIDs []string          `json:"defect_ids"`
}
