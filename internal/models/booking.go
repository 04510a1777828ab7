package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus is the lifecycle of a job.
type BookingStatus string

const (
	BookingProvisional BookingStatus = "provisional"
	BookingConfirmed   BookingStatus = "confirmed"
	BookingCompleted   BookingStatus = "completed"
	BookingCancelled   BookingStatus = "cancelled"
)

// IsValidBookingStatus checks if a booking status is known
func IsValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingProvisional, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	default:
		return false
	}
}

// Booking represents a job: a client, a site, a date range and the crew and vehicles assigned to it.
type Booking struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Reference  string             `json:"reference" bson:"reference"`
	Client     string             `json:"client" bson:"client"`
	Location   Location           `json:"location" bson:"location"`
	StartDate  string             `json:"start_date" bson:"start_date"`
	EndDate    string             `json:"end_date" bson:"end_date"`
	CrewIDs    []string           `json:"crew_ids" bson:"crew_ids"`
	VehicleIDs []string           `json:"vehicle_ids" bson:"vehicle_ids"`
	Status     BookingStatus      `json:"status" bson:"status"`
	Notes      string             `json:"notes" bson:"notes"`
	CreatedBy  string             `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// Active reports whether the booking still holds its crew and vehicles.
func (b *Booking) Active() bool {
	return b.Status != BookingCancelled
}

// HasCrew reports whether the employee is assigned to the booking.
func (b *Booking) HasCrew(employeeID string) bool {
	return contains(b.CrewIDs, employeeID)
}

// HasVehicle reports whether the vehicle is assigned to the booking.
func (b *Booking) HasVehicle(vehicleID string) bool {
	return contains(b.VehicleIDs, vehicleID)
}

// BookingRequest is the body for creating or replacing a booking.
type BookingRequest struct {
	Reference  string        `json:"reference" validate:"max=40"`
	Client     string        `json:"client" validate:"required,max=200"`
	Location   Location      `json:"location" validate:"required"`
	StartDate  string        `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string        `json:"end_date" validate:"required,datetime=2006-01-02"`
	CrewIDs    []string      `json:"crew_ids" validate:"dive,required"`
	VehicleIDs []string      `json:"vehicle_ids" validate:"dive,required"`
	Status     BookingStatus `json:"status" validate:"omitempty,oneof=provisional confirmed completed cancelled"`
	Notes      string        `json:"notes"`
}

// StatusRequest changes only the status of a record.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// BookingFilter narrows a booking list or query. Zero fields match everything.
type BookingFilter struct {
	Status     BookingStatus
	Client     string
	From       string
	To         string
	VehicleID  string
	EmployeeID string
}
