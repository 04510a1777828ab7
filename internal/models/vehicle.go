package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleKind separates road vehicles from towed and plant equipment.
type VehicleKind string

const (
	KindVehicle   VehicleKind = "vehicle"
	KindTrailer   VehicleKind = "trailer"
	KindEquipment VehicleKind = "equipment"
)

// VehicleStatus is the inventory status set by the office, independent of bookings.
type VehicleStatus string

const (
	VehicleActive   VehicleStatus = "active"
	VehicleOffRoad  VehicleStatus = "off_road"
	VehicleDisposed VehicleStatus = "disposed"
)

// Vehicle represents a fleet vehicle or item of equipment.
type Vehicle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Registration string             `bson:"registration" json:"registration"`
	Name         string             `bson:"name" json:"name"`
	Kind         VehicleKind        `bson:"kind" json:"kind"`
	Make         string             `bson:"make" json:"make"`
	Model        string             `bson:"model" json:"model"`
	Year         int                `bson:"year,omitempty" json:"year,omitempty"`
	Status       VehicleStatus      `bson:"status" json:"status"`
	MOTDue       string             `bson:"mot_due,omitempty" json:"mot_due,omitempty"`
	ServiceDue   string             `bson:"service_due,omitempty" json:"service_due,omitempty"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// VehicleRequest is the body for creating or replacing a vehicle.
type VehicleRequest struct {
	Registration string        `json:"registration" yaml:"registration" validate:"required,max=16"`
	Name         string        `json:"name" yaml:"name" validate:"max=100"`
	Kind         VehicleKind   `json:"kind" yaml:"kind" validate:"required,oneof=vehicle trailer equipment"`
	Make         string        `json:"make" yaml:"make"`
	Model        string        `json:"model" yaml:"model"`
	Year         int           `json:"year" yaml:"year" validate:"omitempty,gte=1950,lte=2100"`
	Status       VehicleStatus `json:"status" yaml:"status" validate:"omitempty,oneof=active off_road disposed"`
	MOTDue       string        `json:"mot_due" yaml:"mot_due" validate:"omitempty,datetime=2006-01-02"`
	ServiceDue   string        `json:"service_due" yaml:"service_due" validate:"omitempty,datetime=2006-01-02"`
	Notes        string        `json:"notes" yaml:"notes"`
}

// Apply copies the request fields onto v.
func (r VehicleRequest) Apply(v *Vehicle) {
	v.Registration = r.Registration
	v.Name = r.Name
	v.Kind = r.Kind
	v.Make = r.Make
	v.Model = r.Model
	v.Year = r.Year
	v.Status = r.Status
	if v.Status == "" {
		v.Status = VehicleActive
	}
	v.MOTDue = r.MOTDue
	v.ServiceDue = r.ServiceDue
	v.Notes = r.Notes
}

// Available reports whether the vehicle can be put on a job at all.
func (v *Vehicle) Available() bool {
	return v.Status == VehicleActive || v.Status == ""
}
