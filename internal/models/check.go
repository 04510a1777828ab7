package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckItemStatus is the outcome of one line of a vehicle check.
type CheckItemStatus string

const (
	ItemPass          CheckItemStatus = "pass"
	ItemDefect        CheckItemStatus = "defect"
	ItemNotApplicable CheckItemStatus = "na"
)

// Overall results of a vehicle check.
const (
	CheckPass    = "pass"
	CheckDefects = "defects"
)

// CheckItem is a single inspected item.
type CheckItem struct {
	Name   string          `json:"name" bson:"name" validate:"required"`
	Status CheckItemStatus `json:"status" bson:"status" validate:"required,oneof=pass defect na"`
	Note   string          `json:"note,omitempty" bson:"note,omitempty" validate:"max=500"`
}

// VehicleCheck is one driver inspection of one vehicle on one day.
type VehicleCheck struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID string             `json:"vehicle_id" bson:"vehicle_id"`
	Date      string             `json:"date" bson:"date"`
	CheckedBy string             `json:"checked_by" bson:"checked_by"`
	Mileage   int                `json:"mileage,omitempty" bson:"mileage,omitempty"`
	Items     []CheckItem        `json:"items" bson:"items"`
	Result    string             `json:"result" bson:"result"`
	DefectIDs []string           `json:"defect_ids,omitempty" bson:"defect_ids,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// VehicleCheckRequest is the body for submitting a vehicle check.
type VehicleCheckRequest struct {
	VehicleID string      `json:"vehicle_id" validate:"required"`
	Date      string      `json:"date" validate:"required,datetime=2006-01-02"`
	CheckedBy string      `json:"checked_by" validate:"required"`
	Mileage   int         `json:"mileage" validate:"gte=0"`
	Items     []CheckItem `json:"items" validate:"required,min=1,dive"`
}

// DefectStatus tracks a reported defect until it is fixed.
type DefectStatus string

const (
	DefectOpen         DefectStatus = "open"
	DefectAcknowledged DefectStatus = "acknowledged"
	DefectResolved     DefectStatus = "resolved"
)

// IsValidDefectStatus checks if a defect status is known
func IsValidDefectStatus(s DefectStatus) bool {
	return s == DefectOpen || s == DefectAcknowledged || s == DefectResolved
}

// Defect is a problem found during a vehicle check.
type Defect struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID     string             `json:"vehicle_id" bson:"vehicle_id"`
	CheckID       string             `json:"check_id" bson:"check_id"`
	Item          string             `json:"item" bson:"item"`
	Note          string             `json:"note,omitempty" bson:"note,omitempty"`
	Status        DefectStatus       `json:"status" bson:"status"`
	MaintenanceID string             `json:"maintenance_id,omitempty" bson:"maintenance_id,omitempty"`
	ReportedBy    string             `json:"reported_by" bson:"reported_by"`
	ReportedAt    time.Time          `json:"reported_at" bson:"reported_at"`
	ResolvedBy    string             `json:"resolved_by,omitempty" bson:"resolved_by,omitempty"`
	ResolvedAt    *time.Time         `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
}

// DefectStatusRequest moves a defect along its workflow.
type DefectStatusRequest struct {
	Status        DefectStatus `json:"status" validate:"required,oneof=open acknowledged resolved"`
	MaintenanceID string       `json:"maintenance_id"`
}
