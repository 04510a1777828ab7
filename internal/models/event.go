package models

import "time"

// Collection names, shared by the database layer and the change feed.
const (
	CollectionBookings     = "bookings"
	CollectionEmployees    = "employees"
	CollectionHolidays     = "holidays"
	CollectionBankHolidays = "bank_holidays"
	CollectionVehicles     = "vehicles"
	CollectionMaintenance  = "maintenance"
	CollectionChecks       = "vehicle_checks"
	CollectionDefects      = "defects"
	CollectionUsers        = "users"
)

// Op is the kind of change an Event describes.
type Op string

const (
	OpCreated  Op = "created"
	OpUpdated  Op = "updated"
	OpDeleted  Op = "deleted"
	OpReminder Op = "reminder"
)

// Event is pushed to real-time listeners whenever a document changes.
type Event struct {
	Collection string      `json:"collection"`
	Op         Op          `json:"op"`
	ID         string      `json:"id"`
	Document   interface{} `json:"document,omitempty"`
	Message    string      `json:"message,omitempty"`
	At         time.Time   `json:"at"`
}

// NewEvent stamps an event with the current time.
func NewEvent(collection string, op Op, id string, doc interface{}) Event {
	return Event{Collection: collection, Op: op, ID: id, Document: doc, At: time.Now().UTC()}
}
