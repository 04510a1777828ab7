package views

import (
	"sort"

	"github.com/ukydev/opsboard/internal/calendar"
	"github.com/ukydev/opsboard/internal/models"
)

// Vehicle states on a given date, in priority order.
const (
	StateDisposed      = "disposed"
	StateOffRoad       = "off_road"
	StateInMaintenance = "in_maintenance"
	StateOnJob         = "on_job"
	StateAvailable     = "available"
)

// Due statuses for MOT and service dates.
const (
	DueOverdue = "overdue"
	DueSoon    = "due_soon"
	DueOK      = "ok"
	DueUnknown = "unknown"
)

// VehicleState is a vehicle's classification on one date.
type VehicleState struct {
	VehicleID     string `json:"vehicle_id"`
	Registration  string `json:"registration"`
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	State         string `json:"state"`
	BookingID     string `json:"booking_id,omitempty"`
	MaintenanceID string `json:"maintenance_id,omitempty"`
	MOT           string `json:"mot"`
	Service       string `json:"service"`
}

// ClassifyVehicle works out what a vehicle is doing on date. Inventory status
// wins over maintenance, which wins over jobs.
func ClassifyVehicle(v models.Vehicle, date string, bookings []models.Booking, maintenance []models.MaintenanceBooking) VehicleState {
	id := v.ID.Hex()
	state := VehicleState{
		VehicleID:    id,
		Registration: v.Registration,
		Name:         v.Name,
		Kind:         string(v.Kind),
		State:        StateAvailable,
	}

	switch v.Status {
	case models.VehicleDisposed:
		state.State = StateDisposed
		return state
	case models.VehicleOffRoad:
		state.State = StateOffRoad
		return state
	}

	for _, m := range maintenance {
		if m.VehicleID == id && m.Blocking() && m.OnDate(date) {
			state.State = StateInMaintenance
			state.MaintenanceID = m.ID.Hex()
			return state
		}
	}

	for _, b := range bookings {
		if b.Active() && b.Status != models.BookingCompleted && b.HasVehicle(id) && calendar.Within(date, b.StartDate, b.EndDate) {
			state.State = StateOnJob
			state.BookingID = b.ID.Hex()
			return state
		}
	}

	return state
}

// DueStatus classifies a due date against today. A date within windowDays
// of today (inclusive) is due soon.
func DueStatus(due, today string, windowDays int) string {
	if due == "" {
		return DueUnknown
	}
	if due < today {
		return DueOverdue
	}
	limit, err := calendar.AddDays(today, windowDays)
	if err != nil {
		return DueUnknown
	}
	if due <= limit {
		return DueSoon
	}
	return DueOK
}

// FleetStatus classifies every vehicle on date, sorted by registration.
func FleetStatus(vehicles []models.Vehicle, date string, windowDays int, bookings []models.Booking, maintenance []models.MaintenanceBooking) []VehicleState {
	out := make([]VehicleState, 0, len(vehicles))
	for _, v := range vehicles {
		state := ClassifyVehicle(v, date, bookings, maintenance)
		state.MOT = DueStatus(v.MOTDue, date, windowDays)
		state.Service = DueStatus(v.ServiceDue, date, windowDays)
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Registration < out[j].Registration })
	return out
}

// NeedsAttention reports whether either due date is overdue or due soon.
func (s VehicleState) NeedsAttention() bool {
	return s.MOT == DueOverdue || s.MOT == DueSoon || s.Service == DueOverdue || s.Service == DueSoon
}

// MissingChecks lists the vehicles out on a job on date that nobody has checked yet.
func MissingChecks(date string, vehicles []models.Vehicle, bookings []models.Booking, checks []models.VehicleCheck) []models.Vehicle {
	checked := make(map[string]bool, len(checks))
	for _, c := range checks {
		if c.Date == date {
			checked[c.VehicleID] = true
		}
	}
	onJob := make(map[string]bool)
	for _, b := range bookings {
		if !b.Active() || !calendar.Within(date, b.StartDate, b.EndDate) {
			continue
		}
		for _, id := range b.VehicleIDs {
			onJob[id] = true
		}
	}
	var out []models.Vehicle
	for _, v := range vehicles {
		id := v.ID.Hex()
		if v.Kind != models.KindVehicle || !onJob[id] || checked[id] {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Registration < out[j].Registration })
	return out
}
