// Package conflicts finds scheduling clashes between bookings, holidays and
// maintenance before a write is accepted.
package conflicts

import (
	"fmt"
	"sort"

	"github.com/ukydev/opsboard/internal/calendar"
	"github.com/ukydev/opsboard/internal/models"
)

// Kinds of conflict.
const (
	CrewDoubleBooked    = "crew_double_booked"
	CrewOnHoliday       = "crew_on_holiday"
	VehicleDoubleBooked = "vehicle_double_booked"
	VehicleInWorkshop   = "vehicle_in_maintenance"
	VehicleUnavailable  = "vehicle_unavailable"
	VehicleUnknown      = "vehicle_unknown"
	HolidayOverlap      = "holiday_overlap"
	VehicleOnJob        = "vehicle_on_job"
	AllowanceExceeded   = "allowance_exceeded"
)

// Conflict describes one clash. SubjectID is the crew member or vehicle
// affected, OtherID the record it clashes with.
type Conflict struct {
	Kind      string   `json:"kind"`
	SubjectID string   `json:"subject_id"`
	OtherID   string   `json:"other_id,omitempty"`
	Dates     []string `json:"dates,omitempty"`
	Message   string   `json:"message"`
}

// HolidayConflicts checks a requested holiday against the employee's other
// requests. Declined requests and the record itself are ignored.
func HolidayConflicts(candidate models.Holiday, existing []models.Holiday) []Conflict {
	var out []Conflict
	p := candidate.Period()
	for _, h := range existing {
		if h.EmployeeID != candidate.EmployeeID || h.Status == models.HolidayDeclined {
			continue
		}
		if !candidate.ID.IsZero() && h.ID == candidate.ID {
			continue
		}
		if !p.Conflicts(h.Period()) {
			continue
		}
		out = append(out, Conflict{
			Kind:      HolidayOverlap,
			SubjectID: candidate.EmployeeID,
			OtherID:   h.ID.Hex(),
			Dates:     overlapDates(candidate.StartDate, candidate.EndDate, h.StartDate, h.EndDate),
			Message:   fmt.Sprintf("overlaps %s holiday %s to %s", h.Status, h.StartDate, h.EndDate),
		})
	}
	return out
}

// Schedule is the existing state a booking is checked against.
type Schedule struct {
	Bookings    []models.Booking
	Holidays    []models.Holiday
	Maintenance []models.MaintenanceBooking
	Vehicles    []models.Vehicle
}

// BookingConflicts checks a booking's crew and vehicles against everything
// else on the schedule. Cancelled candidates never conflict.
func BookingConflicts(candidate models.Booking, s Schedule) []Conflict {
	if !candidate.Active() {
		return nil
	}
	dates, err := calendar.ExpandDates(candidate.StartDate, candidate.EndDate)
	if err != nil {
		return nil
	}

	var out []Conflict

	for _, other := range s.Bookings {
		if !other.Active() || other.ID == candidate.ID {
			continue
		}
		if !calendar.Overlaps(candidate.StartDate, candidate.EndDate, other.StartDate, other.EndDate) {
			continue
		}
		shared := overlapDates(candidate.StartDate, candidate.EndDate, other.StartDate, other.EndDate)
		for _, id := range candidate.CrewIDs {
			if other.HasCrew(id) {
				out = append(out, Conflict{
					Kind: CrewDoubleBooked, SubjectID: id, OtherID: other.ID.Hex(), Dates: shared,
					Message: fmt.Sprintf("already on booking %s", label(other)),
				})
			}
		}
		for _, id := range candidate.VehicleIDs {
			if other.HasVehicle(id) {
				out = append(out, Conflict{
					Kind: VehicleDoubleBooked, SubjectID: id, OtherID: other.ID.Hex(), Dates: shared,
					Message: fmt.Sprintf("already on booking %s", label(other)),
				})
			}
		}
	}

	for _, h := range s.Holidays {
		if h.Status != models.HolidayApproved || !candidate.HasCrew(h.EmployeeID) {
			continue
		}
		if !calendar.Overlaps(candidate.StartDate, candidate.EndDate, h.StartDate, h.EndDate) {
			continue
		}
		out = append(out, Conflict{
			Kind: CrewOnHoliday, SubjectID: h.EmployeeID, OtherID: h.ID.Hex(),
			Dates:   overlapDates(candidate.StartDate, candidate.EndDate, h.StartDate, h.EndDate),
			Message: fmt.Sprintf("%s is on holiday", displayName(h)),
		})
	}

	for _, m := range s.Maintenance {
		if !m.Blocking() || !candidate.HasVehicle(m.VehicleID) {
			continue
		}
		if shared := calendar.Intersect(dates, m.Dates); len(shared) > 0 {
			out = append(out, Conflict{
				Kind: VehicleInWorkshop, SubjectID: m.VehicleID, OtherID: m.ID.Hex(), Dates: shared,
				Message: fmt.Sprintf("booked in for %s", m.Kind),
			})
		}
	}

	byID := make(map[string]models.Vehicle, len(s.Vehicles))
	for _, v := range s.Vehicles {
		byID[v.ID.Hex()] = v
	}
	for _, id := range candidate.VehicleIDs {
		v, ok := byID[id]
		if !ok {
			out = append(out, Conflict{Kind: VehicleUnknown, SubjectID: id, Message: "vehicle does not exist"})
			continue
		}
		if !v.Available() {
			out = append(out, Conflict{
				Kind: VehicleUnavailable, SubjectID: id,
				Message: fmt.Sprintf("%s is %s", v.Registration, v.Status),
			})
		}
	}

	return out
}

// MaintenanceConflicts checks that a vehicle isn't out on a job on any of the
// maintenance dates.
func MaintenanceConflicts(candidate models.MaintenanceBooking, bookings []models.Booking) []Conflict {
	if !candidate.Blocking() {
		return nil
	}
	var out []Conflict
	for _, b := range bookings {
		if !b.Active() || b.Status == models.BookingCompleted || !b.HasVehicle(candidate.VehicleID) {
			continue
		}
		dates, err := calendar.ExpandDates(b.StartDate, b.EndDate)
		if err != nil {
			continue
		}
		if shared := calendar.Intersect(candidate.Dates, dates); len(shared) > 0 {
			out = append(out, Conflict{
				Kind: VehicleOnJob, SubjectID: candidate.VehicleID, OtherID: b.ID.Hex(), Dates: shared,
				Message: fmt.Sprintf("vehicle is on booking %s", label(b)),
			})
		}
	}
	return out
}

// AllowanceConflicts reports each leave year in which the requested paid
// days would take an employee past their allowance. used holds the days
// already counted against each year.
func AllowanceConflicts(employeeID string, allowance float64, requested, used map[int]float64) []Conflict {
	years := make([]int, 0, len(requested))
	for y := range requested {
		years = append(years, y)
	}
	sort.Ints(years)

	var out []Conflict
	for _, y := range years {
		remaining := allowance - used[y]
		if requested[y] <= remaining {
			continue
		}
		out = append(out, Conflict{
			Kind:      AllowanceExceeded,
			SubjectID: employeeID,
			Message:   fmt.Sprintf("%d: requested %g days, %g remaining", y, requested[y], remaining),
		})
	}
	return out
}

func overlapDates(aStart, aEnd, bStart, bEnd string) []string {
	start, end := aStart, aEnd
	if bStart > start {
		start = bStart
	}
	if bEnd < end {
		end = bEnd
	}
	dates, err := calendar.ExpandDates(start, end)
	if err != nil {
		return nil
	}
	return dates
}

func label(b models.Booking) string {
	if b.Reference != "" {
		return b.Reference
	}
	return b.ID.Hex()
}

func displayName(h models.Holiday) string {
	if h.EmployeeName != "" {
		return h.EmployeeName
	}
	return h.EmployeeID
}
