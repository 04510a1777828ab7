package views

import (
	"github.com/ukydev/opsboard/internal/calendar"
	"github.com/ukydev/opsboard/internal/models"
)

// DashboardInput is the set of collections the front page summarises.
type DashboardInput struct {
	Bookings     []models.Booking
	Holidays     []models.Holiday
	Maintenance  []models.MaintenanceBooking
	Vehicles     []models.Vehicle
	Checks       []models.VehicleCheck
	Defects      []models.Defect
	BankHolidays []models.BankHoliday
}

// Dashboard is the operations summary for one day.
type Dashboard struct {
	Date          string                      `json:"date"`
	BankHoliday   string                      `json:"bank_holiday,omitempty"`
	Jobs          []models.Booking            `json:"jobs"`
	StaffOff      []models.Holiday            `json:"staff_off"`
	PendingLeave  int                         `json:"pending_leave"`
	InMaintenance []models.MaintenanceBooking `json:"in_maintenance"`
	OpenDefects   []models.Defect             `json:"open_defects"`
	DueSoon       []VehicleState              `json:"due_soon"`
	MissingChecks []models.Vehicle            `json:"missing_checks"`
}

// BuildDashboard assembles the summary for date.
func BuildDashboard(date string, windowDays int, in DashboardInput) Dashboard {
	d := Dashboard{
		Date:          date,
		Jobs:          []models.Booking{},
		StaffOff:      []models.Holiday{},
		InMaintenance: []models.MaintenanceBooking{},
		OpenDefects:   []models.Defect{},
		DueSoon:       []VehicleState{},
		MissingChecks: []models.Vehicle{},
	}

	for _, b := range in.BankHolidays {
		if b.Date == date {
			d.BankHoliday = b.Name
		}
	}

	for _, b := range FilterBookings(in.Bookings, models.BookingFilter{From: date, To: date}) {
		if b.Active() {
			d.Jobs = append(d.Jobs, b)
		}
	}

	for _, h := range FilterHolidays(in.Holidays, models.HolidayFilter{}) {
		switch {
		case h.Status == models.HolidayPending:
			d.PendingLeave++
		case h.Status == models.HolidayApproved && calendar.Within(date, h.StartDate, h.EndDate):
			d.StaffOff = append(d.StaffOff, h)
		}
	}

	for _, m := range in.Maintenance {
		if m.Blocking() && m.OnDate(date) {
			d.InMaintenance = append(d.InMaintenance, m)
		}
	}

	for _, def := range in.Defects {
		if def.Status != models.DefectResolved {
			d.OpenDefects = append(d.OpenDefects, def)
		}
	}

	var live []models.Vehicle
	for _, v := range in.Vehicles {
		if v.Status != models.VehicleDisposed {
			live = append(live, v)
		}
	}
	for _, s := range FleetStatus(live, date, windowDays, in.Bookings, in.Maintenance) {
		if s.NeedsAttention() {
			d.DueSoon = append(d.DueSoon, s)
		}
	}

	if missing := MissingChecks(date, live, in.Bookings, in.Checks); missing != nil {
		d.MissingChecks = missing
	}

	return d
}
