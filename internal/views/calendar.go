package views

import (
	"github.com/ukydev/opsboard/internal/calendar"
	"github.com/ukydev/opsboard/internal/models"
)

// CalendarInput is everything the calendar page overlays.
type CalendarInput struct {
	Bookings     []models.Booking
	Holidays     []models.Holiday
	Maintenance  []models.MaintenanceBooking
	BankHolidays []models.BankHoliday
}

// Day is one row of the schedule calendar.
type Day struct {
	Date        string           `json:"date"`
	Weekend     bool             `json:"weekend"`
	BankHoliday string           `json:"bank_holiday,omitempty"`
	Bookings    []DayBooking     `json:"bookings"`
	Holidays    []DayHoliday     `json:"holidays"`
	Maintenance []DayMaintenance `json:"maintenance"`
}

// DayBooking is the calendar summary of a booking.
type DayBooking struct {
	ID         string               `json:"id"`
	Reference  string               `json:"reference"`
	Client     string               `json:"client"`
	Status     models.BookingStatus `json:"status"`
	CrewIDs    []string             `json:"crew_ids"`
	VehicleIDs []string             `json:"vehicle_ids"`
}

// DayHoliday is the calendar summary of a holiday.
type DayHoliday struct {
	ID           string               `json:"id"`
	EmployeeID   string               `json:"employee_id"`
	EmployeeName string               `json:"employee_name"`
	HalfDay      calendar.HalfDay     `json:"half_day,omitempty"`
	Status       models.HolidayStatus `json:"status"`
}

// DayMaintenance is the calendar summary of a maintenance booking.
type DayMaintenance struct {
	ID        string                   `json:"id"`
	VehicleID string                   `json:"vehicle_id"`
	Kind      models.MaintenanceKind   `json:"kind"`
	Status    models.MaintenanceStatus `json:"status"`
}

// Calendar expands every record across its dates and groups them per day
// between from and to inclusive. Cancelled bookings and maintenance and
// declined holidays are left out.
func Calendar(from, to string, in CalendarInput) ([]Day, error) {
	dates, err := calendar.ExpandDates(from, to)
	if err != nil {
		return nil, err
	}
	days := make([]Day, len(dates))
	index := make(map[string]int, len(dates))
	for i, d := range dates {
		days[i] = Day{
			Date:        d,
			Weekend:     calendar.IsWeekend(d),
			Bookings:    []DayBooking{},
			Holidays:    []DayHoliday{},
			Maintenance: []DayMaintenance{},
		}
		index[d] = i
	}

	for _, b := range in.BankHolidays {
		if i, ok := index[b.Date]; ok {
			days[i].BankHoliday = b.Name
		}
	}

	for _, b := range FilterBookings(in.Bookings, models.BookingFilter{From: from, To: to}) {
		if !b.Active() {
			continue
		}
		entry := DayBooking{
			ID:         b.ID.Hex(),
			Reference:  b.Reference,
			Client:     b.Client,
			Status:     b.Status,
			CrewIDs:    b.CrewIDs,
			VehicleIDs: b.VehicleIDs,
		}
		eachDate(b.StartDate, b.EndDate, index, func(i int) {
			days[i].Bookings = append(days[i].Bookings, entry)
		})
	}

	for _, h := range FilterHolidays(in.Holidays, models.HolidayFilter{From: from, To: to}) {
		if h.Status == models.HolidayDeclined {
			continue
		}
		entry := DayHoliday{
			ID:           h.ID.Hex(),
			EmployeeID:   h.EmployeeID,
			EmployeeName: h.EmployeeName,
			HalfDay:      h.HalfDay,
			Status:       h.Status,
		}
		eachDate(h.StartDate, h.EndDate, index, func(i int) {
			days[i].Holidays = append(days[i].Holidays, entry)
		})
	}

	for _, m := range in.Maintenance {
		if m.Status == models.MaintenanceCancelled {
			continue
		}
		entry := DayMaintenance{ID: m.ID.Hex(), VehicleID: m.VehicleID, Kind: m.Kind, Status: m.Status}
		for _, d := range m.Dates {
			if i, ok := index[d]; ok {
				days[i].Maintenance = append(days[i].Maintenance, entry)
			}
		}
	}

	return days, nil
}

// eachDate calls fn with the calendar index of every date of [start, end]
// that is inside the calendar window.
func eachDate(start, end string, index map[string]int, fn func(i int)) {
	dates, err := calendar.ExpandDates(start, end)
	if err != nil {
		return
	}
	for _, d := range dates {
		if i, ok := index[d]; ok {
			fn(i)
		}
	}
}
