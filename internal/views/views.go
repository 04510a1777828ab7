// Package views computes the derived state the dashboard pages show:
// filtered lists, per-day calendars, vehicle classifications and holiday balances.
package views

import (
	"sort"
	"strings"

	"github.com/ukydev/opsboard/internal/models"
)

// FilterBookings returns the bookings matching f, ordered by start date then reference.
func FilterBookings(bookings []models.Booking, f models.BookingFilter) []models.Booking {
	client := strings.ToLower(strings.TrimSpace(f.Client))
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if client != "" && !strings.Contains(strings.ToLower(b.Client), client) {
			continue
		}
		if f.From != "" && b.EndDate < f.From {
			continue
		}
		if f.To != "" && b.StartDate > f.To {
			continue
		}
		if f.VehicleID != "" && !b.HasVehicle(f.VehicleID) {
			continue
		}
		if f.EmployeeID != "" && !b.HasCrew(f.EmployeeID) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].Reference < out[j].Reference
	})
	return out
}

// FilterHolidays returns the holidays matching f, ordered by start date then employee name.
func FilterHolidays(holidays []models.Holiday, f models.HolidayFilter) []models.Holiday {
	out := make([]models.Holiday, 0, len(holidays))
	for _, h := range holidays {
		if f.EmployeeID != "" && h.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Status != "" && h.Status != f.Status {
			continue
		}
		if f.From != "" && h.EndDate < f.From {
			continue
		}
		if f.To != "" && h.StartDate > f.To {
			continue
		}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].EmployeeName < out[j].EmployeeName
	})
	return out
}

// CheckResult derives the overall result of a vehicle check from its items.
func CheckResult(items []models.CheckItem) string {
	for _, item := range items {
		if item.Status == models.ItemDefect {
			return models.CheckDefects
		}
	}
	return models.CheckPass
}
