package views

import (
	"strconv"

	"github.com/ukydev/opsboard/internal/calendar"
	"github.com/ukydev/opsboard/internal/models"
)

// Balance is an employee's paid holiday position for one leave year.
type Balance struct {
	EmployeeID string  `json:"employee_id"`
	Year       int     `json:"year"`
	Allowance  float64 `json:"allowance"`
	Taken      float64 `json:"taken"`   // approved, before today
	Booked     float64 `json:"booked"`  // approved, today or later
	Pending    float64 `json:"pending"` // awaiting a decision
	Remaining  float64 `json:"remaining"`
}

// HolidayBalance totals an employee's paid holiday in year. Only working
// days count. Unpaid and declined requests don't touch the allowance.
func HolidayBalance(emp models.Employee, year int, today string, holidays []models.Holiday, bank calendar.BankHolidays) Balance {
	bal := Balance{EmployeeID: emp.ID.Hex(), Year: year, Allowance: emp.HolidayAllowance}
	prefix := strconv.Itoa(year) + "-"
	for _, h := range holidays {
		if h.EmployeeID != bal.EmployeeID || !h.Paid || h.Status == models.HolidayDeclined {
			continue
		}
		p := h.Period()
		if p.Validate() != nil {
			continue
		}
		dates, err := p.Dates()
		if err != nil {
			continue
		}
		weight := 1.0
		if p.HalfDay != calendar.FullDay {
			weight = 0.5
		}
		for _, d := range dates {
			if len(d) < 5 || d[:5] != prefix || !calendar.IsWorkingDay(d, bank) {
				continue
			}
			switch {
			case h.Status == models.HolidayPending:
				bal.Pending += weight
			case d < today:
				bal.Taken += weight
			default:
				bal.Booked += weight
			}
		}
	}
	bal.Remaining = bal.Allowance - bal.Taken - bal.Booked - bal.Pending
	return bal
}

// Used is every paid day counted against the allowance.
func (b Balance) Used() float64 {
	return b.Taken + b.Booked + b.Pending
}
