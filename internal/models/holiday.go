package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/opsboard/internal/calendar"
)

// HolidayStatus is the approval state of a leave request.
type HolidayStatus string

const (
	HolidayPending  HolidayStatus = "pending"
	HolidayApproved HolidayStatus = "approved"
	HolidayDeclined HolidayStatus = "declined"
)

// Holiday is a leave request.
type Holiday struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EmployeeID    string             `json:"employee_id" bson:"employee_id"`
	EmployeeName  string             `json:"employee_name" bson:"employee_name"`
	StartDate     string             `json:"start_date" bson:"start_date"`
	EndDate       string             `json:"end_date" bson:"end_date"`
	HalfDay       calendar.HalfDay   `json:"half_day,omitempty" bson:"half_day,omitempty"`
	Paid          bool               `json:"paid" bson:"paid"`
	Status        HolidayStatus      `json:"status" bson:"status"`
	Reason        string             `json:"reason,omitempty" bson:"reason,omitempty"`
	Days          float64            `json:"days" bson:"days"` // working days, weekends and bank holidays excluded
	RequestedBy   string             `json:"requested_by,omitempty" bson:"requested_by,omitempty"`
	DecidedBy     string             `json:"decided_by,omitempty" bson:"decided_by,omitempty"`
	DecidedAt     *time.Time         `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
	DeclineReason string             `json:"decline_reason,omitempty" bson:"decline_reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// Period returns the holiday's date span.
func (h *Holiday) Period() calendar.Period {
	return calendar.Period{Start: h.StartDate, End: h.EndDate, HalfDay: h.HalfDay}
}

// HolidayRequest is the body for requesting or amending a holiday.
type HolidayRequest struct {
	EmployeeID string           `json:"employee_id" validate:"required"`
	StartDate  string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string           `json:"end_date" validate:"required,datetime=2006-01-02"`
	HalfDay    calendar.HalfDay `json:"half_day" validate:"omitempty,oneof=am pm"`
	Paid       bool             `json:"paid"`
	Reason     string           `json:"reason" validate:"max=500"`
}

// DecisionRequest approves or declines a pending holiday.
type DecisionRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason" validate:"max=500"`
}

// BankHoliday is a public holiday. Region is free text such as "england-and-wales".
type BankHoliday struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Date   string             `json:"date" bson:"date" yaml:"date" validate:"required,datetime=2006-01-02"`
	Name   string             `json:"name" bson:"name" yaml:"name" validate:"required"`
	Region string             `json:"region,omitempty" bson:"region,omitempty" yaml:"region"`
}

// BankHolidaySet converts a list into a calendar lookup set.
func BankHolidaySet(list []BankHoliday) calendar.BankHolidays {
	dates := make([]string, 0, len(list))
	for _, b := range list {
		dates = append(dates, b.Date)
	}
	return calendar.NewBankHolidays(dates...)
}

// HolidayFilter narrows a holiday list or query. Zero fields match everything.
type HolidayFilter struct {
	EmployeeID string
	Status     HolidayStatus
	From       string
	To         string
}
