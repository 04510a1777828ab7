package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Employee is a member of staff who can be put on jobs and book holiday.
type Employee struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name"`
	Email            string             `json:"email,omitempty" bson:"email,omitempty"`
	Phone            string             `json:"phone,omitempty" bson:"phone,omitempty"`
	JobTitle         string             `json:"job_title,omitempty" bson:"job_title,omitempty"`
	HolidayAllowance float64            `json:"holiday_allowance" bson:"holiday_allowance"` // working days per year
	Active           bool               `json:"active" bson:"active"`
	StartDate        string             `json:"start_date,omitempty" bson:"start_date,omitempty"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// EmployeeRequest is the body for creating or replacing an employee.
type EmployeeRequest struct {
	Name             string  `json:"name" yaml:"name" validate:"required,max=120"`
	Email            string  `json:"email" yaml:"email" validate:"omitempty,email"`
	Phone            string  `json:"phone" yaml:"phone" validate:"max=30"`
	JobTitle         string  `json:"job_title" yaml:"job_title" validate:"max=80"`
	HolidayAllowance float64 `json:"holiday_allowance" yaml:"holiday_allowance" validate:"gte=0,lte=366"`
	Active           *bool   `json:"active" yaml:"active"`
	StartDate        string  `json:"start_date" yaml:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

// Apply copies the request fields onto e. Active defaults to true.
func (r EmployeeRequest) Apply(e *Employee) {
	e.Name = r.Name
	e.Email = r.Email
	e.Phone = r.Phone
	e.JobTitle = r.JobTitle
	e.HolidayAllowance = r.HolidayAllowance
	e.Active = r.Active == nil || *r.Active
	e.StartDate = r.StartDate
}
