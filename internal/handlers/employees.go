package handlers

import (
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/opsboard/internal/models"
	"github.com/ukydev/opsboard/internal/views"
)

// ListEmployees returns employees by name. ?active=true limits to current staff.
func (a *API) ListEmployees(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "active must be true or false", http.StatusBadRequest)
			return
		}
		filter["active"] = active
	}
	employees, err := a.Employees.FindEmployees(r.Context(), filter)
	if err != nil {
		writeStoreError(w, r, err, "Employees")
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (a *API) GetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := a.Employees.FindEmployeeByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, "Employee")
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (a *API) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req models.EmployeeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	var employee models.Employee
	req.Apply(&employee)
	if err := a.Employees.InsertEmployee(r.Context(), &employee); err != nil {
		writeStoreError(w, r, err, "Employee")
		return
	}
	a.publish(r.Context(), models.CollectionEmployees, models.OpCreated, employee.ID.Hex(), employee)
	writeJSON(w, http.StatusCreated, employee)
}

func (a *API) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req models.EmployeeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := pathID(r)
	employee, err := a.Employees.FindEmployeeByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "Employee")
		return
	}
	req.Apply(employee)
	if err := a.Employees.UpdateEmployee(r.Context(), id, *employee); err != nil {
		writeStoreError(w, r, err, "Employee")
		return
	}
	a.publish(r.Context(), models.CollectionEmployees, models.OpUpdated, id, employee)
	writeJSON(w, http.StatusOK, employee)
}

// DeleteEmployee removes an employee. Their holidays and booking
// assignments are left for the office to tidy up.
func (a *API) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := a.Employees.DeleteEmployee(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "Employee")
		return
	}
	a.publish(r.Context(), models.CollectionEmployees, models.OpDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// EmployeeBalance reports the paid holiday position for ?year= (default this year).
func (a *API) EmployeeBalance(w http.ResponseWriter, r *http.Request) {
	today := a.today()
	year, _ := strconv.Atoi(today[:4])
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 2100 {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = y
	}

	id := pathID(r)
	employee, err := a.Employees.FindEmployeeByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "Employee")
		return
	}
	balance, err := a.balance(r, *employee, year, today)
	if err != nil {
		writeStoreError(w, r, err, "Holidays")
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (a *API) balance(r *http.Request, employee models.Employee, year int, today string) (views.Balance, error) {
	y := strconv.Itoa(year)
	holidays, err := a.Holidays.FindHolidays(r.Context(), bson.M{
		"employee_id": employee.ID.Hex(),
		"paid":        true,
		"start_date":  bson.M{"$lte": y + "-12-31"},
		"end_date":    bson.M{"$gte": y + "-01-01"},
	})
	if err != nil {
		return views.Balance{}, err
	}
	bank, err := a.bankHolidayList(r.Context())
	if err != nil {
		return views.Balance{}, err
	}
	return views.HolidayBalance(employee, year, today, holidays, models.BankHolidaySet(bank)), nil
}
