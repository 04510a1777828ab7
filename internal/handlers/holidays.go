package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/opsboard/internal/cache"
	"github.com/ukydev/opsboard/internal/calendar"
	"github.com/ukydev/opsboard/internal/conflicts"
	"github.com/ukydev/opsboard/internal/db"
	"github.com/ukydev/opsboard/internal/middleware"
	"github.com/ukydev/opsboard/internal/models"
	"github.com/ukydev/opsboard/internal/views"
)

func holidayFilter(r *http.Request) (models.HolidayFilter, error) {
	q := r.URL.Query()
	f := models.HolidayFilter{
		EmployeeID: q.Get("employee_id"),
		Status:     models.HolidayStatus(q.Get("status")),
	}
	var err error
	if f.From, err = dateParam(r, "from", ""); err != nil {
		return f, err
	}
	if f.To, err = dateParam(r, "to", ""); err != nil {
		return f, err
	}
	return f, nil
}

func (a *API) ListHolidays(w http.ResponseWriter, r *http.Request) {
	f, err := holidayFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	holidays, err := a.Holidays.FindHolidays(r.Context(), db.HolidayQuery(f))
	if err != nil {
		writeStoreError(w, r, err, "Holidays")
		return
	}
	writeJSON(w, http.StatusOK, views.FilterHolidays(holidays, f))
}

func (a *API) GetHoliday(w http.ResponseWriter, r *http.Request) {
	holiday, err := a.Holidays.FindHolidayByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, "Holiday")
		return
	}
	writeJSON(w, http.StatusOK, holiday)
}

// ownsRequest reports whether the caller may act on employeeID's holidays.
// Operators only manage their own.
func ownsRequest(r *http.Request, employeeID string) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return false
	}
	if claims.Role == models.RoleOperator {
		return claims.EmployeeID != "" && claims.EmployeeID == employeeID
	}
	return true
}

// CreateHoliday books a leave request as pending. It is rejected with 409
// when it overlaps another of the employee's requests or, for paid leave,
// when it would exceed the allowance of any year it touches.
func (a *API) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req models.HolidayRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if !ownsRequest(r, req.EmployeeID) {
		http.Error(w, "You can only request your own holidays", http.StatusForbidden)
		return
	}
	holiday := models.Holiday{
		EmployeeID:  req.EmployeeID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		HalfDay:     req.HalfDay,
		Paid:        req.Paid,
		Reason:      req.Reason,
		Status:      models.HolidayPending,
		RequestedBy: currentUser(r),
	}
	a.saveHoliday(w, r, holiday, "")
}

// UpdateHoliday amends a pending request. Decided requests only change
// through the decision endpoint.
func (a *API) UpdateHoliday(w http.ResponseWriter, r *http.Request) {
	var req models.HolidayRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := pathID(r)
	existing, err := a.Holidays.FindHolidayByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "Holiday")
		return
	}
	if !ownsRequest(r, existing.EmployeeID) {
		http.Error(w, "You can only change your own holidays", http.StatusForbidden)
		return
	}
	if existing.Status != models.HolidayPending {
		http.Error(w, "Only pending holidays can be changed", http.StatusConflict)
		return
	}
	if req.EmployeeID != existing.EmployeeID {
		http.Error(w, "employee_id cannot be changed", http.StatusBadRequest)
		return
	}

	holiday := *existing
	holiday.StartDate = req.StartDate
	holiday.EndDate = req.EndDate
	holiday.HalfDay = req.HalfDay
	holiday.Paid = req.Paid
	holiday.Reason = req.Reason
	a.saveHoliday(w, r, holiday, id)
}

// saveHoliday runs the shared checks for create (id == "") and update.
func (a *API) saveHoliday(w http.ResponseWriter, r *http.Request, holiday models.Holiday, id string) {
	ctx := r.Context()
	period := holiday.Period()
	if err := period.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	employee, err := a.Employees.FindEmployeeByID(ctx, holiday.EmployeeID)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Unknown employee", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeStoreError(w, r, err, "Employee")
		return
	}
	holiday.EmployeeName = employee.Name

	unlock, err := a.lock(ctx, cache.HolidayKey(holiday.EmployeeID))
	if err != nil {
		writeStoreError(w, r, err, "Holiday")
		return
	}
	defer unlock()

	bank, err := a.bankHolidayList(ctx)
	if err != nil {
		writeStoreError(w, r, err, "Bank holidays")
		return
	}
	bankSet := models.BankHolidaySet(bank)
	byYear, err := calendar.WorkingDaysByYear(period, bankSet)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	holiday.Days = 0
	for _, n := range byYear {
		holiday.Days += n
	}
	if holiday.Days == 0 {
		http.Error(w, "Request covers no working days", http.StatusBadRequest)
		return
	}

	theirs, err := a.Holidays.FindHolidays(ctx, bson.M{"employee_id": holiday.EmployeeID})
	if err != nil {
		writeStoreError(w, r, err, "Holidays")
		return
	}
	if found := conflicts.HolidayConflicts(holiday, theirs); len(found) > 0 {
		writeConflicts(w, "Holiday overlaps an existing request", found)
		return
	}

	if holiday.Paid {
		used := usedByYear(*employee, byYear, a.today(), theirs, id, bankSet)
		if found := conflicts.AllowanceConflicts(holiday.EmployeeID, employee.HolidayAllowance, byYear, used); len(found) > 0 {
			writeConflicts(w, "Holiday exceeds the remaining allowance", found)
			return
		}
	}

	if id == "" {
		if err := a.Holidays.InsertHoliday(ctx, &holiday); err != nil {
			writeStoreError(w, r, err, "Holiday")
			return
		}
		a.publish(ctx, models.CollectionHolidays, models.OpCreated, holiday.ID.Hex(), holiday)
		writeJSON(w, http.StatusCreated, holiday)
		return
	}
	if err := a.Holidays.UpdateHoliday(ctx, id, holiday); err != nil {
		writeStoreError(w, r, err, "Holiday")
		return
	}
	a.publish(ctx, models.CollectionHolidays, models.OpUpdated, id, holiday)
	writeJSON(w, http.StatusOK, holiday)
}

// usedByYear totals the paid days already held against each year, leaving
// out the request being amended.
func usedByYear(employee models.Employee, years map[int]float64, today string, holidays []models.Holiday, excludeID string, bank calendar.BankHolidays) map[int]float64 {
	others := make([]models.Holiday, 0, len(holidays))
	for _, h := range holidays {
		if excludeID != "" && h.ID.Hex() == excludeID {
			continue
		}
		others = append(others, h)
	}
	used := make(map[int]float64, len(years))
	for y := range years {
		used[y] = views.HolidayBalance(employee, y, today, others, bank).Used()
	}
	return used
}

// DecideHoliday approves or declines a pending request. Approval re-checks
// for overlaps, since another request may have been approved meanwhile.
func (a *API) DecideHoliday(w http.ResponseWriter, r *http.Request) {
	var req models.DecisionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	ctx := r.Context()
	id := pathID(r)
	holiday, err := a.Holidays.FindHolidayByID(ctx, id)
	if err != nil {
		writeStoreError(w, r, err, "Holiday")
		return
	}

	unlock, err := a.lock(ctx, cache.HolidayKey(holiday.EmployeeID))
	if err != nil {
		writeStoreError(w, r, err, "Holiday")
		return
	}
	defer unlock()

	if holiday.Status != models.HolidayPending {
		http.Error(w, "Holiday has already been decided", http.StatusConflict)
		return
	}

	if req.Approve {
		theirs, err := a.Holidays.FindHolidays(ctx, bson.M{
			"employee_id": holiday.EmployeeID,
			"status":      models.HolidayApproved,
		})
		if err != nil {
			writeStoreError(w, r, err, "Holidays")
			return
		}
		if found := conflicts.HolidayConflicts(*holiday, theirs); len(found) > 0 {
			writeConflicts(w, "Holiday overlaps an approved request", found)
			return
		}
		holiday.Status = models.HolidayApproved
		holiday.DeclineReason = ""
	} else {
		holiday.Status = models.HolidayDeclined
		holiday.DeclineReason = req.Reason
	}
	now := a.now().UTC()
	holiday.DecidedAt = &now
	holiday.DecidedBy = currentUser(r)

	if err := a.Holidays.UpdateHoliday(ctx, id, *holiday); err != nil {
		writeStoreError(w, r, err, "Holiday")
		return
	}
	a.publish(ctx, models.CollectionHolidays, models.OpUpdated, id, holiday)
	writeJSON(w, http.StatusOK, holiday)
}

// DeleteHoliday withdraws a request. Operators may only withdraw their own
// pending requests.
func (a *API) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	holiday, err := a.Holidays.FindHolidayByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "Holiday")
		return
	}
	if !ownsRequest(r, holiday.EmployeeID) {
		http.Error(w, "You can only withdraw your own holidays", http.StatusForbidden)
		return
	}
	if claims, _ := middleware.GetUserFromContext(r.Context()); claims != nil &&
		claims.Role == models.RoleOperator && holiday.Status != models.HolidayPending {
		http.Error(w, "Only pending holidays can be withdrawn", http.StatusConflict)
		return
	}
	if err := a.Holidays.DeleteHoliday(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "Holiday")
		return
	}
	a.publish(r.Context(), models.CollectionHolidays, models.OpDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// ListBankHolidays returns bank holidays, optionally for one ?year=.
func (a *API) ListBankHolidays(w http.ResponseWriter, r *http.Request) {
	list, err := a.bankHolidayList(r.Context())
	if err != nil {
		writeStoreError(w, r, err, "Bank holidays")
		return
	}
	if v := r.URL.Query().Get("year"); v != "" {
		if _, err := strconv.Atoi(v); err != nil || len(v) != 4 {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		filtered := make([]models.BankHoliday, 0, len(list))
		for _, b := range list {
			if len(b.Date) >= 4 && b.Date[:4] == v {
				filtered = append(filtered, b)
			}
		}
		list = filtered
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) CreateBankHoliday(w http.ResponseWriter, r *http.Request) {
	var bh models.BankHoliday
	if !decodeAndValidate(w, r, &bh) {
		return
	}
	bh.ID = primitive.NilObjectID
	if err := a.BankHolidays.InsertBankHoliday(r.Context(), &bh); err != nil {
		writeStoreError(w, r, err, "Bank holiday")
		return
	}
	a.invalidateBankHolidays(r.Context())
	a.publish(r.Context(), models.CollectionBankHolidays, models.OpCreated, bh.ID.Hex(), bh)
	writeJSON(w, http.StatusCreated, bh)
}

func (a *API) DeleteBankHoliday(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := a.BankHolidays.DeleteBankHoliday(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "Bank holiday")
		return
	}
	a.invalidateBankHolidays(r.Context())
	a.publish(r.Context(), models.CollectionBankHolidays, models.OpDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) invalidateBankHolidays(ctx context.Context) {
	if a.BankHolidayCache != nil {
		a.BankHolidayCache.Invalidate(ctx)
	}
}
