package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/opsboard/internal/cache"
	"github.com/ukydev/opsboard/internal/calendar"
	"github.com/ukydev/opsboard/internal/conflicts"
	"github.com/ukydev/opsboard/internal/db"
	"github.com/ukydev/opsboard/internal/models"
	"github.com/ukydev/opsboard/internal/views"
)

func bookingFilter(r *http.Request) (models.BookingFilter, error) {
	q := r.URL.Query()
	f := models.BookingFilter{
		Status:     models.BookingStatus(q.Get("status")),
		Client:     q.Get("client"),
		VehicleID:  q.Get("vehicle_id"),
		EmployeeID: q.Get("employee_id"),
	}
	if f.Status != "" && !models.IsValidBookingStatus(f.Status) {
		return f, fmt.Errorf("unknown status %q", f.Status)
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

// ListBookings filters on status, client, from, to, vehicle_id and employee_id.
func (a *API) ListBookings(w http.ResponseWriter, r *http.Request) {
	f, err := bookingFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bookings, err := a.Bookings.FindBookings(r.Context(), db.BookingQuery(f))
	if err != nil {
		writeStoreError(w, r, err, "Bookings")
		return
	}
	writeJSON(w, http.StatusOK, views.FilterBookings(bookings, f))
}

func (a *API) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := a.Bookings.FindBookingByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, "Booking")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (a *API) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	booking := models.Booking{CreatedBy: currentUser(r)}
	applyBooking(req, &booking)
	if booking.Reference == "" {
		booking.Reference = newReference()
	}
	a.saveBooking(w, r, booking, "")
}

func (a *API) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := pathID(r)
	existing, err := a.Bookings.FindBookingByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "Booking")
		return
	}
	booking := *existing
	applyBooking(req, &booking)
	if booking.Reference == "" {
		booking.Reference = existing.Reference
	}
	if req.Status == "" {
		booking.Status = existing.Status
	}
	a.saveBooking(w, r, booking, id)
}

func applyBooking(req models.BookingRequest, b *models.Booking) {
	b.Reference = strings.TrimSpace(req.Reference)
	b.Client = strings.TrimSpace(req.Client)
	b.Location = req.Location
	b.StartDate = req.StartDate
	b.EndDate = req.EndDate
	b.CrewIDs = unique(req.CrewIDs)
	b.VehicleIDs = unique(req.VehicleIDs)
	b.Status = req.Status
	if b.Status == "" {
		b.Status = models.BookingProvisional
	}
	b.Notes = req.Notes
}

// newReference generates a short human-friendly job reference.
func newReference() string {
	return "BK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// saveBooking checks the booking against the schedule under the schedule
// lock and writes it. id is empty for a new booking.
func (a *API) saveBooking(w http.ResponseWriter, r *http.Request, booking models.Booking, id string) {
	ctx := r.Context()
	if _, err := calendar.ExpandDates(booking.StartDate, booking.EndDate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if missing, err := a.unknownEmployees(ctx, booking.CrewIDs); err != nil {
		writeStoreError(w, r, err, "Employees")
		return
	} else if len(missing) > 0 {
		http.Error(w, "Unknown crew: "+strings.Join(missing, ", "), http.StatusBadRequest)
		return
	}

	unlock, err := a.lock(ctx, cache.ScheduleKey)
	if err != nil {
		writeStoreError(w, r, err, "Booking")
		return
	}
	defer unlock()

	schedule, err := a.scheduleAround(ctx, booking)
	if err != nil {
		writeStoreError(w, r, err, "Schedule")
		return
	}
	if found := conflicts.BookingConflicts(booking, schedule); len(found) > 0 {
		writeConflicts(w, "Booking conflicts with the schedule", found)
		return
	}

	if id == "" {
		if err := a.Bookings.InsertBooking(ctx, &booking); err != nil {
			writeStoreError(w, r, err, "Booking")
			return
		}
		a.publish(ctx, models.CollectionBookings, models.OpCreated, booking.ID.Hex(), booking)
		writeJSON(w, http.StatusCreated, booking)
		return
	}
	if err := a.Bookings.UpdateBooking(ctx, id, booking); err != nil {
		writeStoreError(w, r, err, "Booking")
		return
	}
	a.publish(ctx, models.CollectionBookings, models.OpUpdated, id, booking)
	writeJSON(w, http.StatusOK, booking)
}

func (a *API) unknownEmployees(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := a.Employees.FindEmployees(ctx, db.IDsIn(ids))
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(found))
	for _, e := range found {
		known[e.ID.Hex()] = true
	}
	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// scheduleAround loads everything that could clash with b.
func (a *API) scheduleAround(ctx context.Context, b models.Booking) (conflicts.Schedule, error) {
	var s conflicts.Schedule
	var err error

	q := db.DateRange("start_date", "end_date", b.StartDate, b.EndDate)
	q["status"] = bson.M{"$ne": models.BookingCancelled}
	if s.Bookings, err = a.Bookings.FindBookings(ctx, q); err != nil {
		return s, err
	}
	if len(b.CrewIDs) > 0 {
		hq := db.HolidayQuery(models.HolidayFilter{Status: models.HolidayApproved, From: b.StartDate, To: b.EndDate})
		hq["employee_id"] = bson.M{"$in": b.CrewIDs}
		if s.Holidays, err = a.Holidays.FindHolidays(ctx, hq); err != nil {
			return s, err
		}
	}
	if len(b.VehicleIDs) > 0 {
		mq := db.DatesBetween("dates", b.StartDate, b.EndDate)
		mq["vehicle_id"] = bson.M{"$in": b.VehicleIDs}
		if s.Maintenance, err = a.Maintenance.FindMaintenance(ctx, mq); err != nil {
			return s, err
		}
		if s.Vehicles, err = a.Vehicles.FindVehicles(ctx, db.IDsIn(b.VehicleIDs)); err != nil {
			return s, err
		}
	}
	return s, nil
}

// SetBookingStatus moves a booking through its lifecycle. Any move into
// provisional or confirmed re-runs the conflict checks.
func (a *API) SetBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	status := models.BookingStatus(req.Status)
	if !models.IsValidBookingStatus(status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	id := pathID(r)
	unlock, err := a.lock(ctx, cache.ScheduleKey)
	if err != nil {
		writeStoreError(w, r, err, "Booking")
		return
	}
	defer unlock()

	booking, err := a.Bookings.FindBookingByID(ctx, id)
	if err != nil {
		writeStoreError(w, r, err, "Booking")
		return
	}
	recheck := status != booking.Status && (status == models.BookingProvisional || status == models.BookingConfirmed)
	booking.Status = status
	if recheck {
		schedule, err := a.scheduleAround(ctx, *booking)
		if err != nil {
			writeStoreError(w, r, err, "Schedule")
			return
		}
		if found := conflicts.BookingConflicts(*booking, schedule); len(found) > 0 {
			writeConflicts(w, "Booking conflicts with the schedule", found)
			return
		}
	}

	if err := a.Bookings.UpdateBooking(ctx, id, *booking); err != nil {
		writeStoreError(w, r, err, "Booking")
		return
	}
	a.publish(ctx, models.CollectionBookings, models.OpUpdated, id, booking)
	writeJSON(w, http.StatusOK, booking)
}

func (a *API) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := a.Bookings.DeleteBooking(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "Booking")
		return
	}
	a.publish(r.Context(), models.CollectionBookings, models.OpDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}
