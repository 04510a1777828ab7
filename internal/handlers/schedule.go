package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"github.com/ukydev/opsboard/internal/calendar"
	"github.com/ukydev/opsboard/internal/db"
	"github.com/ukydev/opsboard/internal/models"
	"github.com/ukydev/opsboard/internal/views"
)

const defaultCalendarDays = 28

// Calendar returns one entry per day between ?from= and ?to= with the
// bookings, holidays and maintenance on it. It defaults to four weeks from today.
func (a *API) Calendar(w http.ResponseWriter, r *http.Request) {
	from, err := dateParam(r, "from", a.today())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defaultTo, _ := calendar.AddDays(from, defaultCalendarDays-1)
	to, err := dateParam(r, "to", defaultTo)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := calendar.ExpandDates(from, to); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var in views.CalendarInput
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		q := db.DateRange("start_date", "end_date", from, to)
		q["status"] = bson.M{"$ne": models.BookingCancelled}
		in.Bookings, err = a.Bookings.FindBookings(ctx, q)
		return err
	})
	g.Go(func() (err error) {
		q := db.DateRange("start_date", "end_date", from, to)
		q["status"] = bson.M{"$ne": models.HolidayDeclined}
		in.Holidays, err = a.Holidays.FindHolidays(ctx, q)
		return err
	})
	g.Go(func() (err error) {
		in.Maintenance, err = a.Maintenance.FindMaintenance(ctx, db.DatesBetween("dates", from, to))
		return err
	})
	g.Go(func() (err error) {
		in.BankHolidays, err = a.bankHolidayList(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeStoreError(w, r, err, "Schedule")
		return
	}

	days, err := views.Calendar(from, to, in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// Dashboard summarises ?date= (default today): jobs, staff off, vehicles
// in the workshop, open defects, MOT/service due and missing checks.
func (a *API) Dashboard(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date", a.today())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var in views.DashboardInput
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		in.Bookings, err = a.Bookings.FindBookings(ctx, db.BookingQuery(models.BookingFilter{From: date, To: date}))
		return err
	})
	g.Go(func() (err error) {
		in.Holidays, err = a.Holidays.FindHolidays(ctx, bson.M{"$or": []bson.M{
			{"status": models.HolidayPending},
			{"status": models.HolidayApproved, "start_date": bson.M{"$lte": date}, "end_date": bson.M{"$gte": date}},
		}})
		return err
	})
	g.Go(func() (err error) {
		in.Maintenance, err = a.Maintenance.FindMaintenance(ctx, bson.M{"dates": date})
		return err
	})
	g.Go(func() (err error) {
		in.Vehicles, err = a.Vehicles.FindVehicles(ctx, bson.M{"status": bson.M{"$ne": models.VehicleDisposed}})
		return err
	})
	g.Go(func() (err error) {
		in.Checks, err = a.Checks.FindChecks(ctx, bson.M{"date": date})
		return err
	})
	g.Go(func() (err error) {
		in.Defects, err = a.Defects.FindDefects(ctx, bson.M{"status": bson.M{"$ne": models.DefectResolved}})
		return err
	})
	g.Go(func() (err error) {
		in.BankHolidays, err = a.bankHolidayList(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeStoreError(w, r, err, "Dashboard")
		return
	}

	writeJSON(w, http.StatusOK, views.BuildDashboard(date, a.windowDays(), in))
}
