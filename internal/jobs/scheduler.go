// Package jobs runs the daily housekeeping jobs on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/opsboard/internal/calendar"
	"github.com/ukydev/opsboard/internal/db"
	"github.com/ukydev/opsboard/internal/events"
	"github.com/ukydev/opsboard/internal/models"
	"github.com/ukydev/opsboard/internal/views"
)

// Cron specs, evaluated in the scheduler's location.
const (
	CompleteBookingsSpec = "5 0 * * *"
	DueRemindersSpec     = "0 6 * * *"
	MissingChecksSpec    = "0 10 * * *"
)

const jobTimeout = 2 * time.Minute

// Scheduler owns the cron runner and the collections the jobs touch.
type Scheduler struct {
	Bookings  db.BookingCollection
	Vehicles  db.VehicleCollection
	Checks    db.VehicleCheckCollection
	// Publisher receives reminders.
	Publisher events.Publisher
	// Updates receives document changes the jobs make. Leave it nil when
	// the change stream watcher already reports them.
	Updates events.Publisher

	Location   *time.Location
	WindowDays int
	Now        func() time.Time

	cron *cron.Cron
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.Location == nil {
		s.Location = time.UTC
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	s.cron = cron.New(cron.WithLocation(s.Location))

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) (int, error)
	}{
		{"complete_finished_bookings", CompleteBookingsSpec, s.CompleteFinishedBookings},
		{"due_reminders", DueRemindersSpec, s.DueReminders},
		{"missing_checks", MissingChecksSpec, s.MissingChecks},
	}
	for _, j := range jobs {
		j := j
		if _, err := s.cron.AddFunc(j.spec, func() { s.run(j.name, j.run) }); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}
	s.cron.Start()
	log.WithField("jobs", len(jobs)).Info("Cron jobs initialized successfully")
	return nil
}

// Stop stops the runner and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		log.Warn("cron jobs still running at shutdown")
	}
}

func (s *Scheduler) run(name string, job func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	start := time.Now()
	n, err := job(ctx)
	entry := log.WithFields(log.Fields{"job": name, "count": n, "duration": time.Since(start).String()})
	if err != nil {
		entry.WithError(err).Error("cron job failed")
		return
	}
	entry.Info("cron job finished")
}

func (s *Scheduler) today() string {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return calendar.Today(now(), loc)
}

func publish(ctx context.Context, pub events.Publisher, ev models.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.WithError(err).WithFields(log.Fields{"collection": ev.Collection, "id": ev.ID}).Warn("publish event")
	}
}

// CompleteFinishedBookings marks confirmed bookings that ended before today
// as completed. It returns how many were updated.
func (s *Scheduler) CompleteFinishedBookings(ctx context.Context) (int, error) {
	today := s.today()
	bookings, err := s.Bookings.FindBookings(ctx, bson.M{
		"status":   models.BookingConfirmed,
		"end_date": bson.M{"$lt": today},
	})
	if err != nil {
		return 0, fmt.Errorf("find finished bookings: %w", err)
	}
	done := 0
	for _, b := range bookings {
		if b.Status != models.BookingConfirmed || b.EndDate >= today {
			continue
		}
		b.Status = models.BookingCompleted
		if err := s.Bookings.UpdateBooking(ctx, b.ID.Hex(), b); err != nil {
			return done, fmt.Errorf("complete booking %s: %w", b.ID.Hex(), err)
		}
		done++
		publish(ctx, s.Updates, models.NewEvent(models.CollectionBookings, models.OpUpdated, b.ID.Hex(), b))
	}
	return done, nil
}

// DueReminders raises a reminder for every vehicle whose MOT or service is
// overdue or due within the window.
func (s *Scheduler) DueReminders(ctx context.Context) (int, error) {
	today := s.today()
	vehicles, err := s.Vehicles.FindVehicles(ctx, bson.M{"status": bson.M{"$ne": models.VehicleDisposed}})
	if err != nil {
		return 0, fmt.Errorf("find vehicles: %w", err)
	}
	sent := 0
	for _, state := range views.FleetStatus(vehicles, today, s.WindowDays, nil, nil) {
		if !state.NeedsAttention() {
			continue
		}
		ev := models.NewEvent(models.CollectionVehicles, models.OpReminder, state.VehicleID, state)
		ev.Message = fmt.Sprintf("%s: MOT %s, service %s", state.Registration, state.MOT, state.Service)
		publish(ctx, s.Publisher, ev)
		sent++
	}
	return sent, nil
}

// MissingChecks raises a reminder for every vehicle out on a job today that
// has no vehicle check yet.
func (s *Scheduler) MissingChecks(ctx context.Context) (int, error) {
	today := s.today()
	bookings, err := s.Bookings.FindBookings(ctx, db.BookingQuery(models.BookingFilter{From: today, To: today}))
	if err != nil {
		return 0, fmt.Errorf("find bookings: %w", err)
	}
	vehicles, err := s.Vehicles.FindVehicles(ctx, bson.M{"kind": models.KindVehicle})
	if err != nil {
		return 0, fmt.Errorf("find vehicles: %w", err)
	}
	checks, err := s.Checks.FindChecks(ctx, bson.M{"date": today})
	if err != nil {
		return 0, fmt.Errorf("find checks: %w", err)
	}
	missing := views.MissingChecks(today, vehicles, bookings, checks)
	for _, v := range missing {
		ev := models.NewEvent(models.CollectionChecks, models.OpReminder, v.ID.Hex(), v)
		ev.Message = fmt.Sprintf("%s has no vehicle check for %s", v.Registration, today)
		publish(ctx, s.Publisher, ev)
	}
	return len(missing), nil
}
