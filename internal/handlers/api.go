package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/opsboard/internal/cache"
	"github.com/ukydev/opsboard/internal/calendar"
	"github.com/ukydev/opsboard/internal/config"
	"github.com/ukydev/opsboard/internal/conflicts"
	"github.com/ukydev/opsboard/internal/db"
	"github.com/ukydev/opsboard/internal/events"
	"github.com/ukydev/opsboard/internal/middleware"
	"github.com/ukydev/opsboard/internal/models"
)

const (
	maxBodyBytes = 1 << 20
	lockTTL      = 10 * time.Second
)

// API serves the schedule, staff and fleet endpoints.
type API struct {
	Bookings     db.BookingCollection
	Employees    db.EmployeeCollection
	Holidays     db.HolidayCollection
	BankHolidays db.BankHolidayCollection
	Vehicles     db.VehicleCollection
	Maintenance  db.MaintenanceCollection
	Checks       db.VehicleCheckCollection
	Defects      db.DefectCollection

	// Publisher receives an event for every successful write. Leave it nil
	// when change streams feed the listeners instead.
	Publisher events.Publisher
	// Locker serialises conflict check plus write. Nil means no locking.
	Locker cache.Locker
	// BankHolidayCache fronts the bank holiday collection when set.
	BankHolidayCache *cache.BankHolidayCache

	Checklist  config.Checklist
	Location   *time.Location
	WindowDays int
	Now        func() time.Time
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// On failure it writes a 400 and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "datetime":
			msgs = append(msgs, field+" must be a YYYY-MM-DD date")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min", "max":
			if fe.Kind() == reflect.String {
				bound := "at least"
				if fe.Tag() == "max" {
					bound = "at most"
				}
				msgs = append(msgs, fmt.Sprintf("%s must be %s %s characters", field, bound, fe.Param()))
				continue
			}
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("encode response")
	}
}

// ConflictResponse is the 409 body for a write that clashes with the schedule.
type ConflictResponse struct {
	Error     string               `json:"error"`
	Conflicts []conflicts.Conflict `json:"conflicts"`
}

func writeConflicts(w http.ResponseWriter, message string, found []conflicts.Conflict) {
	writeJSON(w, http.StatusConflict, ConflictResponse{Error: message, Conflicts: found})
}

// writeStoreError maps storage errors onto status codes.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, what+" not found", http.StatusNotFound)
	case errors.Is(err, db.ErrDuplicate):
		http.Error(w, what+" already exists", http.StatusConflict)
	case errors.Is(err, cache.ErrLocked):
		http.Error(w, "Another change is in progress, try again", http.StatusConflict)
	case errors.Is(err, context.Canceled):
		http.Error(w, "Request cancelled", http.StatusRequestTimeout)
	default:
		middleware.Logger(r.Context()).WithError(err).WithField("resource", what).Error("store operation failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func pathID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func currentUser(r *http.Request) string {
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		return claims.Username
	}
	return ""
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *API) today() string {
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	return calendar.Today(a.now(), loc)
}

func (a *API) windowDays() int {
	if a.WindowDays <= 0 {
		return 14
	}
	return a.WindowDays
}

// dateParam returns a YYYY-MM-DD query parameter, fallback when absent.
func dateParam(r *http.Request, name, fallback string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	if _, err := calendar.ParseDate(v); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func (a *API) bankHolidayList(ctx context.Context) ([]models.BankHoliday, error) {
	if a.BankHolidayCache != nil {
		return a.BankHolidayCache.All(ctx)
	}
	return a.BankHolidays.FindBankHolidays(ctx, bson.M{})
}

func (a *API) lock(ctx context.Context, key string) (func(), error) {
	if a.Locker == nil {
		return func() {}, nil
	}
	return a.Locker.Lock(ctx, key, lockTTL)
}

func (a *API) publish(ctx context.Context, collection string, op models.Op, id string, doc interface{}) {
	if a.Publisher == nil {
		return
	}
	if err := a.Publisher.Publish(ctx, models.NewEvent(collection, op, id, doc)); err != nil {
		middleware.Logger(ctx).WithError(err).WithFields(log.Fields{
			"collection": collection,
			"op":         op,
			"id":         id,
		}).Warn("publish event")
	}
}
