package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/ukydev/opsboard/internal/cache"
	"github.com/ukydev/opsboard/internal/config"
	"github.com/ukydev/opsboard/internal/db/dbtest"
	"github.com/ukydev/opsboard/internal/events"
	"github.com/ukydev/opsboard/internal/models"
)

// Monday 3 June 2024, mid-morning.
var fixedNow = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

type fixture struct {
	api          *API
	bookings     *dbtest.MockBookingCollection
	employees    *dbtest.MockEmployeeCollection
	holidays     *dbtest.MockHolidayCollection
	bankHolidays *dbtest.MockBankHolidayCollection
	vehicles     *dbtest.MockVehicleCollection
	maintenance  *dbtest.MockMaintenanceCollection
	checks       *dbtest.MockVehicleCheckCollection
	defects      *dbtest.MockDefectCollection
	events       []models.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bookings:     new(dbtest.MockBookingCollection),
		employees:    new(dbtest.MockEmployeeCollection),
		holidays:     new(dbtest.MockHolidayCollection),
		bankHolidays: new(dbtest.MockBankHolidayCollection),
		vehicles:     new(dbtest.MockVehicleCollection),
		maintenance:  new(dbtest.MockMaintenanceCollection),
		checks:       new(dbtest.MockVehicleCheckCollection),
		defects:      new(dbtest.MockDefectCollection),
	}
	f.api = &API{
		Bookings:     f.bookings,
		Employees:    f.employees,
		Holidays:     f.holidays,
		BankHolidays: f.bankHolidays,
		Vehicles:     f.vehicles,
		Maintenance:  f.maintenance,
		Checks:       f.checks,
		Defects:      f.defects,
		Publisher: events.PublisherFunc(func(_ context.Context, ev models.Event) error {
			f.events = append(f.events, ev)
			return nil
		}),
		Locker:     cache.NewLocalLocker(),
		Checklist:  config.DefaultChecklist,
		Location:   time.UTC,
		WindowDays: 14,
		Now:        func() time.Time { return fixedNow },
	}
	return f
}

// noBankHolidays makes the bank holiday list empty.
func (f *fixture) noBankHolidays() {
	f.bankHolidays.On("FindBankHolidays", mock.Anything, mock.Anything).Return([]models.BankHoliday{}, nil)
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.bookings.AssertExpectations(t)
	f.employees.AssertExpectations(t)
	f.holidays.AssertExpectations(t)
	f.vehicles.AssertExpectations(t)
	f.maintenance.AssertExpectations(t)
	f.checks.AssertExpectations(t)
	f.defects.AssertExpectations(t)
}

func withParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func asRole(req *http.Request, role models.Role, employeeID string) *http.Request {
	return withClaims(req, &models.Claims{
		UserID:     "user-1",
		Username:   string(role) + "-user",
		Role:       role,
		EmployeeID: employeeID,
	})
}

// call runs handler with a JSON body, an optional {id} and the given role.
func call(handler http.HandlerFunc, method, target, body, id string, role models.Role) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if id != "" {
		req = withParams(req, map[string]string{"id": id})
	}
	req = asRole(req, role, "")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

// testContext mirrors testing.T.Context (Go 1.24+): a context cancelled
// when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
