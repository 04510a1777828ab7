package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/opsboard/internal/conflicts"
	"github.com/ukydev/opsboard/internal/db"
	"github.com/ukydev/opsboard/internal/models"
	"github.com/ukydev/opsboard/internal/views"
)

func TestCreateVehicle_NormalisesRegistration(t *testing.T) {
	f := newFixture(t)
	f.vehicles.On("InsertVehicle", mock.Anything, mock.MatchedBy(func(v *models.Vehicle) bool {
		return v.Registration == "AB12 CDE" && v.Status == models.VehicleActive
	})).Return(nil)

	w := call(f.api.CreateVehicle, "POST", "/api/vehicles", `{"registration":"  ab12   cde ","kind":"vehicle"}`, "", models.RoleManager)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f.assertExpectations(t)
}

func TestCreateVehicle_Validation(t *testing.T) {
	f := newFixture(t)
	w := call(f.api.CreateVehicle, "POST", "/api/vehicles", `{"registration":"AB12 CDE","kind":"boat"}`, "", models.RoleManager)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "kind must be one of: vehicle trailer equipment")
}

func TestFleetStatus(t *testing.T) {
	f := newFixture(t)
	onJob := models.Vehicle{ID: primitive.NewObjectID(), Registration: "AA11 AAA", Status: models.VehicleActive, MOTDue: "2024-06-10"}
	workshop := models.Vehicle{ID: primitive.NewObjectID(), Registration: "BB22 BBB", Status: models.VehicleActive, MOTDue: "2024-05-01"}
	idle := models.Vehicle{ID: primitive.NewObjectID(), Registration: "CC33 CCC", Status: models.VehicleActive, MOTDue: "2025-01-01"}
	job := models.Booking{ID: primitive.NewObjectID(), StartDate: "2024-06-03", EndDate: "2024-06-04", VehicleIDs: []string{onJob.ID.Hex()}, Status: models.BookingConfirmed}
	service := models.MaintenanceBooking{ID: primitive.NewObjectID(), VehicleID: workshop.ID.Hex(), Dates: []string{"2024-06-03"}, Status: models.MaintenanceScheduled}

	f.vehicles.On("FindVehicles", mock.Anything, mock.Anything).Return([]models.Vehicle{idle, workshop, onJob}, nil)
	f.bookings.On("FindBookings", mock.Anything, mock.Anything).Return([]models.Booking{job}, nil)
	f.maintenance.On("FindMaintenance", mock.Anything, mock.Anything).Return([]models.MaintenanceBooking{service}, nil)

	w := call(f.api.FleetStatus, "GET", "/api/vehicles/status", "", "", models.RoleViewer)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got []views.VehicleState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))

	type summary struct{ Reg, State, MOT string }
	var gotSummary []summary
	for _, s := range got {
		gotSummary = append(gotSummary, summary{s.Registration, s.State, s.MOT})
	}
	want := []summary{
		{"AA11 AAA", views.StateOnJob, views.DueSoon},
		{"BB22 BBB", views.StateInMaintenance, views.DueOverdue},
		{"CC33 CCC", views.StateAvailable, views.DueOK},
	}
	if diff := cmp.Diff(want, gotSummary); diff != "" {
		t.Errorf("fleet status mismatch (-want +got):\n%s", diff)
	}
}

func TestFleetStatus_BadDate(t *testing.T) {
	f := newFixture(t)
	w := call(f.api.FleetStatus, "GET", "/api/vehicles/status?date=tomorrow", "", "", models.RoleViewer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func maintenanceBody(vehicleID string, dates ...string) string {
	body, _ := json.Marshal(models.MaintenanceRequest{VehicleID: vehicleID, Kind: models.MaintenanceService, Dates: dates})
	return string(body)
}

func TestCreateMaintenance(t *testing.T) {
	van := &models.Vehicle{ID: primitive.NewObjectID(), Registration: "AB12 CDE"}
	vanID := van.ID.Hex()

	t.Run("dates sorted and deduped", func(t *testing.T) {
		f := newFixture(t)
		f.vehicles.On("FindVehicleByID", mock.Anything, vanID).Return(van, nil)
		f.bookings.On("FindBookings", mock.Anything, mock.Anything).Return([]models.Booking{}, nil)
		f.maintenance.On("InsertMaintenance", mock.Anything, mock.MatchedBy(func(m *models.MaintenanceBooking) bool {
			return cmp.Equal(m.Dates, []string{"2024-06-10", "2024-06-12"}) && m.Status == models.MaintenanceScheduled
		})).Return(nil)

		w := call(f.api.CreateMaintenance, "POST", "/api/maintenance", maintenanceBody(vanID, "2024-06-12", "2024-06-10", "2024-06-12"), "", models.RoleManager)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		f.assertExpectations(t)
	})

	t.Run("vehicle out on a job", func(t *testing.T) {
		f := newFixture(t)
		f.vehicles.On("FindVehicleByID", mock.Anything, vanID).Return(van, nil)
		f.bookings.On("FindBookings", mock.Anything, mock.Anything).Return([]models.Booking{
			{ID: primitive.NewObjectID(), Reference: "BK-1", StartDate: "2024-06-09", EndDate: "2024-06-10", VehicleIDs: []string{vanID}, Status: models.BookingConfirmed},
		}, nil)

		w := call(f.api.CreateMaintenance, "POST", "/api/maintenance", maintenanceBody(vanID, "2024-06-10", "2024-06-11"), "", models.RoleManager)

		require.Equal(t, http.StatusConflict, w.Code)
		var resp ConflictResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Conflicts, 1)
		assert.Equal(t, conflicts.VehicleOnJob, resp.Conflicts[0].Kind)
		assert.Equal(t, []string{"2024-06-10"}, resp.Conflicts[0].Dates)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		f := newFixture(t)
		f.vehicles.On("FindVehicleByID", mock.Anything, "nope").Return(nil, db.ErrNotFound)
		w := call(f.api.CreateMaintenance, "POST", "/api/maintenance", maintenanceBody("nope", "2024-06-10"), "", models.RoleManager)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("needs a date", func(t *testing.T) {
		f := newFixture(t)
		w := call(f.api.CreateMaintenance, "POST", "/api/maintenance", maintenanceBody(vanID), "", models.RoleManager)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateMaintenance_CompletingResolvesDefects(t *testing.T) {
	f := newFixture(t)
	van := &models.Vehicle{ID: primitive.NewObjectID()}
	id := primitive.NewObjectID()
	existing := &models.MaintenanceBooking{
		ID: id, VehicleID: van.ID.Hex(), Kind: models.MaintenanceRepair,
		Dates: []string{"2024-06-03"}, Status: models.MaintenanceInProgress,
	}
	f.maintenance.On("FindMaintenanceByID", mock.Anything, id.Hex()).Return(existing, nil)
	f.vehicles.On("FindVehicleByID", mock.Anything, van.ID.Hex()).Return(van, nil)
	f.bookings.On("FindBookings", mock.Anything, mock.Anything).Return([]models.Booking{}, nil)
	f.maintenance.On("UpdateMaintenance", mock.Anything, id.Hex(), mock.Anything).Return(nil)
	linked := primitive.NewObjectID()
	f.defects.On("FindDefects", mock.Anything, bson.M{
		"maintenance_id": id.Hex(),
		"status":         bson.M{"$ne": models.DefectResolved},
	}).Return([]models.Defect{{ID: linked, MaintenanceID: id.Hex()}}, nil)
	f.defects.On("ResolveDefects", mock.Anything, []string{"d1", "d2", linked.Hex()}, "manager-user", fixedNow).Return(nil)

	body := fmt.Sprintf(`{"vehicle_id":%q,"kind":"repair","dates":["2024-06-03"],"status":"completed","defect_ids":["d1","d2"]}`, van.ID.Hex())
	w := call(f.api.UpdateMaintenance, "PUT", "/", body, id.Hex(), models.RoleManager)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f.assertExpectations(t)
	// maintenance update plus one per defect
	assert.Len(t, f.events, 4)
}

func TestUpdateMaintenance_CompletingWithNothingLinked(t *testing.T) {
	f := newFixture(t)
	van := &models.Vehicle{ID: primitive.NewObjectID()}
	id := primitive.NewObjectID()
	existing := &models.MaintenanceBooking{
		ID: id, VehicleID: van.ID.Hex(), Kind: models.MaintenanceService,
		Dates: []string{"2024-06-03"}, Status: models.MaintenanceInProgress,
	}
	f.maintenance.On("FindMaintenanceByID", mock.Anything, id.Hex()).Return(existing, nil)
	f.vehicles.On("FindVehicleByID", mock.Anything, van.ID.Hex()).Return(van, nil)
	f.bookings.On("FindBookings", mock.Anything, mock.Anything).Return([]models.Booking{}, nil)
	f.maintenance.On("UpdateMaintenance", mock.Anything, id.Hex(), mock.Anything).Return(nil)
	f.defects.On("FindDefects", mock.Anything, mock.Anything).Return([]models.Defect{}, nil)

	body := fmt.Sprintf(`{"vehicle_id":%q,"kind":"service","dates":["2024-06-03"],"status":"completed"}`, van.ID.Hex())
	w := call(f.api.UpdateMaintenance, "PUT", "/", body, id.Hex(), models.RoleManager)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f.defects.AssertNotCalled(t, "ResolveDefects", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, f.events, 1)
	f.assertExpectations(t)
}

func checkBody(vehicleID, date string, items ...models.CheckItem) string {
	body, _ := json.Marshal(models.VehicleCheckRequest{VehicleID: vehicleID, Date: date, CheckedBy: "Alex", Items: items})
	return string(body)
}

func TestCreateCheck(t *testing.T) {
	van := &models.Vehicle{ID: primitive.NewObjectID()}
	vanID := van.ID.Hex()

	t.Run("defect items open defects", func(t *testing.T) {
		f := newFixture(t)
		f.vehicles.On("FindVehicleByID", mock.Anything, vanID).Return(van, nil)
		f.checks.On("InsertCheck", mock.Anything, mock.MatchedBy(func(c *models.VehicleCheck) bool {
			return c.Result == models.CheckDefects && len(c.DefectIDs) == 1 && !c.ID.IsZero()
		})).Return(nil)
		f.defects.On("InsertDefect", mock.Anything, mock.MatchedBy(func(d *models.Defect) bool {
			return d.Item == "Tyres" && d.Status == models.DefectOpen && d.VehicleID == vanID && d.ReportedBy == "Alex"
		})).Return(nil)

		w := call(f.api.CreateCheck, "POST", "/api/checks", checkBody(vanID, "2024-06-03",
			models.CheckItem{Name: "Tyres", Status: models.ItemDefect, Note: "Nearside worn"},
			models.CheckItem{Name: "Lights", Status: models.ItemPass},
		), "", models.RoleOperator)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var got models.VehicleCheck
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, got.ID.Hex(), f.defects.Calls[0].Arguments.Get(1).(*models.Defect).CheckID)
		assert.Len(t, f.events, 2)
		f.assertExpectations(t)
	})

	t.Run("second check on the same day", func(t *testing.T) {
		f := newFixture(t)
		f.vehicles.On("FindVehicleByID", mock.Anything, vanID).Return(van, nil)
		f.checks.On("InsertCheck", mock.Anything, mock.Anything).Return(db.ErrDuplicate)

		w := call(f.api.CreateCheck, "POST", "/api/checks", checkBody(vanID, "2024-06-03",
			models.CheckItem{Name: "Tyres", Status: models.ItemDefect},
		), "", models.RoleOperator)

		assert.Equal(t, http.StatusConflict, w.Code)
		f.defects.AssertNotCalled(t, "InsertDefect", mock.Anything, mock.Anything)
	})

	t.Run("failed defect insert removes the check", func(t *testing.T) {
		f := newFixture(t)
		f.vehicles.On("FindVehicleByID", mock.Anything, vanID).Return(van, nil)
		var checkID string
		f.checks.On("InsertCheck", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			checkID = args.Get(1).(*models.VehicleCheck).ID.Hex()
		}).Return(nil)
		f.defects.On("InsertDefect", mock.Anything, mock.Anything).Return(errors.New("write failed"))
		f.checks.On("DeleteCheck", mock.Anything, mock.MatchedBy(func(id string) bool {
			return id != "" && id == checkID
		})).Return(nil)

		w := call(f.api.CreateCheck, "POST", "/api/checks", checkBody(vanID, "2024-06-03",
			models.CheckItem{Name: "Tyres", Status: models.ItemDefect},
		), "", models.RoleOperator)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, f.events)
		f.assertExpectations(t)
	})

	t.Run("items are required", func(t *testing.T) {
		f := newFixture(t)
		w := call(f.api.CreateCheck, "POST", "/api/checks", checkBody(vanID, "2024-06-03"), "", models.RoleOperator)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown item status", func(t *testing.T) {
		f := newFixture(t)
		w := call(f.api.CreateCheck, "POST", "/api/checks", checkBody(vanID, "2024-06-03",
			models.CheckItem{Name: "Tyres", Status: "meh"},
		), "", models.RoleOperator)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCheckTemplate(t *testing.T) {
	f := newFixture(t)
	f.api.Checklist.Items = []string{"Tyres", "Lights"}
	w := call(f.api.CheckTemplate, "GET", "/api/checks/template", "", "", models.RoleOperator)
	assert.JSONEq(t, `{"items":["Tyres","Lights"]}`, w.Body.String())
}

func TestListChecks_RejectsBadRange(t *testing.T) {
	f := newFixture(t)
	w := call(f.api.ListChecks, "GET", "/api/checks?from=2024-06-01&to=June", "", "", models.RoleViewer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetDefectStatus(t *testing.T) {
	t.Run("resolve stamps who and when", func(t *testing.T) {
		f := newFixture(t)
		f.defects.On("FindDefectByID", mock.Anything, "d1").Return(&models.Defect{Status: models.DefectAcknowledged}, nil)
		f.defects.On("UpdateDefect", mock.Anything, "d1", mock.MatchedBy(func(d models.Defect) bool {
			return d.Status == models.DefectResolved && d.ResolvedBy == "manager-user" &&
				d.ResolvedAt != nil && d.ResolvedAt.Equal(fixedNow) && d.MaintenanceID == "m1"
		})).Return(nil)

		w := call(f.api.SetDefectStatus, "POST", "/", `{"status":"resolved","maintenance_id":"m1"}`, "d1", models.RoleManager)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		f.assertExpectations(t)
	})

	t.Run("reopen clears resolution", func(t *testing.T) {
		f := newFixture(t)
		at := fixedNow.Add(-24 * time.Hour)
		f.defects.On("FindDefectByID", mock.Anything, "d1").Return(&models.Defect{Status: models.DefectResolved, ResolvedAt: &at, ResolvedBy: "someone"}, nil)
		f.defects.On("UpdateDefect", mock.Anything, "d1", mock.MatchedBy(func(d models.Defect) bool {
			return d.Status == models.DefectOpen && d.ResolvedAt == nil && d.ResolvedBy == ""
		})).Return(nil)

		w := call(f.api.SetDefectStatus, "POST", "/", `{"status":"open"}`, "d1", models.RoleManager)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("list rejects unknown status", func(t *testing.T) {
		f := newFixture(t)
		w := call(f.api.ListDefects, "GET", "/api/defects?status=broken", "", "", models.RoleViewer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
