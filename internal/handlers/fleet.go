package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/opsboard/internal/cache"
	"github.com/ukydev/opsboard/internal/config"
	"github.com/ukydev/opsboard/internal/conflicts"
	"github.com/ukydev/opsboard/internal/db"
	"github.com/ukydev/opsboard/internal/middleware"
	"github.com/ukydev/opsboard/internal/models"
	"github.com/ukydev/opsboard/internal/views"
)

// ListVehicles supports ?kind= and ?status=.
func (a *API) ListVehicles(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if v := r.URL.Query().Get("kind"); v != "" {
		filter["kind"] = v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter["status"] = v
	}
	vehicles, err := a.Vehicles.FindVehicles(r.Context(), filter)
	if err != nil {
		writeStoreError(w, r, err, "Vehicles")
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (a *API) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, err := a.Vehicles.FindVehicleByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, "Vehicle")
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (a *API) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req models.VehicleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Registration = normaliseRegistration(req.Registration)
	var vehicle models.Vehicle
	req.Apply(&vehicle)
	if err := a.Vehicles.InsertVehicle(r.Context(), &vehicle); err != nil {
		writeStoreError(w, r, err, "Vehicle")
		return
	}
	a.publish(r.Context(), models.CollectionVehicles, models.OpCreated, vehicle.ID.Hex(), vehicle)
	writeJSON(w, http.StatusCreated, vehicle)
}

func (a *API) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var req models.VehicleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Registration = normaliseRegistration(req.Registration)
	id := pathID(r)
	vehicle, err := a.Vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "Vehicle")
		return
	}
	req.Apply(vehicle)
	if err := a.Vehicles.UpdateVehicle(r.Context(), id, *vehicle); err != nil {
		writeStoreError(w, r, err, "Vehicle")
		return
	}
	a.publish(r.Context(), models.CollectionVehicles, models.OpUpdated, id, vehicle)
	writeJSON(w, http.StatusOK, vehicle)
}

func (a *API) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := a.Vehicles.DeleteVehicle(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "Vehicle")
		return
	}
	a.publish(r.Context(), models.CollectionVehicles, models.OpDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func normaliseRegistration(reg string) string {
	return strings.ToUpper(strings.Join(strings.Fields(reg), " "))
}

// FleetStatus classifies every vehicle on ?date= (default today) and flags
// MOT and service dates.
func (a *API) FleetStatus(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date", a.today())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	vehicles, err := a.Vehicles.FindVehicles(ctx, bson.M{})
	if err != nil {
		writeStoreError(w, r, err, "Vehicles")
		return
	}
	bookings, err := a.Bookings.FindBookings(ctx, db.BookingQuery(models.BookingFilter{From: date, To: date}))
	if err != nil {
		writeStoreError(w, r, err, "Bookings")
		return
	}
	maintenance, err := a.Maintenance.FindMaintenance(ctx, bson.M{"dates": date})
	if err != nil {
		writeStoreError(w, r, err, "Maintenance")
		return
	}
	writeJSON(w, http.StatusOK, views.FleetStatus(vehicles, date, a.windowDays(), bookings, maintenance))
}

// ListMaintenance supports ?vehicle_id=&status=&from=&to=.
func (a *API) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	from, err := dateParam(r, "from", "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := dateParam(r, "to", "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter := db.DatesBetween("dates", from, to)
	if v := r.URL.Query().Get("vehicle_id"); v != "" {
		filter["vehicle_id"] = v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter["status"] = v
	}
	list, err := a.Maintenance.FindMaintenance(r.Context(), filter)
	if err != nil {
		writeStoreError(w, r, err, "Maintenance")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) GetMaintenance(w http.ResponseWriter, r *http.Request) {
	m, err := a.Maintenance.FindMaintenanceByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, "Maintenance booking")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) CreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var req models.MaintenanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	var m models.MaintenanceBooking
	applyMaintenance(req, &m)
	a.saveMaintenance(w, r, m, nil)
}

func (a *API) UpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	var req models.MaintenanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	existing, err := a.Maintenance.FindMaintenanceByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, "Maintenance booking")
		return
	}
	m := *existing
	applyMaintenance(req, &m)
	if req.Status == "" {
		m.Status = existing.Status
	}
	a.saveMaintenance(w, r, m, existing)
}

func applyMaintenance(req models.MaintenanceRequest, m *models.MaintenanceBooking) {
	m.VehicleID = req.VehicleID
	m.Kind = req.Kind
	m.Dates = unique(req.Dates)
	sort.Strings(m.Dates)
	m.Garage = req.Garage
	m.Status = req.Status
	if m.Status == "" {
		m.Status = models.MaintenanceScheduled
	}
	m.Cost = req.Cost
	m.Notes = req.Notes
	m.DefectIDs = unique(req.DefectIDs)
}

// saveMaintenance checks the vehicle isn't out on a job on any of the dates
// and writes the booking. Completing it resolves the linked defects.
func (a *API) saveMaintenance(w http.ResponseWriter, r *http.Request, m models.MaintenanceBooking, existing *models.MaintenanceBooking) {
	ctx := r.Context()
	if _, err := a.Vehicles.FindVehicleByID(ctx, m.VehicleID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Unknown vehicle", http.StatusBadRequest)
			return
		}
		writeStoreError(w, r, err, "Vehicle")
		return
	}

	unlock, err := a.lock(ctx, cache.ScheduleKey)
	if err != nil {
		writeStoreError(w, r, err, "Maintenance booking")
		return
	}
	defer unlock()

	bookings, err := a.Bookings.FindBookings(ctx, db.BookingQuery(models.BookingFilter{
		VehicleID: m.VehicleID,
		From:      m.Dates[0],
		To:        m.Dates[len(m.Dates)-1],
	}))
	if err != nil {
		writeStoreError(w, r, err, "Bookings")
		return
	}
	if found := conflicts.MaintenanceConflicts(m, bookings); len(found) > 0 {
		writeConflicts(w, "Vehicle is booked on a job", found)
		return
	}

	if existing == nil {
		if err := a.Maintenance.InsertMaintenance(ctx, &m); err != nil {
			writeStoreError(w, r, err, "Maintenance booking")
			return
		}
		a.publish(ctx, models.CollectionMaintenance, models.OpCreated, m.ID.Hex(), m)
	} else {
		if err := a.Maintenance.UpdateMaintenance(ctx, m.ID.Hex(), m); err != nil {
			writeStoreError(w, r, err, "Maintenance booking")
			return
		}
		a.publish(ctx, models.CollectionMaintenance, models.OpUpdated, m.ID.Hex(), m)
	}

	completed := m.Status == models.MaintenanceCompleted &&
		(existing == nil || existing.Status != models.MaintenanceCompleted)
	if completed {
		if err := a.resolveLinkedDefects(r, m); err != nil {
			writeStoreError(w, r, err, "Defects")
			return
		}
	}

	status := http.StatusOK
	if existing == nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, m)
}

// resolveLinkedDefects resolves the defects listed on the booking and any
// open defect that points back at it through its maintenance_id.
func (a *API) resolveLinkedDefects(r *http.Request, m models.MaintenanceBooking) error {
	ctx := r.Context()
	linked, err := a.Defects.FindDefects(ctx, bson.M{
		"maintenance_id": m.ID.Hex(),
		"status":         bson.M{"$ne": models.DefectResolved},
	})
	if err != nil {
		return err
	}
	ids := append([]string{}, m.DefectIDs...)
	for _, d := range linked {
		ids = append(ids, d.ID.Hex())
	}
	ids = unique(ids)
	if len(ids) == 0 {
		return nil
	}
	if err := a.Defects.ResolveDefects(ctx, ids, currentUser(r), a.now().UTC()); err != nil {
		return err
	}
	for _, id := range ids {
		a.publish(ctx, models.CollectionDefects, models.OpUpdated, id, nil)
	}
	return nil
}

func (a *API) DeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := a.Maintenance.DeleteMaintenance(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "Maintenance booking")
		return
	}
	a.publish(r.Context(), models.CollectionMaintenance, models.OpDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// CheckTemplate returns the items a driver works through.
func (a *API) CheckTemplate(w http.ResponseWriter, r *http.Request) {
	checklist := a.Checklist
	if len(checklist.Items) == 0 {
		checklist = config.DefaultChecklist
	}
	writeJSON(w, http.StatusOK, checklist)
}

// ListChecks supports ?vehicle_id=&date= or a ?from=&to= range.
func (a *API) ListChecks(w http.ResponseWriter, r *http.Request) {
	var from, to string
	date, err := dateParam(r, "date", "")
	if err == nil && date != "" {
		from, to = date, date
	} else if err == nil {
		if from, err = dateParam(r, "from", ""); err == nil {
			to, err = dateParam(r, "to", "")
		}
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter := db.Between("date", from, to)
	if v := r.URL.Query().Get("vehicle_id"); v != "" {
		filter["vehicle_id"] = v
	}
	checks, err := a.Checks.FindChecks(r.Context(), filter)
	if err != nil {
		writeStoreError(w, r, err, "Vehicle checks")
		return
	}
	writeJSON(w, http.StatusOK, checks)
}

func (a *API) GetCheck(w http.ResponseWriter, r *http.Request) {
	check, err := a.Checks.FindCheckByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, "Vehicle check")
		return
	}
	writeJSON(w, http.StatusOK, check)
}

// CreateCheck records a vehicle check. Each defect item opens a Defect.
// There is at most one check per vehicle per day.
func (a *API) CreateCheck(w http.ResponseWriter, r *http.Request) {
	var req models.VehicleCheckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	ctx := r.Context()
	if _, err := a.Vehicles.FindVehicleByID(ctx, req.VehicleID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Unknown vehicle", http.StatusBadRequest)
			return
		}
		writeStoreError(w, r, err, "Vehicle")
		return
	}

	now := a.now().UTC()
	check := models.VehicleCheck{
		ID:        primitive.NewObjectID(),
		VehicleID: req.VehicleID,
		Date:      req.Date,
		CheckedBy: req.CheckedBy,
		Mileage:   req.Mileage,
		Items:     req.Items,
		Result:    views.CheckResult(req.Items),
		CreatedAt: now,
	}
	var defects []models.Defect
	for _, item := range req.Items {
		if item.Status != models.ItemDefect {
			continue
		}
		d := models.Defect{
			ID:         primitive.NewObjectID(),
			VehicleID:  req.VehicleID,
			CheckID:    check.ID.Hex(),
			Item:       item.Name,
			Note:       item.Note,
			Status:     models.DefectOpen,
			ReportedBy: req.CheckedBy,
			ReportedAt: now,
		}
		defects = append(defects, d)
		check.DefectIDs = append(check.DefectIDs, d.ID.Hex())
	}

	// The unique (vehicle_id, date) index decides duplicates, so the check
	// goes in first and is taken back out if a defect can't be stored.
	if err := a.Checks.InsertCheck(ctx, &check); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			http.Error(w, "Vehicle has already been checked on this date", http.StatusConflict)
			return
		}
		writeStoreError(w, r, err, "Vehicle check")
		return
	}
	for i := range defects {
		if err := a.Defects.InsertDefect(ctx, &defects[i]); err != nil {
			if derr := a.Checks.DeleteCheck(ctx, check.ID.Hex()); derr != nil {
				middleware.Logger(ctx).WithError(derr).WithField("check_id", check.ID.Hex()).Error("Failed to roll back vehicle check")
			}
			writeStoreError(w, r, err, "Defect")
			return
		}
	}

	a.publish(ctx, models.CollectionChecks, models.OpCreated, check.ID.Hex(), check)
	for _, d := range defects {
		a.publish(ctx, models.CollectionDefects, models.OpCreated, d.ID.Hex(), d)
	}
	writeJSON(w, http.StatusCreated, check)
}

func (a *API) DeleteCheck(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := a.Checks.DeleteCheck(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "Vehicle check")
		return
	}
	a.publish(r.Context(), models.CollectionChecks, models.OpDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// ListDefects supports ?vehicle_id= and ?status=.
func (a *API) ListDefects(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if v := r.URL.Query().Get("vehicle_id"); v != "" {
		filter["vehicle_id"] = v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		if !models.IsValidDefectStatus(models.DefectStatus(v)) {
			http.Error(w, "Invalid status", http.StatusBadRequest)
			return
		}
		filter["status"] = v
	}
	defects, err := a.Defects.FindDefects(r.Context(), filter)
	if err != nil {
		writeStoreError(w, r, err, "Defects")
		return
	}
	writeJSON(w, http.StatusOK, defects)
}

// SetDefectStatus moves a defect along. Resolving stamps who and when;
// reopening clears it.
func (a *API) SetDefectStatus(w http.ResponseWriter, r *http.Request) {
	var req models.DefectStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := pathID(r)
	defect, err := a.Defects.FindDefectByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "Defect")
		return
	}
	defect.Status = req.Status
	if req.MaintenanceID != "" {
		defect.MaintenanceID = req.MaintenanceID
	}
	if req.Status == models.DefectResolved {
		if defect.ResolvedAt == nil {
			now := a.now().UTC()
			defect.ResolvedAt = &now
			defect.ResolvedBy = currentUser(r)
		}
	} else {
		defect.ResolvedAt = nil
		defect.ResolvedBy = ""
	}
	if err := a.Defects.UpdateDefect(r.Context(), id, *defect); err != nil {
		writeStoreError(w, r, err, "Defect")
		return
	}
	a.publish(r.Context(), models.CollectionDefects, models.OpUpdated, id, defect)
	writeJSON(w, http.StatusOK, defect)
}
