package hangar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// validateLocation checks a job location. A bay is free when no open job
// entered today holds it.
func validateLocation(fe fieldErrors, st *State, today string, loc models.Location) error {
	switch loc.Kind {
	case models.LocationBay:
		if loc.Bay < 1 || loc.Bay > models.BayCount {
			fe.add("location.bay", fmt.Sprintf("must be between 1 and %d", models.BayCount))
			return nil
		}
		if occ, ok := BayOccupant(st, today, loc.Bay); ok {
			return fmt.Errorf("bay %d held by job %s: %w", loc.Bay, occ.ID.Hex(), ErrBayOccupied)
		}
	case models.LocationOutOfBay:
		if strings.TrimSpace(loc.Spot) == "" {
			fe.add("location.spot", "is required")
		}
	case models.LocationDepartment:
		if !models.IsValidDepartment(loc.Department) {
			fe.add("location.department", "unknown department")
		}
	default:
		fe.add("location.kind", "must be bay, out_of_bay or department")
	}
	return nil
}

func validateWork(fe fieldErrors, st *State, w models.Work) {
	switch w.Category {
	case models.CategoryPreventive:
		for _, id := range w.JobTypeIDs {
			if _, ok := st.JobType(id); !ok {
				fe.add("work.job_type_ids", "unknown job type "+id.Hex())
			}
		}
	case models.CategoryCorrective:
		if strings.TrimSpace(w.Fault) == "" {
			fe.add("work.fault", "is required for corrective jobs")
		}
		if w.System != "" && !models.IsValidSystem(w.System) {
			fe.add("work.system", "unknown system")
		}
	default:
		fe.add("work.category", "must be preventive or corrective")
	}
}

func validateAssignment(fe fieldErrors, st *State, a models.Assignment) {
	switch a.Mode {
	case models.AssignInternal:
		for _, id := range a.TechnicianIDs {
			if _, ok := st.Technician(id); !ok {
				fe.add("assignment.technician_ids", "unknown technician "+id.Hex())
			}
		}
	case models.AssignContractor:
		if a.ContractorID == nil {
			fe.add("assignment.contractor_id", "is required")
		} else if _, ok := st.Contractor(*a.ContractorID); !ok {
			fe.add("assignment.contractor_id", "unknown contractor")
		}
	case models.AssignDepartment:
		if !models.IsValidDepartment(a.Department) {
			fe.add("assignment.department", "unknown department")
		}
	default:
		fe.add("assignment.mode", "must be internal_technician, contractor or external_department")
	}
}

// setVehicleState updates a vehicle inside tx. meter is applied when not nil.
func setVehicleState(tx *Tx, id primitive.ObjectID, state models.VehicleState, meter *float64) {
	i := tx.state.vehicleIndex(id)
	if i < 0 {
		return
	}
	v := &tx.state.Vehicles[i]
	v.State = state
	if meter != nil {
		v.Meter = *meter
	}
	v.UpdatedAt = tx.now
	tx.updated(CollectionVehicles, v.ID, *v)
}

// OpenJob creates an in-progress job entered now and puts its vehicle
// under maintenance.
func (s *Store) OpenJob(ctx context.Context, form models.OpenJobForm) (models.Job, error) {
	var job models.Job
	err := s.Update(ctx, "open_job", func(tx *Tx) error {
		st := tx.State()
		fe := fieldErrors{}
		if form.VehicleID.IsZero() {
			fe.add("vehicle_id", "is required")
		} else if _, ok := st.Vehicle(form.VehicleID); !ok {
			return fmt.Errorf("vehicle %s: %w", form.VehicleID.Hex(), ErrNotFound)
		}
		if form.EntryMeter <= 0 {
			fe.add("entry_meter", "must be greater than zero")
		}
		if form.EstimatedHours <= 0 {
			fe.add("estimated_hours", "must be greater than zero")
		}
		loc := form.Location.Normalize()
		if err := validateLocation(fe, st, tx.Today(), loc); err != nil {
			return err
		}
		work := form.Work.Normalize()
		validateWork(fe, st, work)
		assign := form.Assignment.Normalize()
		validateAssignment(fe, st, assign)
		if err := fe.err(); err != nil {
			return err
		}

		job = models.Job{
			ID:             primitive.NewObjectID(),
			VehicleID:      form.VehicleID,
			Location:       loc,
			Work:           work,
			Assignment:     assign,
			EntryDate:      tx.Today(),
			EntryTime:      TimeOf(tx.Now()),
			EstimatedHours: form.EstimatedHours,
			Status:         models.StatusInProgress,
			Progress:       0,
			EntryMeter:     form.EntryMeter,
			InitialNotes:   strings.TrimSpace(form.InitialNotes),
			CreatedBy:      form.CreatedBy,
			CreatedAt:      tx.Now(),
			UpdatedAt:      tx.Now(),
		}
		st.Jobs = append(st.Jobs, job)
		tx.inserted(CollectionJobs, job.ID, cloneJob(job))
		setVehicleState(tx, job.VehicleID, models.VehicleUnderMaintenance, nil)
		return nil
	})
	if err != nil {
		return models.Job{}, err
	}
	return job, nil
}

// PromoteScheduleItem opens a job from a schedule item. With a nil bay the
// job is placed out of bay.
func (s *Store) PromoteScheduleItem(ctx context.Context, itemID primitive.ObjectID, bay *int) (models.Job, error) {
	var job models.Job
	err := s.Update(ctx, "promote_schedule_item", func(tx *Tx) error {
		st := tx.State()
		idx := st.scheduleIndex(itemID)
		if idx < 0 {
			return fmt.Errorf("schedule item %s: %w", itemID.Hex(), ErrNotFound)
		}
		item := st.Schedule[idx]
		if item.IsPromoted() {
			return fmt.Errorf("schedule item %s promoted to job %s: %w", itemID.Hex(), item.JobID.Hex(), ErrAlreadyPromoted)
		}
		if item.Stage == models.StageCancelled {
			return fmt.Errorf("schedule item %s is cancelled: %w", itemID.Hex(), ErrInvalidTransition)
		}
		vehicle, ok := st.Vehicle(item.VehicleID)
		if !ok {
			return fmt.Errorf("vehicle %s: %w", item.VehicleID.Hex(), ErrNotFound)
		}

		loc := models.OutOfBay(models.SpotOther)
		if bay != nil {
			loc = models.InBay(*bay)
		}
		fe := fieldErrors{}
		if err := validateLocation(fe, st, tx.Today(), loc); err != nil {
			return err
		}
		if err := fe.err(); err != nil {
			return err
		}

		work := models.Work{Category: item.Category}
		if item.Category == models.CategoryCorrective {
			work.Fault = item.Description
		} else {
			work.Summary = item.Description
		}

		assign := models.Assignment{Mode: models.AssignInternal}
		switch {
		case len(item.TechnicianIDs) > 0:
			assign.TechnicianIDs = cloneOIDs(item.TechnicianIDs)
		case item.ContractorID != nil:
			assign = models.Assignment{Mode: models.AssignContractor, ContractorID: cloneOID(item.ContractorID)}
		}

		job = models.Job{
			ID:             primitive.NewObjectID(),
			VehicleID:      item.VehicleID,
			Location:       loc,
			Work:           work,
			Assignment:     assign,
			EntryDate:      tx.Today(),
			EntryTime:      TimeOf(tx.Now()),
			EstimatedHours: models.DefaultPromotedHours,
			Status:         models.StatusInProgress,
			EntryMeter:     vehicle.Meter,
			InitialNotes:   item.Notes,
			CreatedAt:      tx.Now(),
			UpdatedAt:      tx.Now(),
		}
		st.Jobs = append(st.Jobs, job)
		tx.inserted(CollectionJobs, job.ID, cloneJob(job))
		setVehicleState(tx, job.VehicleID, models.VehicleUnderMaintenance, nil)

		linked := &st.Schedule[idx]
		id := job.ID
		linked.JobID = &id
		linked.Stage = models.StageInHangar
		linked.UpdatedAt = tx.Now()
		tx.updated(CollectionSchedule, linked.ID, cloneScheduleItem(*linked))
		return nil
	})
	if err != nil {
		return models.Job{}, err
	}
	return job, nil
}

// appendLogLine adds a "[HH:MM] text" line to a running log.
func appendLogLine(log string, at time.Time, text string) string {
	return strings.TrimSpace(log + "\n[" + TimeOf(at) + "] " + text)
}

// UpdateJobStatus moves an open job to any non-completed status. Progress
// is clamped to 0..100 and a non-empty note is appended to the job log.
func (s *Store) UpdateJobStatus(ctx context.Context, id primitive.ObjectID, upd models.StatusUpdate) (models.Job, error) {
	var job models.Job
	err := s.Update(ctx, "update_job_status", func(tx *Tx) error {
		st := tx.State()
		i := st.jobIndex(id)
		if i < 0 {
			return fmt.Errorf("job %s: %w", id.Hex(), ErrNotFound)
		}
		j := &st.Jobs[i]
		if !j.IsOpen() {
			return fmt.Errorf("job %s: %w", id.Hex(), ErrJobClosed)
		}
		if upd.Status == models.StatusCompleted {
			return fmt.Errorf("jobs are completed by closing them: %w", ErrInvalidTransition)
		}
		if !models.IsValidJobStatus(upd.Status) {
			return &ValidationError{Fields: map[string]string{"status": "unknown status"}}
		}

		j.Status = upd.Status
		j.Progress = clampProgress(upd.Progress)
		if note := strings.TrimSpace(upd.Note); note != "" {
			j.Notes = appendLogLine(j.Notes, tx.Now(), note)
		}
		j.UpdatedAt = tx.Now()
		job = cloneJob(*j)
		tx.updated(CollectionJobs, j.ID, job)
		return nil
	})
	if err != nil {
		return models.Job{}, err
	}
	return job, nil
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// CloseJob completes an open job, releases its vehicle with the exit meter
// reading and completes every schedule item linked to it.
func (s *Store) CloseJob(ctx context.Context, id primitive.ObjectID, form models.CloseJobForm) (models.Job, error) {
	var job models.Job
	err := s.Update(ctx, "close_job", func(tx *Tx) error {
		st := tx.State()
		i := st.jobIndex(id)
		if i < 0 {
			return fmt.Errorf("job %s: %w", id.Hex(), ErrNotFound)
		}
		if !st.Jobs[i].IsOpen() {
			return fmt.Errorf("job %s: %w", id.Hex(), ErrJobClosed)
		}

		fe := fieldErrors{}
		switch {
		case form.ExitMeter == nil:
			fe.add("exit_meter", "is required")
		case *form.ExitMeter < 0:
			fe.add("exit_meter", "must not be negative")
		}
		if !models.IsValidCondition(form.FinalCondition) {
			fe.add("final_condition", "must be operative, operative_with_remarks or non_operational")
		}
		exitTime := strings.TrimSpace(form.ExitTime)
		if exitTime == "" {
			exitTime = TimeOf(tx.Now())
		} else if _, err := time.Parse(TimeLayout, exitTime); err != nil {
			fe.add("exit_time", "must be HH:MM")
		}
		for n, p := range form.Parts {
			if strings.TrimSpace(p.Name) == "" {
				fe.add(fmt.Sprintf("parts[%d].name", n), "is required")
			}
			if !p.Quantity.IsPositive() {
				fe.add(fmt.Sprintf("parts[%d].quantity", n), "must be greater than zero")
			}
		}
		if form.Partial && strings.TrimSpace(form.PendingTasks) == "" {
			fe.add("pending_tasks", "is required for a partial close")
		}
		if err := fe.err(); err != nil {
			return err
		}

		j := &st.Jobs[i]
		j.Status = models.StatusCompleted
		j.Progress = 100
		j.ExitDate = tx.Today()
		j.ExitTime = exitTime
		meter := *form.ExitMeter
		j.ExitMeter = &meter
		j.Parts = append([]models.Part(nil), form.Parts...)
		j.FinalCondition = form.FinalCondition
		if notes := strings.TrimSpace(form.Notes); notes != "" {
			j.Notes = strings.TrimSpace(j.Notes + "\n" + notes)
		}
		if form.Partial {
			j.Notes = strings.TrimSpace(j.Notes + "\nPending: " + strings.TrimSpace(form.PendingTasks))
		}
		j.UpdatedAt = tx.Now()
		job = cloneJob(*j)
		tx.updated(CollectionJobs, j.ID, job)

		if d := st.Selection.DetailJobID; d != nil && *d == id {
			st.Selection.DetailJobID = nil
		}

		state := models.VehicleOperative
		if form.FinalCondition == models.ConditionNonOperational {
			state = models.VehicleOutOfService
		}
		setVehicleState(tx, j.VehicleID, state, &meter)

		for k := range st.Schedule {
			it := &st.Schedule[k]
			if it.JobID != nil && *it.JobID == id && it.Stage != models.StageCompleted {
				it.Stage = models.StageCompleted
				it.UpdatedAt = tx.Now()
				tx.updated(CollectionSchedule, it.ID, cloneScheduleItem(*it))
			}
		}
		return nil
	})
	if err != nil {
		return models.Job{}, err
	}
	return job, nil
}
