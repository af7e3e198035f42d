package hangar

import (
	"context"
	"fmt"
	"strings"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// A promoted schedule item belongs to its job: stage changes, moves and
// deletes are rejected with ErrScheduleLinked for as long as it is linked.

func (s *Store) AddScheduleItem(ctx context.Context, form models.NewScheduleItemForm) (models.ScheduleItem, error) {
	var item models.ScheduleItem
	err := s.Update(ctx, "add_schedule_item", func(tx *Tx) error {
		st := tx.State()
		fe := fieldErrors{}
		if form.VehicleID.IsZero() {
			fe.add("vehicle_id", "is required")
		} else if _, ok := st.Vehicle(form.VehicleID); !ok {
			fe.add("vehicle_id", "unknown vehicle")
		}
		if !validDate(form.Date) {
			fe.add("date", "must be a YYYY-MM-DD date")
		}
		if !models.IsValidCategory(form.Category) {
			fe.add("category", "must be preventive or corrective")
		}
		if strings.TrimSpace(form.Description) == "" {
			fe.add("description", "is required")
		}
		for _, id := range form.TechnicianIDs {
			if _, ok := st.Technician(id); !ok {
				fe.add("technician_ids", "unknown technician "+id.Hex())
			}
		}
		if form.ContractorID != nil {
			if _, ok := st.Contractor(*form.ContractorID); !ok {
				fe.add("contractor_id", "unknown contractor")
			}
		}
		if err := fe.err(); err != nil {
			return err
		}
		item = models.ScheduleItem{
			ID:            primitive.NewObjectID(),
			VehicleID:     form.VehicleID,
			Date:          form.Date,
			Category:      form.Category,
			Description:   strings.TrimSpace(form.Description),
			TechnicianIDs: cloneOIDs(form.TechnicianIDs),
			ContractorID:  cloneOID(form.ContractorID),
			Stage:         models.StagePending,
			Notes:         strings.TrimSpace(form.Notes),
			CreatedAt:     tx.Now(),
			UpdatedAt:     tx.Now(),
		}
		if item.TechnicianIDs == nil {
			item.TechnicianIDs = []primitive.ObjectID{}
		}
		st.Schedule = append(st.Schedule, item)
		tx.inserted(CollectionSchedule, item.ID, cloneScheduleItem(item))
		return nil
	})
	return item, err
}

// mutableItem returns the index of an item no job is linked to.
func mutableItem(st *State, id primitive.ObjectID) (int, error) {
	i := st.scheduleIndex(id)
	if i < 0 {
		return -1, fmt.Errorf("schedule item %s: %w", id.Hex(), ErrNotFound)
	}
	if it := st.Schedule[i]; it.IsPromoted() {
		return -1, fmt.Errorf("schedule item %s belongs to job %s: %w", id.Hex(), it.JobID.Hex(), ErrScheduleLinked)
	}
	return i, nil
}

// UpdateScheduleStage sets the stage of an item. Completed and cancelled
// items keep their stage; only a move to the next day reopens them.
func (s *Store) UpdateScheduleStage(ctx context.Context, id primitive.ObjectID, stage models.Stage) (models.ScheduleItem, error) {
	var item models.ScheduleItem
	err := s.Update(ctx, "update_schedule_stage", func(tx *Tx) error {
		if !models.IsValidStage(stage) {
			return &ValidationError{Fields: map[string]string{"stage": "unknown stage"}}
		}
		i, err := mutableItem(tx.state, id)
		if err != nil {
			return err
		}
		cur := &tx.state.Schedule[i]
		if cur.Stage.IsTerminal() {
			return fmt.Errorf("schedule item %s is %s: %w", id.Hex(), cur.Stage, ErrInvalidTransition)
		}
		cur.Stage = stage
		cur.UpdatedAt = tx.Now()
		item = cloneScheduleItem(*cur)
		tx.updated(CollectionSchedule, cur.ID, item)
		return nil
	})
	return item, err
}

func (s *Store) DeleteScheduleItem(ctx context.Context, id primitive.ObjectID) error {
	return s.Update(ctx, "delete_schedule_item", func(tx *Tx) error {
		i, err := mutableItem(tx.state, id)
		if err != nil {
			return err
		}
		tx.state.Schedule = append(tx.state.Schedule[:i], tx.state.Schedule[i+1:]...)
		tx.deleted(CollectionSchedule, id)
		return nil
	})
}

// MoveScheduleItemToNextDay shifts an item one calendar day and resets it
// to pending.
func (s *Store) MoveScheduleItemToNextDay(ctx context.Context, id primitive.ObjectID) (models.ScheduleItem, error) {
	var item models.ScheduleItem
	err := s.Update(ctx, "move_schedule_item", func(tx *Tx) error {
		i, err := mutableItem(tx.state, id)
		if err != nil {
			return err
		}
		cur := &tx.state.Schedule[i]
		next, err := NextDay(cur.Date)
		if err != nil {
			return &ValidationError{Fields: map[string]string{"date": "stored date is not YYYY-MM-DD"}}
		}
		cur.Date = next
		cur.Stage = models.StagePending
		cur.UpdatedAt = tx.Now()
		item = cloneScheduleItem(*cur)
		tx.updated(CollectionSchedule, cur.ID, item)
		return nil
	})
	return item, err
}
