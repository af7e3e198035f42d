package hangar

import (
	"context"
	"testing"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestScheduleItemLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 2)
	v := s.Snapshot().Vehicles[0]

	item, err := s.AddScheduleItem(ctx, models.NewScheduleItemForm{
		VehicleID: v.ID, Date: "2024-03-31", Category: models.CategoryPreventive, Description: "500h service",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StagePending, item.Stage)
	assert.NotNil(t, item.TechnicianIDs)

	item, err = s.UpdateScheduleStage(ctx, item.ID, models.StageWashing)
	require.NoError(t, err)
	assert.Equal(t, models.StageWashing, item.Stage)

	item, err = s.MoveScheduleItemToNextDay(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", item.Date)
	assert.Equal(t, models.StagePending, item.Stage)

	_, err = s.UpdateScheduleStage(ctx, item.ID, "parked")
	assert.True(t, IsValidation(err))

	require.NoError(t, s.DeleteScheduleItem(ctx, item.ID))
	assert.ErrorIs(t, s.DeleteScheduleItem(ctx, item.ID), ErrNotFound)
}

func TestMoveScheduleItemToNextDay_CalendarBoundaries(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 1)
	v := s.Snapshot().Vehicles[0]
	for from, want := range map[string]string{
		"2024-02-28": "2024-02-29",
		"2024-02-29": "2024-03-01",
		"2023-12-31": "2024-01-01",
		"2024-03-30": "2024-03-31",
	} {
		item, err := s.AddScheduleItem(ctx, models.NewScheduleItemForm{
			VehicleID: v.ID, Date: from, Category: models.CategoryCorrective, Description: "tyre",
		})
		require.NoError(t, err)
		moved, err := s.MoveScheduleItemToNextDay(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, want, moved.Date, from)
	}
}

func TestAddScheduleItem_Validation(t *testing.T) {
	s, _ := newTestStore(t, 1)
	missing := primitive.NewObjectID()
	_, err := s.AddScheduleItem(context.Background(), models.NewScheduleItemForm{
		VehicleID:     primitive.NewObjectID(),
		Date:          "31/03/2024",
		Category:      "cosmetic",
		TechnicianIDs: []primitive.ObjectID{missing},
		ContractorID:  &missing,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, f := range []string{"vehicle_id", "date", "category", "description", "technician_ids", "contractor_id"} {
		assert.Contains(t, verr.Fields, f)
	}
}

func TestPromotedItemIsLocked(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 1)
	v := s.Snapshot().Vehicles[0]
	item, err := s.AddScheduleItem(ctx, models.NewScheduleItemForm{
		VehicleID: v.ID, Date: testToday, Category: models.CategoryPreventive, Description: "wash",
	})
	require.NoError(t, err)
	job, err := s.PromoteScheduleItem(ctx, item.ID, nil)
	require.NoError(t, err)

	_, err = s.MoveScheduleItemToNextDay(ctx, item.ID)
	assert.ErrorIs(t, err, ErrScheduleLinked)
	assert.ErrorIs(t, s.DeleteScheduleItem(ctx, item.ID), ErrScheduleLinked)

	_, err = s.CloseJob(ctx, job.ID, models.CloseJobForm{ExitMeter: ptrFloat(5), FinalCondition: models.ConditionOperative})
	require.NoError(t, err)

	// Closing the job does not release the item
	_, err = s.MoveScheduleItemToNextDay(ctx, item.ID)
	assert.ErrorIs(t, err, ErrScheduleLinked)
	_, err = s.UpdateScheduleStage(ctx, item.ID, models.StageWashing)
	assert.ErrorIs(t, err, ErrScheduleLinked)
	assert.ErrorIs(t, s.DeleteScheduleItem(ctx, item.ID), ErrScheduleLinked)

	snap := s.Snapshot()
	linked, ok := snap.ScheduleItem(item.ID)
	require.True(t, ok)
	assert.Equal(t, models.StageCompleted, linked.Stage)
	assert.Equal(t, testToday, linked.Date)
	assert.Equal(t, job.ID, *linked.JobID)
	assert.Equal(t, 1, ScheduleStatsFor(&snap, testToday).Completed)
}

func TestUpdateScheduleStage_TerminalStages(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 1)
	vid := s.Snapshot().Vehicles[0].ID

	for _, final := range []models.Stage{models.StageCompleted, models.StageCancelled} {
		item, err := s.AddScheduleItem(ctx, models.NewScheduleItemForm{
			VehicleID: vid, Date: testToday, Category: models.CategoryCorrective, Description: "mirror",
		})
		require.NoError(t, err)
		_, err = s.UpdateScheduleStage(ctx, item.ID, final)
		require.NoError(t, err)

		_, err = s.UpdateScheduleStage(ctx, item.ID, models.StageWashing)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s", final)
		got, _ := s.Snapshot().ScheduleItem(item.ID)
		assert.Equal(t, final, got.Stage)

		moved, err := s.MoveScheduleItemToNextDay(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StagePending, moved.Stage)
		_, err = s.UpdateScheduleStage(ctx, item.ID, models.StageWashing)
		assert.NoError(t, err)
	}
}

func TestPromoteCancelledItem(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 1)
	item, err := s.AddScheduleItem(ctx, models.NewScheduleItemForm{
		VehicleID: s.Snapshot().Vehicles[0].ID, Date: testToday, Category: models.CategoryPreventive, Description: "wash",
	})
	require.NoError(t, err)
	_, err = s.UpdateScheduleStage(ctx, item.ID, models.StageCancelled)
	require.NoError(t, err)
	_, err = s.PromoteScheduleItem(ctx, item.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestShiftNotes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 0)

	n, err := s.AddNote(ctx, models.NewNoteForm{Shift: models.NoteShiftAfternoon, Author: "Marta", Body: "R12 waiting for hoses"})
	require.NoError(t, err)
	assert.Equal(t, testToday, n.Date)
	assert.Equal(t, models.PriorityNormal, n.Priority)
	assert.False(t, n.Read)

	n, err = s.MarkNoteRead(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, n.Read)
	n, err = s.MarkNoteRead(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, n.Read)

	require.NoError(t, s.DeleteNote(ctx, n.ID))
	_, err = s.MarkNoteRead(ctx, n.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.AddNote(ctx, models.NewNoteForm{Shift: "morning", Priority: "low"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, f := range []string{"shift", "priority", "author", "body"} {
		assert.Contains(t, verr.Fields, f)
	}
}

func TestSetSelection(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 1)
	job, err := s.OpenJob(ctx, bayJobForm(s.Snapshot().Vehicles[0], 1))
	require.NoError(t, err)

	cat, view := "corrective", ViewTimeline
	sel, err := s.SetSelection(ctx, SelectionPatch{Category: &cat, View: &view, DetailJobID: &job.ID})
	require.NoError(t, err)
	assert.Equal(t, "corrective", sel.Category)
	assert.Equal(t, ViewTimeline, sel.View)
	require.NotNil(t, sel.DetailJobID)
	assert.Equal(t, FilterAll, sel.Location)

	bad := "garage"
	_, err = s.SetSelection(ctx, SelectionPatch{Location: &bad})
	assert.True(t, IsValidation(err))

	_, err = s.CloseJob(ctx, job.ID, models.CloseJobForm{ExitMeter: ptrFloat(2), FinalCondition: models.ConditionOperative})
	require.NoError(t, err)
	assert.Nil(t, s.Selection().DetailJobID)

	other := primitive.NewObjectID()
	_, err = s.SetSelection(ctx, SelectionPatch{DetailJobID: &other})
	assert.ErrorIs(t, err, ErrNotFound)
}
