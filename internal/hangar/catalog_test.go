package hangar

import (
	"context"
	"testing"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTechnicianLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 0)

	tech, err := s.AddTechnician(ctx, models.NewTechnicianForm{Name: " Ana ", Specialty: models.SpecialtyElectrician, Shift: models.ShiftNight})
	require.NoError(t, err)
	assert.True(t, tech.Active)
	assert.Equal(t, "Ana", tech.Name)

	shift := models.ShiftDay
	tech, err = s.UpdateTechnician(ctx, tech.ID, models.TechnicianPatch{Shift: &shift})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftDay, tech.Shift)
	assert.Equal(t, models.SpecialtyElectrician, tech.Specialty)

	tech, err = s.ToggleTechnician(ctx, tech.ID)
	require.NoError(t, err)
	assert.False(t, tech.Active)
	tech, err = s.ToggleTechnician(ctx, tech.ID)
	require.NoError(t, err)
	assert.True(t, tech.Active)

	require.NoError(t, s.DeleteTechnician(ctx, tech.ID))
	assert.ErrorIs(t, s.DeleteTechnician(ctx, tech.ID), ErrNotFound)
	_, ok := s.Snapshot().Technician(tech.ID)
	assert.False(t, ok)
}

func TestAddTechnician_Validation(t *testing.T) {
	s, _ := newTestStore(t, 0)
	_, err := s.AddTechnician(context.Background(), models.NewTechnicianForm{Specialty: "welder", Shift: "evening"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Empty(t, s.Snapshot().Technicians)
}

func TestDeleteTechnician_LeavesDanglingReference(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 1)
	tech, err := s.AddTechnician(ctx, models.NewTechnicianForm{Name: "Ana", Specialty: models.SpecialtyMechanic, Shift: models.ShiftDay})
	require.NoError(t, err)
	form := bayJobForm(s.Snapshot().Vehicles[0], 1)
	form.Assignment.TechnicianIDs = []primitive.ObjectID{tech.ID}
	job, err := s.OpenJob(ctx, form)
	require.NoError(t, err)

	require.NoError(t, s.DeleteTechnician(ctx, tech.ID))
	snap := s.Snapshot()
	got, ok := snap.Job(job.ID)
	require.True(t, ok)
	assert.Equal(t, []primitive.ObjectID{tech.ID}, got.Assignment.TechnicianIDs)
	_, ok = snap.Technician(tech.ID)
	assert.False(t, ok)
}

func TestContractorLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 0)

	c, err := s.AddContractor(ctx, models.NewContractorForm{Name: "Frenos del Norte", Specialty: "brakes"})
	require.NoError(t, err)
	assert.True(t, c.Active)

	contact := "310 555 0101"
	c, err = s.UpdateContractor(ctx, c.ID, models.ContractorPatch{Contact: &contact})
	require.NoError(t, err)
	assert.Equal(t, contact, c.Contact)
	assert.Equal(t, "brakes", c.Specialty)

	c, err = s.ToggleContractor(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, c.Active)

	empty := " "
	_, err = s.UpdateContractor(ctx, c.ID, models.ContractorPatch{Name: &empty})
	assert.True(t, IsValidation(err))

	require.NoError(t, s.DeleteContractor(ctx, c.ID))
	_, err = s.ToggleContractor(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobTypeLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 0)

	hours := 1.5
	jt, err := s.AddJobType(ctx, models.NewJobTypeForm{Name: "Oil change", Category: models.CategoryPreventive, DefaultHours: &hours})
	require.NoError(t, err)
	require.NotNil(t, jt.DefaultHours)
	assert.Equal(t, 1.5, *jt.DefaultHours)

	hours = 9
	stored, _ := s.Snapshot().JobType(jt.ID)
	assert.Equal(t, 1.5, *stored.DefaultHours)

	desc := "engine oil and filter"
	jt, err = s.UpdateJobType(ctx, jt.ID, models.JobTypePatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, jt.Description)

	zero := 0.0
	_, err = s.UpdateJobType(ctx, jt.ID, models.JobTypePatch{DefaultHours: &zero})
	assert.True(t, IsValidation(err))

	jt, err = s.ToggleJobType(ctx, jt.ID)
	require.NoError(t, err)
	assert.False(t, jt.Active)

	require.NoError(t, s.DeleteJobType(ctx, jt.ID))
	assert.Empty(t, s.Snapshot().JobTypes)
}

func TestPreventiveJob_RequiresKnownJobTypes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 1)
	jt, err := s.AddJobType(ctx, models.NewJobTypeForm{Name: "Greasing", Category: models.CategoryPreventive})
	require.NoError(t, err)

	form := bayJobForm(s.Snapshot().Vehicles[0], 1)
	form.Work = models.Work{Category: models.CategoryPreventive, JobTypeIDs: []primitive.ObjectID{jt.ID, primitive.NewObjectID()}}
	_, err = s.OpenJob(ctx, form)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "work.job_type_ids")

	form.Work.JobTypeIDs = []primitive.ObjectID{jt.ID}
	job, err := s.OpenJob(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{jt.ID}, job.Work.JobTypeIDs)
}
