package hangar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockSource is a mock implementation of Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Load(ctx context.Context, col Collection, dst *State) error {
	args := m.Called(ctx, col, dst)
	return args.Error(0)
}

func note(id primitive.ObjectID, body string, at time.Time) models.ShiftNote {
	return models.ShiftNote{ID: id, Body: body, UpdatedAt: at}
}

func TestMergeByID(t *testing.T) {
	fetched := testNow
	a, b, c, d := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	local := []models.ShiftNote{
		note(a, "local newer", fetched.Add(-time.Minute)),
		note(b, "local older", fetched.Add(-time.Hour)),
		note(c, "deleted remotely", fetched.Add(-time.Hour)),
		note(d, "created after fetch", fetched.Add(time.Second)),
	}
	e := primitive.NewObjectID()
	remote := []models.ShiftNote{
		note(e, "remote only", fetched.Add(-time.Minute)),
		note(b, "remote newer", fetched.Add(-30*time.Minute)),
		note(a, "remote older", fetched.Add(-10*time.Minute)),
	}
	got := mergeByID(local, remote,
		func(n *models.ShiftNote) primitive.ObjectID { return n.ID },
		func(n *models.ShiftNote) time.Time { return n.UpdatedAt }, fetched, nil)

	bodies := make([]string, len(got))
	for i := range got {
		bodies[i] = got[i].Body
	}
	assert.Equal(t, []string{"local newer", "remote newer", "created after fetch", "remote only"}, bodies)
}

func TestRefresh(t *testing.T) {
	src := new(MockSource)
	s, _ := newTestStore(t, 2, WithSource(src))
	v := s.Snapshot().Vehicles[0]
	remoteV := v
	remoteV.Meter = 777
	remoteV.State = models.VehicleOutOfService
	remoteV.UpdatedAt = testNow.Add(time.Minute)

	src.On("Load", mock.Anything, CollectionVehicles, mock.AnythingOfType("*hangar.State")).
		Run(func(args mock.Arguments) {
			dst := args.Get(2).(*State)
			dst.Vehicles = []models.Vehicle{remoteV}
		}).Return(nil).Once()

	require.NoError(t, s.Refresh(context.Background(), CollectionVehicles))
	snap := s.Snapshot()
	require.Len(t, snap.Vehicles, 1, "vehicle missing remotely was deleted there")
	assert.Equal(t, 777.0, snap.Vehicles[0].Meter)
	assert.Equal(t, models.VehicleOutOfService, snap.Vehicles[0].State)
	src.AssertExpectations(t)
}

func TestMergeByID_SkipsGoneRecords(t *testing.T) {
	kept, gone := primitive.NewObjectID(), primitive.NewObjectID()
	remote := []models.ShiftNote{note(kept, "kept", testNow), note(gone, "gone", testNow)}
	got := mergeByID(nil, remote,
		func(n *models.ShiftNote) primitive.ObjectID { return n.ID },
		func(n *models.ShiftNote) time.Time { return n.UpdatedAt }, testNow,
		func(id primitive.ObjectID) bool { return id == gone })
	require.Len(t, got, 1)
	assert.Equal(t, kept, got[0].ID)
}

func TestRefresh_DeleteDuringFetchStaysDeleted(t *testing.T) {
	ctx := context.Background()
	src := new(MockSource)
	s, _ := newTestStore(t, 0, WithSource(src))

	n, err := s.AddNote(ctx, models.NewNoteForm{Shift: models.NoteShiftDay, Author: "Marta", Body: "R12 hoses"})
	require.NoError(t, err)
	stale := n
	other := note(primitive.NewObjectID(), "written elsewhere", testNow)

	// The fetch reads the note, then the local delete commits before the
	// reply is merged.
	src.On("Load", mock.Anything, CollectionNotes, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(2).(*State).Notes = []models.ShiftNote{stale, other}
		require.NoError(t, s.DeleteNote(ctx, n.ID))
	}).Return(nil).Once()

	require.NoError(t, s.Refresh(ctx, CollectionNotes))
	snap := s.Snapshot()
	_, found := snap.Note(n.ID)
	assert.False(t, found, "deleted note came back from a stale fetch")
	_, found = snap.Note(other.ID)
	assert.True(t, found)
	assert.Nil(t, s.tombstones, "tombstones are dropped once no refresh is loading")

	// A delete that reached the backend before the fetch is simply absent.
	src.On("Load", mock.Anything, CollectionNotes, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(2).(*State).Notes = []models.ShiftNote{other}
	}).Return(nil).Once()
	require.NoError(t, s.Refresh(ctx, CollectionNotes))
	assert.Len(t, s.Snapshot().Notes, 1)
	src.AssertExpectations(t)
}

func TestRefresh_Errors(t *testing.T) {
	src := new(MockSource)
	s, _ := newTestStore(t, 1, WithSource(src))

	err := s.Refresh(context.Background(), "trips")
	assert.ErrorIs(t, err, ErrNotFound)

	src.On("Load", mock.Anything, CollectionNotes, mock.Anything).Return(errors.New("timeout")).Once()
	err = s.Refresh(context.Background(), CollectionNotes)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, "timeout", s.LastError())
	assert.Len(t, s.Snapshot().Vehicles, 1)
}

func TestInit_LoadsEveryCollection(t *testing.T) {
	src := new(MockSource)
	s, _ := newTestStore(t, 0, WithSource(src))
	for _, col := range Collections() {
		src.On("Load", mock.Anything, col, mock.Anything).Run(func(args mock.Arguments) {
			if col == CollectionVehicles {
				args.Get(2).(*State).Vehicles = DefaultFleet(testNow)[:3]
			}
		}).Return(nil).Once()
	}
	require.NoError(t, s.Init(context.Background()))
	src.AssertExpectations(t)
	assert.Len(t, s.Snapshot().Vehicles, 3)
	assert.Equal(t, ViewHangar, s.Selection().View)
}

func TestDefaultFleetAndSeed(t *testing.T) {
	fleet := DefaultFleet(testNow)
	require.Len(t, fleet, 101)
	assert.Equal(t, "R06", fleet[0].Code)
	assert.Equal(t, "R92", fleet[86].Code)
	assert.Equal(t, "K01", fleet[87].Code)
	assert.Equal(t, "K14", fleet[100].Code)
	for _, v := range fleet {
		assert.Equal(t, DefaultModel, v.Model)
		assert.Equal(t, models.VehicleOperative, v.State)
	}

	s, _ := newTestStore(t, 0)
	n, err := s.SeedFleet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 101, n)
	n, err = s.SeedFleet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestVehicleAdmin(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 2)

	v, err := s.AddVehicle(ctx, models.NewVehicleForm{Code: "r93", Class: models.VehicleClassR, Meter: 10})
	require.NoError(t, err)
	assert.Equal(t, "R93", v.Code)
	assert.Equal(t, DefaultModel, v.Model)

	_, err = s.AddVehicle(ctx, models.NewVehicleForm{Code: "R06", Class: models.VehicleClassR})
	assert.True(t, IsValidation(err))

	code := "R07"
	_, err = s.UpdateVehicle(ctx, v.ID, models.VehiclePatch{Code: &code})
	assert.True(t, IsValidation(err))

	require.NoError(t, s.DeleteVehicle(ctx, v.ID))
	assert.ErrorIs(t, s.DeleteVehicle(ctx, v.ID), ErrNotFound)
}
