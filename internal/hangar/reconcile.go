package hangar

import (
	"context"
	"fmt"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mergeByID reconciles a local collection with a freshly fetched remote one.
// For records on both sides the newer UpdatedAt wins, ties go to remote.
// Remote-only records are appended in remote order unless gone reports them
// deleted locally since the fetch started. Local-only records are kept only
// if they changed after the fetch started.
func mergeByID[T any](local, remote []T, id func(*T) primitive.ObjectID, updated func(*T) time.Time, fetchedAt time.Time, gone func(primitive.ObjectID) bool) []T {
	byID := make(map[primitive.ObjectID]int, len(remote))
	for i := range remote {
		byID[id(&remote[i])] = i
	}
	used := make(map[primitive.ObjectID]bool, len(remote))
	out := make([]T, 0, len(remote))
	for i := range local {
		l := &local[i]
		k := id(l)
		ri, ok := byID[k]
		if !ok {
			if updated(l).After(fetchedAt) {
				out = append(out, *l)
			}
			continue
		}
		used[k] = true
		if updated(l).After(updated(&remote[ri])) {
			out = append(out, *l)
		} else {
			out = append(out, remote[ri])
		}
	}
	for i := range remote {
		k := id(&remote[i])
		if used[k] || (gone != nil && gone(k)) {
			continue
		}
		out = append(out, remote[i])
	}
	return out
}

// Refresh re-reads one collection from the source and merges it into the
// current state. It is the handler for change notifications from other
// instances.
func (s *Store) Refresh(ctx context.Context, col Collection) error {
	if s.source == nil {
		return nil
	}
	if !IsValidCollection(col) {
		return fmt.Errorf("refresh %q: %w", col, ErrNotFound)
	}
	s.mu.Lock()
	since := s.seq
	s.refreshing++
	s.mu.Unlock()

	fetchedAt := s.clock.Now()
	var remote State
	err := s.source.Load(ctx, col, &remote)

	s.mu.Lock()
	defer s.mu.Unlock()
	tombs := s.tombstones[col]
	s.refreshing--
	if s.refreshing == 0 {
		s.tombstones = nil
	}
	if err != nil {
		s.lastErr = err.Error()
		return fmt.Errorf("refresh %s: %w: %v", col, ErrPersistence, err)
	}

	gone := func(id primitive.ObjectID) bool { return tombs[id] > since }
	st := &s.state
	switch col {
	case CollectionVehicles:
		st.Vehicles = mergeByID(st.Vehicles, remote.Vehicles,
			func(v *models.Vehicle) primitive.ObjectID { return v.ID },
			func(v *models.Vehicle) time.Time { return v.UpdatedAt }, fetchedAt, gone)
	case CollectionTechnicians:
		st.Technicians = mergeByID(st.Technicians, remote.Technicians,
			func(t *models.Technician) primitive.ObjectID { return t.ID },
			func(t *models.Technician) time.Time { return t.UpdatedAt }, fetchedAt, gone)
	case CollectionContractors:
		st.Contractors = mergeByID(st.Contractors, remote.Contractors,
			func(c *models.Contractor) primitive.ObjectID { return c.ID },
			func(c *models.Contractor) time.Time { return c.UpdatedAt }, fetchedAt, gone)
	case CollectionJobTypes:
		st.JobTypes = mergeByID(st.JobTypes, remote.JobTypes,
			func(j *models.JobType) primitive.ObjectID { return j.ID },
			func(j *models.JobType) time.Time { return j.UpdatedAt }, fetchedAt, gone)
	case CollectionJobs:
		st.Jobs = mergeByID(st.Jobs, remote.Jobs,
			func(j *models.Job) primitive.ObjectID { return j.ID },
			func(j *models.Job) time.Time { return j.UpdatedAt }, fetchedAt, gone)
	case CollectionNotes:
		st.Notes = mergeByID(st.Notes, remote.Notes,
			func(n *models.ShiftNote) primitive.ObjectID { return n.ID },
			func(n *models.ShiftNote) time.Time { return n.UpdatedAt }, fetchedAt, gone)
	case CollectionSchedule:
		st.Schedule = mergeByID(st.Schedule, remote.Schedule,
			func(i *models.ScheduleItem) primitive.ObjectID { return i.ID },
			func(i *models.ScheduleItem) time.Time { return i.UpdatedAt }, fetchedAt, gone)
	}
	s.lastErr = ""
	s.log.WithFields(logrus.Fields{"collection": col}).Debug("Reconciled collection")
	return nil
}
