package hangar

import (
	"context"
	"fmt"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SelectionPatch changes part of the UI selection. Nil fields are kept;
// CloseDetail clears the open job detail.
type SelectionPatch struct {
	Category     *string             `json:"category,omitempty"`
	Location     *string             `json:"location,omitempty"`
	Search       *string             `json:"search,omitempty"`
	ScheduleDate *string             `json:"schedule_date,omitempty"`
	View         *View               `json:"view,omitempty"`
	NewJobOpen   *bool               `json:"new_job_open,omitempty"`
	DetailJobID  *primitive.ObjectID `json:"detail_job_id,omitempty"`
	CloseDetail  bool                `json:"close_detail,omitempty"`
	SettingsOpen *bool               `json:"settings_open,omitempty"`
}

// defaultSelection shows the hangar with no filters and tomorrow's schedule.
func defaultSelection(now time.Time) Selection {
	return Selection{
		Category:     FilterAll,
		Location:     FilterAll,
		ScheduleDate: DateOf(now.AddDate(0, 0, 1)),
		View:         ViewHangar,
	}
}

func validCategoryFilter(c string) bool {
	return c == FilterAll || models.IsValidCategory(models.Category(c))
}

func validLocationFilter(l string) bool {
	switch models.LocationKind(l) {
	case models.LocationBay, models.LocationOutOfBay, models.LocationDepartment:
		return true
	}
	return l == FilterAll
}

func validView(v View) bool {
	switch v {
	case ViewHangar, ViewSchedule, ViewTimeline, ViewNotes:
		return true
	}
	return false
}

// Selection returns the current UI selection.
func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel := s.state.Selection
	sel.DetailJobID = cloneOID(sel.DetailJobID)
	return sel
}

// SetSelection applies a selection patch. Selection is never persisted.
func (s *Store) SetSelection(ctx context.Context, p SelectionPatch) (Selection, error) {
	var sel Selection
	err := s.Update(ctx, "set_selection", func(tx *Tx) error {
		fe := fieldErrors{}
		if p.Category != nil && !validCategoryFilter(*p.Category) {
			fe.add("category", "must be all, preventive or corrective")
		}
		if p.Location != nil && !validLocationFilter(*p.Location) {
			fe.add("location", "must be all, bay, out_of_bay or department")
		}
		if p.ScheduleDate != nil && !validDate(*p.ScheduleDate) {
			fe.add("schedule_date", "must be a YYYY-MM-DD date")
		}
		if p.View != nil && !validView(*p.View) {
			fe.add("view", "must be hangar, schedule, timeline or notes")
		}
		if err := fe.err(); err != nil {
			return err
		}
		if p.DetailJobID != nil {
			if _, ok := tx.state.Job(*p.DetailJobID); !ok {
				return fmt.Errorf("job %s: %w", p.DetailJobID.Hex(), ErrNotFound)
			}
		}

		cur := &tx.state.Selection
		if p.Category != nil {
			cur.Category = *p.Category
		}
		if p.Location != nil {
			cur.Location = *p.Location
		}
		if p.Search != nil {
			cur.Search = *p.Search
		}
		if p.ScheduleDate != nil {
			cur.ScheduleDate = *p.ScheduleDate
		}
		if p.View != nil {
			cur.View = *p.View
		}
		if p.NewJobOpen != nil {
			cur.NewJobOpen = *p.NewJobOpen
		}
		if p.SettingsOpen != nil {
			cur.SettingsOpen = *p.SettingsOpen
		}
		switch {
		case p.CloseDetail:
			cur.DetailJobID = nil
		case p.DetailJobID != nil:
			cur.DetailJobID = cloneOID(p.DetailJobID)
		}
		sel = *cur
		sel.DetailJobID = cloneOID(cur.DetailJobID)
		return nil
	})
	return sel, err
}
