package hangar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validDate(d string) bool {
	_, err := time.Parse(DateLayout, d)
	return err == nil
}

// AddNote appends an unread shift note. An empty date means today and an
// empty priority means normal.
func (s *Store) AddNote(ctx context.Context, form models.NewNoteForm) (models.ShiftNote, error) {
	var n models.ShiftNote
	err := s.Update(ctx, "add_note", func(tx *Tx) error {
		date := strings.TrimSpace(form.Date)
		if date == "" {
			date = tx.Today()
		}
		prio := form.Priority
		if prio == "" {
			prio = models.PriorityNormal
		}
		fe := fieldErrors{}
		if !validDate(date) {
			fe.add("date", "must be a YYYY-MM-DD date")
		}
		if !models.IsValidNoteShift(form.Shift) {
			fe.add("shift", "must be day, afternoon or night")
		}
		if strings.TrimSpace(form.Author) == "" {
			fe.add("author", "is required")
		}
		if strings.TrimSpace(form.Body) == "" {
			fe.add("body", "is required")
		}
		if !models.IsValidPriority(prio) {
			fe.add("priority", "must be normal, high or urgent")
		}
		if form.TechnicianID != nil {
			if _, ok := tx.state.Technician(*form.TechnicianID); !ok {
				fe.add("technician_id", "unknown technician")
			}
		}
		if err := fe.err(); err != nil {
			return err
		}
		n = models.ShiftNote{
			ID:           primitive.NewObjectID(),
			Date:         date,
			Shift:        form.Shift,
			TechnicianID: cloneOID(form.TechnicianID),
			Author:       strings.TrimSpace(form.Author),
			Body:         strings.TrimSpace(form.Body),
			Priority:     prio,
			CreatedAt:    tx.Now(),
			UpdatedAt:    tx.Now(),
		}
		tx.state.Notes = append(tx.state.Notes, n)
		tx.inserted(CollectionNotes, n.ID, cloneNote(n))
		return nil
	})
	return n, err
}

// MarkNoteRead flags a note as read. Marking a read note again changes nothing.
func (s *Store) MarkNoteRead(ctx context.Context, id primitive.ObjectID) (models.ShiftNote, error) {
	var n models.ShiftNote
	err := s.Update(ctx, "mark_note_read", func(tx *Tx) error {
		i := tx.state.noteIndex(id)
		if i < 0 {
			return fmt.Errorf("note %s: %w", id.Hex(), ErrNotFound)
		}
		cur := &tx.state.Notes[i]
		if !cur.Read {
			cur.Read = true
			cur.UpdatedAt = tx.Now()
			tx.updated(CollectionNotes, cur.ID, cloneNote(*cur))
		}
		n = cloneNote(*cur)
		return nil
	})
	return n, err
}

func (s *Store) DeleteNote(ctx context.Context, id primitive.ObjectID) error {
	return s.Update(ctx, "delete_note", func(tx *Tx) error {
		i := tx.state.noteIndex(id)
		if i < 0 {
			return fmt.Errorf("note %s: %w", id.Hex(), ErrNotFound)
		}
		tx.state.Notes = append(tx.state.Notes[:i], tx.state.Notes[i+1:]...)
		tx.deleted(CollectionNotes, id)
		return nil
	})
}
