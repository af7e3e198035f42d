package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NoteShift is the shift a shift-change note was written in.
type NoteShift string

const (
	NoteShiftDay       NoteShift = "day"
	NoteShiftAfternoon NoteShift = "afternoon"
	NoteShiftNight     NoteShift = "night"
)

// Priority is the urgency of a shift note.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities with the most urgent first. Unknown values rank as normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	default:
		return 2
	}
}

// IsValidPriority checks if a note priority is known.
func IsValidPriority(p Priority) bool {
	return p == PriorityNormal || p == PriorityHigh || p == PriorityUrgent
}

// IsValidNoteShift checks if a note shift is known.
func IsValidNoteShift(s NoteShift) bool {
	return s == NoteShiftDay || s == NoteShiftAfternoon || s == NoteShiftNight
}

// ShiftNote is a shift-change note. Notes are append and delete only.
type ShiftNote struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Date         string              `bson:"date" json:"date"`
	Shift        NoteShift           `bson:"shift" json:"shift"`
	TechnicianID *primitive.ObjectID `bson:"technician_id,omitempty" json:"technician_id,omitempty"`
	Author       string              `bson:"author" json:"author"`
	Body         string              `bson:"body" json:"body"`
	Priority     Priority            `bson:"priority" json:"priority"`
	Read         bool                `bson:"read" json:"read"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}

type NewNoteForm struct {
	Date         string              `json:"date"`
	Shift        NoteShift           `json:"shift"`
	TechnicianID *primitive.ObjectID `json:"technician_id,omitempty"`
	Author       string              `json:"author"`
	Body         string              `json:"body"`
	Priority     Priority            `json:"priority"`
}
