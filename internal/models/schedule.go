package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stage tracks where a scheduled vehicle is during the day.
type Stage string

const (
	StagePending   Stage = "pending"
	StageWashing   Stage = "washing"
	StageInHangar  Stage = "in_hangar"
	StagePainting  Stage = "painting"
	StageTelecom   Stage = "telecom"
	StageCompleted Stage = "completed"
	StageCancelled Stage = "cancelled"
)

// IsValidStage checks if a schedule stage is known.
func IsValidStage(s Stage) bool {
	switch s {
	case StagePending, StageWashing, StageInHangar, StagePainting,
		StageTelecom, StageCompleted, StageCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further stage follows.
func (s Stage) IsTerminal() bool { return s == StageCompleted || s == StageCancelled }

// ScheduleItem is a planned job slated for a date. JobID is set once the
// item is promoted into an active job.
type ScheduleItem struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	VehicleID     primitive.ObjectID   `bson:"vehicle_id" json:"vehicle_id"`
	Date          string               `bson:"date" json:"date"`
	Category      Category             `bson:"category" json:"category"`
	Description   string               `bson:"description" json:"description"`
	TechnicianIDs []primitive.ObjectID `bson:"-" json:"technician_ids"`
	ContractorID  *primitive.ObjectID  `bson:"contractor_id,omitempty" json:"contractor_id,omitempty"`
	Stage         Stage                `bson:"stage" json:"stage"`
	JobID         *primitive.ObjectID  `bson:"job_id,omitempty" json:"job_id,omitempty"`
	Notes         string               `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// IsPromoted reports whether a job was created from this item.
func (i ScheduleItem) IsPromoted() bool { return i.JobID != nil }

type NewScheduleItemForm struct {
	VehicleID     primitive.ObjectID   `json:"vehicle_id"`
	Date          string               `json:"date"`
	Category      Category             `json:"category"`
	Description   string               `json:"description"`
	TechnicianIDs []primitive.ObjectID `json:"technician_ids,omitempty"`
	ContractorID  *primitive.ObjectID  `json:"contractor_id,omitempty"`
	Notes         string               `json:"notes,omitempty"`
}
