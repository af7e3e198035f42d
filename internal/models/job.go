package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BayCount is the number of numbered maintenance stalls in the hangar.
const BayCount = 7

// DefaultPromotedHours is the estimate given to jobs created from a schedule item.
const DefaultPromotedHours = 4.0

// EstimatePresets are the durations offered when opening a job, in hours.
var EstimatePresets = []float64{0.5, 1, 2, 4, 6, 8, 16, 24}

// Bays returns the bay numbers 1..BayCount.
func Bays() []int {
	bays := make([]int, BayCount)
	for i := range bays {
		bays[i] = i + 1
	}
	return bays
}

// JobStatus is the lifecycle state of a maintenance job.
type JobStatus string

const (
	StatusInProgress         JobStatus = "in_progress"
	StatusAwaitingParts      JobStatus = "awaiting_parts"
	StatusAwaitingContractor JobStatus = "awaiting_contractor"
	StatusInTesting          JobStatus = "in_testing"
	StatusCompleted          JobStatus = "completed"
	StatusSuspended          JobStatus = "suspended"
)

// IsValidJobStatus checks if a job status is known.
func IsValidJobStatus(s JobStatus) bool {
	switch s {
	case StatusInProgress, StatusAwaitingParts, StatusAwaitingContractor,
		StatusInTesting, StatusCompleted, StatusSuspended:
		return true
	default:
		return false
	}
}

// LocationKind tells where a job is carried out.
type LocationKind string

const (
	LocationBay        LocationKind = "bay"
	LocationOutOfBay   LocationKind = "out_of_bay"
	LocationDepartment LocationKind = "department"
)

// Department is an external department that can take a job.
type Department string

const DepartmentTelecom Department = "telecommunications"

// IsValidDepartment checks if an external department is known.
func IsValidDepartment(d Department) bool { return d == DepartmentTelecom }

// Common out-of-bay spots. Any free text is accepted.
const (
	SpotPaintZone    = "paint_zone"
	SpotExternalArea = "external_area"
	SpotOther        = "other"
)

// Location is a tagged variant: Bay is set only for LocationBay, Spot only
// for LocationOutOfBay and Department only for LocationDepartment.
type Location struct {
	Kind       LocationKind `bson:"kind" json:"kind"`
	Bay        int          `bson:"bay,omitempty" json:"bay,omitempty"`
	Spot       string       `bson:"spot,omitempty" json:"spot,omitempty"`
	Department Department   `bson:"department,omitempty" json:"department,omitempty"`
}

// InBay builds a bay location.
func InBay(bay int) Location { return Location{Kind: LocationBay, Bay: bay} }

// OutOfBay builds an out-of-bay location.
func OutOfBay(spot string) Location { return Location{Kind: LocationOutOfBay, Spot: spot} }

// AtDepartment builds an external department location.
func AtDepartment(d Department) Location { return Location{Kind: LocationDepartment, Department: d} }

// Normalize drops the fields that do not belong to the location kind.
func (l Location) Normalize() Location {
	switch l.Kind {
	case LocationBay:
		return InBay(l.Bay)
	case LocationOutOfBay:
		return OutOfBay(l.Spot)
	case LocationDepartment:
		return AtDepartment(l.Department)
	}
	return l
}

// AffectedSystem tags the system a corrective job repairs.
type AffectedSystem string

const (
	SystemHydraulic    AffectedSystem = "hydraulic"
	SystemElectrical   AffectedSystem = "electrical"
	SystemEngine       AffectedSystem = "engine"
	SystemTires        AffectedSystem = "tires"
	SystemTransmission AffectedSystem = "transmission"
	SystemBrakes       AffectedSystem = "brakes"
	SystemSteering     AffectedSystem = "steering"
	SystemAirCond      AffectedSystem = "air_conditioning"
	SystemOther        AffectedSystem = "other"
)

// IsValidSystem checks if an affected system is known.
func IsValidSystem(s AffectedSystem) bool {
	switch s {
	case SystemHydraulic, SystemElectrical, SystemEngine, SystemTires, SystemTransmission,
		SystemBrakes, SystemSteering, SystemAirCond, SystemOther:
		return true
	default:
		return false
	}
}

// Work is the category-specific payload of a job. Preventive jobs carry a
// package of catalog entries, corrective jobs a fault description and the
// affected system. Summary holds free text copied from a schedule item.
type Work struct {
	Category   Category             `bson:"category" json:"category"`
	JobTypeIDs []primitive.ObjectID `bson:"job_type_ids,omitempty" json:"job_type_ids,omitempty"`
	Fault      string               `bson:"fault,omitempty" json:"fault,omitempty"`
	System     AffectedSystem       `bson:"system,omitempty" json:"system,omitempty"`
	Summary    string               `bson:"summary,omitempty" json:"summary,omitempty"`
}

// Normalize drops the fields that do not belong to the work category.
func (w Work) Normalize() Work {
	switch w.Category {
	case CategoryPreventive:
		w.Fault, w.System = "", ""
	case CategoryCorrective:
		w.JobTypeIDs = nil
	}
	return w
}

// AssignmentMode tells who executes a job.
type AssignmentMode string

const (
	AssignInternal   AssignmentMode = "internal_technician"
	AssignContractor AssignmentMode = "contractor"
	AssignDepartment AssignmentMode = "external_department"
)

// Assignment is a tagged variant over AssignmentMode. Technician links are
// stored in the job_technicians join collection, not in the job document.
type Assignment struct {
	Mode          AssignmentMode       `bson:"mode" json:"mode"`
	TechnicianIDs []primitive.ObjectID `bson:"-" json:"technician_ids,omitempty"`
	ContractorID  *primitive.ObjectID  `bson:"contractor_id,omitempty" json:"contractor_id,omitempty"`
	Department    Department           `bson:"department,omitempty" json:"department,omitempty"`
}

// Normalize drops the fields that do not belong to the assignment mode.
func (a Assignment) Normalize() Assignment {
	switch a.Mode {
	case AssignInternal:
		return Assignment{Mode: a.Mode, TechnicianIDs: a.TechnicianIDs}
	case AssignContractor:
		return Assignment{Mode: a.Mode, ContractorID: a.ContractorID}
	case AssignDepartment:
		return Assignment{Mode: a.Mode, Department: a.Department}
	}
	return a
}

// FinalCondition is the operability classification recorded when a job closes.
type FinalCondition string

const (
	ConditionOperative        FinalCondition = "operative"
	ConditionOperativeRemarks FinalCondition = "operative_with_remarks"
	ConditionNonOperational   FinalCondition = "non_operational"
)

// IsValidCondition checks if a final condition is known.
func IsValidCondition(c FinalCondition) bool {
	switch c {
	case ConditionOperative, ConditionOperativeRemarks, ConditionNonOperational:
		return true
	default:
		return false
	}
}

// Part is a spare part consumed by a job.
type Part struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit,omitempty"`
}

// Job represents a maintenance job against one vehicle.
type Job struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID      primitive.ObjectID `bson:"vehicle_id" json:"vehicle_id"`
	Location       Location           `bson:"location" json:"location"`
	Work           Work               `bson:"work" json:"work"`
	Assignment     Assignment         `bson:"assignment" json:"assignment"`
	EntryDate      string             `bson:"entry_date" json:"entry_date"` // YYYY-MM-DD
	EntryTime      string             `bson:"entry_time" json:"entry_time"` // HH:MM
	EstimatedHours float64            `bson:"estimated_hours" json:"estimated_hours"`
	Status         JobStatus          `bson:"status" json:"status"`
	Progress       int                `bson:"progress" json:"progress"` // 0-100
	EntryMeter     float64            `bson:"entry_meter" json:"entry_meter"`
	InitialNotes   string             `bson:"initial_notes,omitempty" json:"initial_notes,omitempty"`
	ExitDate       string             `bson:"exit_date,omitempty" json:"exit_date,omitempty"`
	ExitTime       string             `bson:"exit_time,omitempty" json:"exit_time,omitempty"`
	ExitMeter      *float64           `bson:"exit_meter,omitempty" json:"exit_meter,omitempty"`
	Parts          []Part             `bson:"-" json:"parts,omitempty"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"` // running log, then closing notes
	FinalCondition FinalCondition     `bson:"final_condition,omitempty" json:"final_condition,omitempty"`
	CreatedBy      string             `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsOpen reports whether the job is not completed.
func (j Job) IsOpen() bool { return j.Status != StatusCompleted }

// OpenJobForm is the payload used to open a job.
type OpenJobForm struct {
	VehicleID      primitive.ObjectID `json:"vehicle_id"`
	Location       Location           `json:"location"`
	Work           Work               `json:"work"`
	Assignment     Assignment         `json:"assignment"`
	EstimatedHours float64            `json:"estimated_hours"`
	EntryMeter     float64            `json:"entry_meter"`
	InitialNotes   string             `json:"initial_notes,omitempty"`
	CreatedBy      string             `json:"-"`
}

// StatusUpdate is the payload of a job status change.
type StatusUpdate struct {
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
	Note     string    `json:"note,omitempty"`
}

// CloseJobForm is the payload used to close a job.
type CloseJobForm struct {
	ExitTime       string         `json:"exit_time,omitempty"` // defaults to now
	ExitMeter      *float64       `json:"exit_meter"`
	Parts          []Part         `json:"parts,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	FinalCondition FinalCondition `json:"final_condition"`
	Partial        bool           `json:"partial,omitempty"`
	PendingTasks   string         `json:"pending_tasks,omitempty"`
}
