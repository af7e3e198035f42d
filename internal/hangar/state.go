package hangar

import (
	"github.com/leogoca00/hangar-sprc/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FilterAll is the sentinel that disables a category or location filter.
const FilterAll = "all"

// View is the dashboard screen currently shown.
type View string

const (
	ViewHangar   View = "hangar"
	ViewSchedule View = "schedule"
	ViewTimeline View = "timeline"
	ViewNotes    View = "notes"
)

// Selection is the UI-selection part of the record store.
type Selection struct {
	Category     string              `json:"category"` // all | preventive | corrective
	Location     string              `json:"location"` // all | bay | out_of_bay | department
	Search       string              `json:"search"`
	ScheduleDate string              `json:"schedule_date"`
	View         View                `json:"view"`
	NewJobOpen   bool                `json:"new_job_open"`
	DetailJobID  *primitive.ObjectID `json:"detail_job_id,omitempty"`
	SettingsOpen bool                `json:"settings_open"`
}

// JobFilter is the subset of Selection applied by ActiveJobs.
type JobFilter struct {
	Category string
	Location string
	Search   string
}

// Filter extracts the active-job filter from the selection.
func (s Selection) Filter() JobFilter {
	return JobFilter{Category: s.Category, Location: s.Location, Search: s.Search}
}

// State is a snapshot of every collection plus the UI selection.
// Slices keep insertion order.
type State struct {
	Vehicles    []models.Vehicle      `json:"vehicles"`
	Technicians []models.Technician   `json:"technicians"`
	Contractors []models.Contractor   `json:"contractors"`
	JobTypes    []models.JobType      `json:"job_types"`
	Jobs        []models.Job          `json:"jobs"`
	Notes       []models.ShiftNote    `json:"notes"`
	Schedule    []models.ScheduleItem `json:"schedule"`
	Selection   Selection             `json:"selection"`
}

// Clone returns a deep copy that shares no slices with s.
func (s *State) Clone() State {
	out := State{
		Vehicles:    append([]models.Vehicle(nil), s.Vehicles...),
		Technicians: append([]models.Technician(nil), s.Technicians...),
		Contractors: append([]models.Contractor(nil), s.Contractors...),
		JobTypes:    make([]models.JobType, len(s.JobTypes)),
		Jobs:        make([]models.Job, len(s.Jobs)),
		Notes:       make([]models.ShiftNote, len(s.Notes)),
		Schedule:    make([]models.ScheduleItem, len(s.Schedule)),
		Selection:   s.Selection,
	}
	if s.Selection.DetailJobID != nil {
		id := *s.Selection.DetailJobID
		out.Selection.DetailJobID = &id
	}
	for i, jt := range s.JobTypes {
		out.JobTypes[i] = cloneJobType(jt)
	}
	for i, j := range s.Jobs {
		out.Jobs[i] = cloneJob(j)
	}
	for i, n := range s.Notes {
		out.Notes[i] = cloneNote(n)
	}
	for i, it := range s.Schedule {
		out.Schedule[i] = cloneScheduleItem(it)
	}
	return out
}

func cloneOID(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneOIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return nil
	}
	return append([]primitive.ObjectID(nil), ids...)
}

func cloneJobType(jt models.JobType) models.JobType {
	if jt.DefaultHours != nil {
		h := *jt.DefaultHours
		jt.DefaultHours = &h
	}
	return jt
}

func cloneJob(j models.Job) models.Job {
	j.Work.JobTypeIDs = cloneOIDs(j.Work.JobTypeIDs)
	j.Assignment.TechnicianIDs = cloneOIDs(j.Assignment.TechnicianIDs)
	j.Assignment.ContractorID = cloneOID(j.Assignment.ContractorID)
	if j.ExitMeter != nil {
		m := *j.ExitMeter
		j.ExitMeter = &m
	}
	if j.Parts != nil {
		j.Parts = append([]models.Part(nil), j.Parts...)
	}
	return j
}

func cloneNote(n models.ShiftNote) models.ShiftNote {
	n.TechnicianID = cloneOID(n.TechnicianID)
	return n
}

func cloneScheduleItem(it models.ScheduleItem) models.ScheduleItem {
	it.TechnicianIDs = cloneOIDs(it.TechnicianIDs)
	it.ContractorID = cloneOID(it.ContractorID)
	it.JobID = cloneOID(it.JobID)
	return it
}

// Lookup helpers return copies; a false second value means not found.

func (s State) Vehicle(id primitive.ObjectID) (models.Vehicle, bool) {
	if i := s.vehicleIndex(id); i >= 0 {
		return s.Vehicles[i], true
	}
	return models.Vehicle{}, false
}

func (s State) Technician(id primitive.ObjectID) (models.Technician, bool) {
	if i := s.technicianIndex(id); i >= 0 {
		return s.Technicians[i], true
	}
	return models.Technician{}, false
}

func (s State) Contractor(id primitive.ObjectID) (models.Contractor, bool) {
	if i := s.contractorIndex(id); i >= 0 {
		return s.Contractors[i], true
	}
	return models.Contractor{}, false
}

func (s State) JobType(id primitive.ObjectID) (models.JobType, bool) {
	if i := s.jobTypeIndex(id); i >= 0 {
		return cloneJobType(s.JobTypes[i]), true
	}
	return models.JobType{}, false
}

func (s State) Job(id primitive.ObjectID) (models.Job, bool) {
	if i := s.jobIndex(id); i >= 0 {
		return cloneJob(s.Jobs[i]), true
	}
	return models.Job{}, false
}

func (s State) ScheduleItem(id primitive.ObjectID) (models.ScheduleItem, bool) {
	if i := s.scheduleIndex(id); i >= 0 {
		return cloneScheduleItem(s.Schedule[i]), true
	}
	return models.ScheduleItem{}, false
}

func (s State) Note(id primitive.ObjectID) (models.ShiftNote, bool) {
	if i := s.noteIndex(id); i >= 0 {
		return cloneNote(s.Notes[i]), true
	}
	return models.ShiftNote{}, false
}

func (s *State) vehicleIndex(id primitive.ObjectID) int {
	for i := range s.Vehicles {
		if s.Vehicles[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) technicianIndex(id primitive.ObjectID) int {
	for i := range s.Technicians {
		if s.Technicians[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) contractorIndex(id primitive.ObjectID) int {
	for i := range s.Contractors {
		if s.Contractors[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) jobTypeIndex(id primitive.ObjectID) int {
	for i := range s.JobTypes {
		if s.JobTypes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) jobIndex(id primitive.ObjectID) int {
	for i := range s.Jobs {
		if s.Jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) noteIndex(id primitive.ObjectID) int {
	for i := range s.Notes {
		if s.Notes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) scheduleIndex(id primitive.ObjectID) int {
	for i := range s.Schedule {
		if s.Schedule[i].ID == id {
			return i
		}
	}
	return -1
}
