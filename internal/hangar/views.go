package hangar

import (
	"math"
	"sort"
	"strings"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The functions in this file are pure: they read the given snapshot and
// never change it. today is a YYYY-MM-DD date.

// Availability summarizes how much of the fleet can work today.
type Availability struct {
	Total         int     `json:"total"`
	Operative     int     `json:"operative"`
	InMaintenance int     `json:"in_maintenance"`
	Percentage    float64 `json:"percentage"`
}

// ScheduleStats counts the schedule items of one date by stage.
type ScheduleStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
}

func openToday(j *models.Job, today string) bool {
	return j.EntryDate == today && j.IsOpen()
}

// ActiveJobs returns the open jobs entered today that pass every filter.
// Empty or "all" filter values match everything; the search term matches
// the vehicle code as a case-insensitive substring.
func ActiveJobs(s *State, today string, f JobFilter) []models.Job {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := []models.Job{}
	for i := range s.Jobs {
		j := &s.Jobs[i]
		if !openToday(j, today) {
			continue
		}
		if f.Category != "" && f.Category != FilterAll && string(j.Work.Category) != f.Category {
			continue
		}
		if f.Location != "" && f.Location != FilterAll && string(j.Location.Kind) != f.Location {
			continue
		}
		if search != "" {
			v, ok := s.Vehicle(j.VehicleID)
			if !ok || !strings.Contains(strings.ToLower(v.Code), search) {
				continue
			}
		}
		out = append(out, cloneJob(*j))
	}
	return out
}

// OccupiedBays returns the distinct bays holding an open in-bay job
// entered today, in ascending order.
func OccupiedBays(s *State, today string) []int {
	seen := make(map[int]bool)
	out := []int{}
	for i := range s.Jobs {
		j := &s.Jobs[i]
		if !openToday(j, today) || j.Location.Kind != models.LocationBay {
			continue
		}
		b := j.Location.Bay
		if b < 1 || b > models.BayCount || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	sort.Ints(out)
	return out
}

// BayOccupant returns the open job holding bay today.
func BayOccupant(s *State, today string, bay int) (models.Job, bool) {
	for i := range s.Jobs {
		j := &s.Jobs[i]
		if openToday(j, today) && j.Location.Kind == models.LocationBay && j.Location.Bay == bay {
			return cloneJob(*j), true
		}
	}
	return models.Job{}, false
}

// BayStatus is one bay of the hangar floor plan.
type BayStatus struct {
	Bay   int                 `json:"bay"`
	JobID *primitive.ObjectID `json:"job_id,omitempty"`
}

// Bays returns every bay with the job occupying it today, if any.
func Bays(s *State, today string) []BayStatus {
	out := make([]BayStatus, 0, models.BayCount)
	for _, b := range models.Bays() {
		st := BayStatus{Bay: b}
		if j, ok := BayOccupant(s, today, b); ok {
			id := j.ID
			st.JobID = &id
		}
		out = append(out, st)
	}
	return out
}

// vehiclesInMaintenance returns the fleet vehicles with an open job entered today.
func vehiclesInMaintenance(s *State, today string) map[primitive.ObjectID]bool {
	busy := make(map[primitive.ObjectID]bool)
	for i := range s.Jobs {
		j := &s.Jobs[i]
		if !openToday(j, today) {
			continue
		}
		if _, ok := s.Vehicle(j.VehicleID); ok {
			busy[j.VehicleID] = true
		}
	}
	return busy
}

// AvailabilityOf computes fleet availability for today.
func AvailabilityOf(s *State, today string) Availability {
	total := len(s.Vehicles)
	inMaint := len(vehiclesInMaintenance(s, today))
	return availability(total, inMaint)
}

func availability(total, inMaint int) Availability {
	a := Availability{Total: total, Operative: total - inMaint, InMaintenance: inMaint, Percentage: 100}
	if total > 0 {
		a.Percentage = math.Round(float64(a.Operative)/float64(total)*1000) / 10
	}
	return a
}

// AvailableVehicles returns the operative vehicles without an open job today.
func AvailableVehicles(s *State, today string) []models.Vehicle {
	busy := vehiclesInMaintenance(s, today)
	out := []models.Vehicle{}
	for _, v := range s.Vehicles {
		if v.State == models.VehicleOperative && !busy[v.ID] {
			out = append(out, v)
		}
	}
	return out
}

// ScheduleForDate returns the schedule items of date in insertion order.
func ScheduleForDate(s *State, date string) []models.ScheduleItem {
	out := []models.ScheduleItem{}
	for i := range s.Schedule {
		if s.Schedule[i].Date == date {
			out = append(out, cloneScheduleItem(s.Schedule[i]))
		}
	}
	return out
}

// NotesForDate returns the shift notes of date, most urgent first. Notes of
// equal priority keep insertion order.
func NotesForDate(s *State, date string) []models.ShiftNote {
	out := []models.ShiftNote{}
	for i := range s.Notes {
		if s.Notes[i].Date == date {
			out = append(out, cloneNote(s.Notes[i]))
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Priority.Rank() < out[b].Priority.Rank()
	})
	return out
}

// ScheduleStatsFor counts the schedule items of date by stage.
func ScheduleStatsFor(s *State, date string) ScheduleStats {
	var st ScheduleStats
	for i := range s.Schedule {
		it := &s.Schedule[i]
		if it.Date != date {
			continue
		}
		st.Total++
		switch it.Stage {
		case models.StageCompleted:
			st.Completed++
		case models.StagePending:
			st.Pending++
		case models.StageCancelled:
		default:
			st.InProgress++
		}
	}
	return st
}
