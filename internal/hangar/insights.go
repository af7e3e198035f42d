package hangar

import (
	"math"
	"sort"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/models"
)

// OverdueFactor marks a job as overdue once it runs this many times its estimate.
const OverdueFactor = 1.5

// DashboardStats is the summary shown above the hangar floor plan.
type DashboardStats struct {
	Availability   Availability `json:"availability"`
	Preventive     int          `json:"preventive"`
	Corrective     int          `json:"corrective"`
	AwaitingParts  int          `json:"awaiting_parts"`
	CompletedToday int          `json:"completed_today"`
	OccupiedBays   []int        `json:"occupied_bays"`
}

// Dashboard computes the dashboard counters for today.
func Dashboard(s *State, today string) DashboardStats {
	st := DashboardStats{
		Availability: AvailabilityOf(s, today),
		OccupiedBays: OccupiedBays(s, today),
	}
	for _, j := range ActiveJobs(s, today, JobFilter{}) {
		switch j.Work.Category {
		case models.CategoryPreventive:
			st.Preventive++
		case models.CategoryCorrective:
			st.Corrective++
		}
		if j.Status == models.StatusAwaitingParts {
			st.AwaitingParts++
		}
	}
	for i := range s.Jobs {
		if s.Jobs[i].Status == models.StatusCompleted && s.Jobs[i].ExitDate == today {
			st.CompletedToday++
		}
	}
	return st
}

// TimelineEntry is a job placed on the day timeline.
type TimelineEntry struct {
	Job          models.Job `json:"job"`
	VehicleCode  string     `json:"vehicle_code,omitempty"`
	ElapsedHours int        `json:"elapsed_hours"`
	Delayed      bool       `json:"delayed"`
	Overdue      bool       `json:"overdue"`
}

// elapsedHours returns the whole hours between a job's entry and now.
func elapsedHours(j *models.Job, now time.Time) int {
	start, err := entryInstant(j.EntryDate, j.EntryTime, now.Location())
	if err != nil {
		return 0
	}
	return int(math.Floor(now.Sub(start).Hours()))
}

func timelineEntry(s *State, j *models.Job, now time.Time) TimelineEntry {
	e := TimelineEntry{Job: cloneJob(*j), ElapsedHours: elapsedHours(j, now)}
	if v, ok := s.Vehicle(j.VehicleID); ok {
		e.VehicleCode = v.Code
	}
	if j.IsOpen() {
		e.Delayed = float64(e.ElapsedHours) > j.EstimatedHours
		e.Overdue = float64(e.ElapsedHours) > j.EstimatedHours*OverdueFactor
	}
	return e
}

// Timeline returns every job entered on date sorted by entry time.
func Timeline(s *State, date string, now time.Time) []TimelineEntry {
	out := []TimelineEntry{}
	for i := range s.Jobs {
		if s.Jobs[i].EntryDate == date {
			out = append(out, timelineEntry(s, &s.Jobs[i], now))
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Job.EntryTime < out[b].Job.EntryTime
	})
	return out
}

// DelayedJobs returns every open job, whatever its entry date, that has run
// longer than its estimate.
func DelayedJobs(s *State, now time.Time) []TimelineEntry {
	out := []TimelineEntry{}
	for i := range s.Jobs {
		if !s.Jobs[i].IsOpen() {
			continue
		}
		if e := timelineEntry(s, &s.Jobs[i], now); e.Delayed {
			out = append(out, e)
		}
	}
	return out
}

// WeeklySummary aggregates the jobs entered during a seven-day window.
type WeeklySummary struct {
	From               string            `json:"from"`
	To                 string            `json:"to"`
	TotalPreventive    int               `json:"total_preventive"`
	TotalCorrective    int               `json:"total_corrective"`
	AvgPreventiveHours float64           `json:"avg_preventive_hours"`
	AvgCorrectiveHours float64           `json:"avg_corrective_hours"`
	AvgAvailability    float64           `json:"avg_availability"`
	JobsBySystem       map[string]int    `json:"jobs_by_system"`
	JobsByContractor   map[string]int    `json:"jobs_by_contractor"`
	Days               []DayAvailability `json:"days"`
}

// DayAvailability is the availability of one day of the summary window.
type DayAvailability struct {
	Date         string       `json:"date"`
	Availability Availability `json:"availability"`
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// closedHours returns the hours between entry and exit of a completed job.
func closedHours(j *models.Job, loc *time.Location) (float64, bool) {
	if j.IsOpen() || j.ExitDate == "" || j.ExitTime == "" {
		return 0, false
	}
	start, err := entryInstant(j.EntryDate, j.EntryTime, loc)
	if err != nil {
		return 0, false
	}
	end, err := entryInstant(j.ExitDate, j.ExitTime, loc)
	if err != nil || end.Before(start) {
		return 0, false
	}
	return end.Sub(start).Hours(), true
}

// Weekly summarizes the seven days ending on end. A vehicle counts as in
// maintenance on a past day when any job for it was entered that day.
func Weekly(s *State, end string, loc *time.Location) (WeeklySummary, error) {
	last, err := time.Parse(DateLayout, end)
	if err != nil {
		return WeeklySummary{}, &ValidationError{Fields: map[string]string{"end": "must be a YYYY-MM-DD date"}}
	}
	from := last.AddDate(0, 0, -6).Format(DateLayout)
	sum := WeeklySummary{
		From:             from,
		To:               end,
		JobsBySystem:     map[string]int{},
		JobsByContractor: map[string]int{},
	}

	var prevHours, corrHours float64
	var prevClosed, corrClosed int
	perDay := map[string]map[string]bool{}
	for i := range s.Jobs {
		j := &s.Jobs[i]
		if j.EntryDate < from || j.EntryDate > end {
			continue
		}
		if perDay[j.EntryDate] == nil {
			perDay[j.EntryDate] = map[string]bool{}
		}
		if _, ok := s.Vehicle(j.VehicleID); ok {
			perDay[j.EntryDate][j.VehicleID.Hex()] = true
		}

		h, closed := closedHours(j, loc)
		switch j.Work.Category {
		case models.CategoryPreventive:
			sum.TotalPreventive++
			if closed {
				prevHours += h
				prevClosed++
			}
		case models.CategoryCorrective:
			sum.TotalCorrective++
			if closed {
				corrHours += h
				corrClosed++
			}
			if j.Work.System != "" {
				sum.JobsBySystem[string(j.Work.System)]++
			}
		}
		if j.Assignment.Mode == models.AssignContractor && j.Assignment.ContractorID != nil {
			name := j.Assignment.ContractorID.Hex()
			if c, ok := s.Contractor(*j.Assignment.ContractorID); ok {
				name = c.Name
			}
			sum.JobsByContractor[name]++
		}
	}
	if prevClosed > 0 {
		sum.AvgPreventiveHours = round1(prevHours / float64(prevClosed))
	}
	if corrClosed > 0 {
		sum.AvgCorrectiveHours = round1(corrHours / float64(corrClosed))
	}

	var pct float64
	for d := 0; d < 7; d++ {
		date := last.AddDate(0, 0, d-6).Format(DateLayout)
		a := availability(len(s.Vehicles), len(perDay[date]))
		sum.Days = append(sum.Days, DayAvailability{Date: date, Availability: a})
		pct += a.Percentage
	}
	sum.AvgAvailability = round1(pct / 7)
	return sum, nil
}
