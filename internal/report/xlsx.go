// Package report renders hangar summaries as XLSX workbooks.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/leogoca00/hangar-sprc/internal/models"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names.
const (
	SheetSummary      = "Summary"
	SheetAvailability = "Availability"
	SheetSystems      = "Systems"
	SheetContractors  = "Contractors"
	SheetTimeline     = "Timeline"
	SheetNotes        = "Notes"
)

// Daily is the content of the end-of-day report.
type Daily struct {
	Date      string
	Dashboard hangar.DashboardStats
	Timeline  []hangar.TimelineEntry
	Notes     []models.ShiftNote
}

// BuildDaily collects the daily report for date from a snapshot.
func BuildDaily(s *hangar.State, date string, now time.Time) Daily {
	return Daily{
		Date:      date,
		Dashboard: hangar.Dashboard(s, date),
		Timeline:  hangar.Timeline(s, date, now),
		Notes:     hangar.NotesForDate(s, date),
	}
}

// sheet appends rows to one worksheet and keeps the first error.
type sheet struct {
	f    *excelize.File
	name string
	row  int
	err  error
}

func (s *sheet) append(values ...interface{}) {
	if s.err != nil {
		return
	}
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetSheetRow(s.name, cell, &values)
}

type workbook struct {
	f      *excelize.File
	header int
	sheets []*sheet
}

func newWorkbook(first string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	wb := &workbook{f: f, header: header}
	wb.sheets = append(wb.sheets, &sheet{f: f, name: first})
	return wb, nil
}

// table starts a sheet with a bold header row.
func (wb *workbook) table(name string, headers ...interface{}) *sheet {
	var s *sheet
	for _, existing := range wb.sheets {
		if existing.name == name {
			s = existing
		}
	}
	if s == nil {
		s = &sheet{f: wb.f, name: name}
		if _, err := wb.f.NewSheet(name); err != nil {
			s.err = err
			return s
		}
		wb.sheets = append(wb.sheets, s)
	}
	s.append(headers...)
	if s.err == nil {
		end, _ := excelize.CoordinatesToCellName(len(headers), s.row)
		start, _ := excelize.CoordinatesToCellName(1, s.row)
		s.err = wb.f.SetCellStyle(name, start, end, wb.header)
	}
	return s
}

func (wb *workbook) finish() error {
	for _, s := range wb.sheets {
		if s.err != nil {
			return fmt.Errorf("sheet %s: %w", s.name, s.err)
		}
		if err := wb.f.SetColWidth(s.name, "A", "J", 16); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) close() {
	if err := wb.f.Close(); err != nil {
		log.WithError(err).Warn("Failed to close workbook")
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (wb *workbook) weekly(sum hangar.WeeklySummary) {
	s := wb.table(SheetSummary, "Metric", "Value")
	s.append("From", sum.From)
	s.append("To", sum.To)
	s.append("Preventive jobs", sum.TotalPreventive)
	s.append("Corrective jobs", sum.TotalCorrective)
	s.append("Avg preventive hours", sum.AvgPreventiveHours)
	s.append("Avg corrective hours", sum.AvgCorrectiveHours)
	s.append("Avg availability %", sum.AvgAvailability)

	a := wb.table(SheetAvailability, "Date", "Total", "Operative", "In maintenance", "Availability %")
	for _, d := range sum.Days {
		a.append(d.Date, d.Availability.Total, d.Availability.Operative, d.Availability.InMaintenance, d.Availability.Percentage)
	}

	sys := wb.table(SheetSystems, "System", "Jobs")
	for _, k := range sortedKeys(sum.JobsBySystem) {
		sys.append(k, sum.JobsBySystem[k])
	}

	con := wb.table(SheetContractors, "Contractor", "Jobs")
	for _, k := range sortedKeys(sum.JobsByContractor) {
		con.append(k, sum.JobsByContractor[k])
	}
}

// WriteWeekly writes the weekly summary workbook to w.
func WriteWeekly(w io.Writer, sum hangar.WeeklySummary) error {
	wb, err := newWorkbook(SheetSummary)
	if err != nil {
		return err
	}
	defer wb.close()
	wb.weekly(sum)
	if err := wb.finish(); err != nil {
		return err
	}
	return wb.f.Write(w)
}

func locationLabel(l models.Location) string {
	switch l.Kind {
	case models.LocationBay:
		return fmt.Sprintf("Bay %d", l.Bay)
	case models.LocationOutOfBay:
		return l.Spot
	case models.LocationDepartment:
		return string(l.Department)
	}
	return string(l.Kind)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (wb *workbook) daily(d Daily) {
	s := wb.table(SheetSummary, "Metric", "Value")
	s.append("Date", d.Date)
	s.append("Fleet", d.Dashboard.Availability.Total)
	s.append("Operative", d.Dashboard.Availability.Operative)
	s.append("In maintenance", d.Dashboard.Availability.InMaintenance)
	s.append("Availability %", d.Dashboard.Availability.Percentage)
	s.append("Active preventive", d.Dashboard.Preventive)
	s.append("Active corrective", d.Dashboard.Corrective)
	s.append("Awaiting parts", d.Dashboard.AwaitingParts)
	s.append("Completed", d.Dashboard.CompletedToday)

	t := wb.table(SheetTimeline, "Vehicle", "Entry", "Category", "Location", "Status", "Progress %", "Estimated h", "Elapsed h", "Delayed", "Exit")
	for _, e := range d.Timeline {
		t.append(e.VehicleCode, e.Job.EntryTime, string(e.Job.Work.Category), locationLabel(e.Job.Location),
			string(e.Job.Status), e.Job.Progress, e.Job.EstimatedHours, e.ElapsedHours, yesNo(e.Delayed), e.Job.ExitTime)
	}

	n := wb.table(SheetNotes, "Shift", "Priority", "Author", "Note", "Read")
	for _, note := range d.Notes {
		n.append(string(note.Shift), string(note.Priority), note.Author, note.Body, yesNo(note.Read))
	}
}

// WriteDaily writes the daily report workbook to w.
func WriteDaily(w io.Writer, d Daily) error {
	wb, err := newWorkbook(SheetSummary)
	if err != nil {
		return err
	}
	defer wb.close()
	wb.daily(d)
	if err := wb.finish(); err != nil {
		return err
	}
	return wb.f.Write(w)
}

// SaveDaily stores the daily report as hangar-<date>.xlsx under dir.
func SaveDaily(dir string, d Daily) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	wb, err := newWorkbook(SheetSummary)
	if err != nil {
		return "", err
	}
	defer wb.close()
	wb.daily(d)
	if err := wb.finish(); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "hangar-"+d.Date+".xlsx")
	if err := wb.f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
