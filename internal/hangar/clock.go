package hangar

import "time"

// Layouts of the date and time strings stored on records.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Clock supplies the current local time. All "today" semantics depend on it.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Loc *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Loc == nil {
		return time.Now()
	}
	return time.Now().In(c.Loc)
}

// FixedClock always returns the same instant. Set advances it.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

func (c *FixedClock) Set(t time.Time) { c.T = t }

// DateOf formats t as a calendar date.
func DateOf(t time.Time) string { return t.Format(DateLayout) }

// TimeOf formats t as an HH:MM time of day.
func TimeOf(t time.Time) string { return t.Format(TimeLayout) }

// NextDay adds one calendar day to a YYYY-MM-DD date.
func NextDay(date string) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, 1).Format(DateLayout), nil
}

// entryInstant combines a record's date and time strings in loc.
func entryInstant(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
}
