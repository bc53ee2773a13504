package datetime

import "time"

// ISOLayout is the timestamp format used in booking payloads and results.
const ISOLayout = "2006-01-02T15:04:05Z07:00"

// Snapshot is the structured view of a moment returned by the current
// date/time tool.
type Snapshot struct {
	ISO       string  `json:"iso"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	DayOfWeek string  `json:"day_of_week"`
	Formatted string  `json:"formatted"`
	Timestamp float64 `json:"timestamp"`
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Day       int     `json:"day"`
	Hour      int     `json:"hour"`
	Minute    int     `json:"minute"`
	Second    int     `json:"second"`
}

// Describe returns the Snapshot for now.
func Describe(now time.Time) Snapshot {
	return Snapshot{
		ISO:       now.Format(ISOLayout),
		Date:      now.Format("2006-01-02"),
		Time:      now.Format("15:04:05"),
		DayOfWeek: now.Weekday().String(),
		Formatted: now.Format("January 02, 2006 at 03:04:05 PM"),
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
		Year:      now.Year(),
		Month:     int(now.Month()),
		Day:       now.Day(),
		Hour:      now.Hour(),
		Minute:    now.Minute(),
		Second:    now.Second(),
	}
}

// Clock returns the current time. Tests replace it with a fixed clock.
type Clock func() time.Time

// SystemClock returns a Clock reading the wall clock in loc.
// A nil loc means time.Local.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time {
		return t
	}
}
