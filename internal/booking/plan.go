package booking

import (
	"strconv"
	"strings"
	"time"

	"github.com/teemow/roombook/internal/datetime"
)

const (
	// DefaultSubject is used when the caller gives none.
	DefaultSubject = "Ad-hoc Meeting"

	// DefaultDuration is the meeting length when no end is given, and the
	// length an inverted range is corrected to.
	DefaultDuration = 60 * time.Minute

	adjustmentNote = "End time was before start time, adjusted to 1 hour duration"
)

// Input is a booking request as the caller phrased it.
type Input struct {
	RoomID    string
	Subject   string
	StartTime string
	EndTime   string
	Attendees []string
}

// Plan is a booking with its times resolved.
type Plan struct {
	Start    time.Time
	End      time.Time
	Adjusted bool
}

// Duration is the whole number of minutes between start and end.
func (p Plan) Duration() int {
	return int(p.End.Sub(p.Start) / time.Minute)
}

// Resolve turns the caller's start and end text into absolute times. An
// empty start or "now" means now. An end made of digits only is a duration in
// minutes, any other non-empty end goes through the resolver, and an empty
// end means one hour. An end that is not after the start is moved to one hour
// after it and the plan is marked Adjusted.
func Resolve(startText, endText string, now time.Time) Plan {
	var p Plan

	if startText == "" || strings.EqualFold(startText, "now") {
		p.Start = now
	} else {
		p.Start = datetime.Resolve(startText, now)
	}

	switch {
	case isDigits(endText):
		minutes, err := strconv.Atoi(endText)
		if err != nil {
			p.End = datetime.Resolve(endText, now)
			break
		}
		p.End = p.Start.Add(time.Duration(minutes) * time.Minute)
	case endText != "":
		p.End = datetime.Resolve(endText, now)
	default:
		p.End = p.Start.Add(DefaultDuration)
	}

	if !p.End.After(p.Start) {
		p.End = p.Start.Add(DefaultDuration)
		p.Adjusted = true
	}
	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
