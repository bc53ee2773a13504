package datetime

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Rule names reported by ResolveRule.
const (
	RuleNow         = "now"
	RuleInHours     = "in_hours"
	RuleToday       = "today"
	RuleTomorrow    = "tomorrow"
	RuleISO8601     = "iso8601"
	RuleAbsolute    = "absolute"
	RuleFallbackNow = "fallback_now"
)

// tomorrowDefaultHour is used when "tomorrow" carries no parseable time.
const tomorrowDefaultHour = 9

// Rule is one entry of the resolution table. Match is tested against the
// lowercased input; Resolve may decline with ok=false, in which case the next
// rule is tried.
type Rule struct {
	Name    string
	Match   func(lower string) bool
	Resolve func(text, lower string, now time.Time) (time.Time, bool)
}

// Rules is the ordered resolution table. The first rule that matches and
// resolves wins.
var Rules = []Rule{
	{
		Name:  RuleNow,
		Match: func(lower string) bool { return strings.Contains(lower, "now") },
		Resolve: func(_, _ string, now time.Time) (time.Time, bool) {
			return now, true
		},
	},
	{
		Name: RuleInHours,
		Match: func(lower string) bool {
			return strings.Contains(lower, "in") && strings.Contains(lower, "hour")
		},
		Resolve: resolveInHours,
	},
	{
		Name:  RuleToday,
		Match: func(lower string) bool { return strings.Contains(lower, "today") },
		Resolve: func(_, lower string, now time.Time) (time.Time, bool) {
			if t, ok := timeOfDayOn(lower, now); ok {
				return t, true
			}
			return now, true
		},
	},
	{
		Name:  RuleTomorrow,
		Match: func(lower string) bool { return strings.Contains(lower, "tomorrow") },
		Resolve: func(_, lower string, now time.Time) (time.Time, bool) {
			tomorrow := now.AddDate(0, 0, 1)
			if t, ok := timeOfDayOn(lower, tomorrow); ok {
				return t, true
			}
			y, m, d := tomorrow.Date()
			return time.Date(y, m, d, tomorrowDefaultHour, 0, 0, 0, now.Location()), true
		},
	},
	{
		Name:    RuleISO8601,
		Match:   func(string) bool { return true },
		Resolve: resolveISO,
	},
	{
		Name:    RuleAbsolute,
		Match:   func(string) bool { return true },
		Resolve: resolveAbsolute,
	},
}

// Resolve maps a natural-language or ISO-like string to an absolute time.
// It never fails: input no rule understands resolves to now.
func Resolve(text string, now time.Time) time.Time {
	t, _ := ResolveRule(text, now)
	return t
}

// ResolveRule is Resolve that also reports which rule produced the value.
func ResolveRule(text string, now time.Time) (time.Time, string) {
	lower := strings.ToLower(text)
	for _, rule := range Rules {
		if !rule.Match(lower) {
			continue
		}
		if t, ok := rule.Resolve(text, lower, now); ok {
			return t, rule.Name
		}
	}
	return now, RuleFallbackNow
}

// resolveInHours handles "in N hours". The count is the text between the
// first "in" and the following "hour", cut at any second "in".
func resolveInHours(_, lower string, now time.Time) (time.Time, bool) {
	_, after, ok := strings.Cut(lower, "in")
	if !ok {
		return time.Time{}, false
	}
	if i := strings.Index(after, "in"); i >= 0 {
		after = after[:i]
	}
	if i := strings.Index(after, "hour"); i >= 0 {
		after = after[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(after))
	if err != nil {
		return time.Time{}, false
	}
	return now.Add(time.Duration(n) * time.Hour), true
}

var (
	hourOnly   = regexp.MustCompile(`^(1[0-2]|0[1-9]|[1-9])(am|pm)$`)
	hourMinute = regexp.MustCompile(`^(1[0-2]|0[1-9]|[1-9]):([0-5]\d|\d)(am|pm)$`)
)

// timeOfDayOn parses the 12-hour clock time after the last "at" in lower
// ("2pm" or "2:30pm") and places it on day's date.
func timeOfDayOn(lower string, day time.Time) (time.Time, bool) {
	part := lower
	if i := strings.LastIndex(lower, "at"); i >= 0 {
		part = lower[i+len("at"):]
	}
	part = strings.TrimSpace(part)

	var hour, minute int
	var meridiem string
	if m := hourOnly.FindStringSubmatch(part); m != nil {
		hour, _ = strconv.Atoi(m[1])
		meridiem = m[2]
	} else if m := hourMinute.FindStringSubmatch(part); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		meridiem = m[3]
	} else {
		return time.Time{}, false
	}

	hour %= 12
	if meridiem == "pm" {
		hour += 12
	}

	y, mo, d := day.Date()
	return time.Date(y, mo, d, hour, minute, 0, 0, day.Location()), true
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04Z07:00",
}

var isoNaiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15",
	"2006-01-02",
}

func resolveISO(text, _ string, now time.Time) (time.Time, bool) {
	return ParseISO(text, now.Location())
}

// ParseISO parses an ISO-8601 timestamp, accepting "Z" as UTC. Timestamps
// without an offset are read in loc.
func ParseISO(text string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.ReplaceAll(text, "Z", "+00:00")
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range isoNaiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// absoluteLayouts accept single-digit fields the way the common
// "%Y-%m-%d %H:%M" style formats do.
var absoluteLayouts = []string{
	"2006-1-2T15:4:5",
	"2006-1-2 15:4:5",
	"2006-1-2 15:4",
	"2006-1-2",
	"1/2/2006 15:4",
	"1/2/2006",
}

func resolveAbsolute(text, _ string, now time.Time) (time.Time, bool) {
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, text, now.Location()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
