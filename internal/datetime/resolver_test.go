package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     time.Time
		wantRule string
	}{
		{name: "now", input: "now", want: testNow, wantRule: RuleNow},
		{name: "now uppercase", input: "Right NOW please", want: testNow, wantRule: RuleNow},
		{name: "now beats tomorrow", input: "tomorrow or now", want: testNow, wantRule: RuleNow},
		{name: "in two hours", input: "in 2 hours", want: at(2024, 1, 1, 11, 0), wantRule: RuleInHours},
		{name: "in one hour", input: "In 1 hour", want: at(2024, 1, 1, 10, 0), wantRule: RuleInHours},
		{name: "today at 2pm", input: "today at 2pm", want: at(2024, 1, 1, 14, 0), wantRule: RuleToday},
		{name: "today at 2:30pm", input: "Today at 2:30PM", want: at(2024, 1, 1, 14, 30), wantRule: RuleToday},
		{name: "today at 12am", input: "today at 12am", want: at(2024, 1, 1, 0, 0), wantRule: RuleToday},
		{name: "today at 12pm", input: "today at 12pm", want: at(2024, 1, 1, 12, 0), wantRule: RuleToday},
		{name: "today unparsable", input: "today at teatime", want: testNow, wantRule: RuleToday},
		{name: "today without time", input: "today", want: testNow, wantRule: RuleToday},
		{name: "tomorrow at 2pm", input: "tomorrow at 2pm", want: at(2024, 1, 2, 14, 0), wantRule: RuleTomorrow},
		{name: "tomorrow at 10:15am", input: "tomorrow at 10:15am", want: at(2024, 1, 2, 10, 15), wantRule: RuleTomorrow},
		{name: "bare tomorrow", input: "tomorrow", want: at(2024, 1, 2, 9, 0), wantRule: RuleTomorrow},
		{name: "tomorrow at noon", input: "tomorrow at noon", want: at(2024, 1, 2, 9, 0), wantRule: RuleTomorrow},
		{name: "tomorrow unparsable", input: "tomorrow at lunch", want: at(2024, 1, 2, 9, 0), wantRule: RuleTomorrow},
		{name: "tomorrow 13pm is unparsable", input: "tomorrow at 13pm", want: at(2024, 1, 2, 9, 0), wantRule: RuleTomorrow},
		{name: "iso utc", input: "2024-03-05T10:30:00Z", want: at(2024, 3, 5, 10, 30), wantRule: RuleISO8601},
		{name: "iso naive", input: "2024-03-05T10:30:00", want: at(2024, 3, 5, 10, 30), wantRule: RuleISO8601},
		{name: "iso date", input: "2024-03-05", want: at(2024, 3, 5, 0, 0), wantRule: RuleISO8601},
		{name: "iso with space", input: "2024-03-05 10:30", want: at(2024, 3, 5, 10, 30), wantRule: RuleISO8601},
		{name: "unpadded date", input: "2024-3-5 8:05", want: at(2024, 3, 5, 8, 5), wantRule: RuleAbsolute},
		{name: "us date time", input: "03/05/2024 10:30", want: at(2024, 3, 5, 10, 30), wantRule: RuleAbsolute},
		{name: "us date", input: "3/5/2024", want: at(2024, 3, 5, 0, 0), wantRule: RuleAbsolute},
		{name: "garbage", input: "whenever", want: testNow, wantRule: RuleFallbackNow},
		{name: "empty", input: "", want: testNow, wantRule: RuleFallbackNow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := ResolveRule(tt.input, testNow)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			assert.Equal(t, tt.wantRule, rule)
			assert.True(t, tt.want.Equal(Resolve(tt.input, testNow)))
		})
	}
}

func TestResolve_InHoursFallsThrough(t *testing.T) {
	// "in" and "hour" are present but no integer sits between them.
	got, rule := ResolveRule("in a few hours", testNow)
	assert.Equal(t, testNow, got)
	assert.Equal(t, RuleFallbackNow, rule)
}

func TestResolve_OffsetPreserved(t *testing.T) {
	got := Resolve("2024-03-05T10:30:00+02:00", testNow)
	_, offset := got.Zone()
	assert.Equal(t, 2*60*60, offset)
	assert.True(t, at(2024, 3, 5, 8, 30).Equal(got))
}

func TestResolve_NaiveUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, loc)

	got := Resolve("tomorrow at 2pm", now)
	assert.Equal(t, time.Date(2024, 1, 2, 14, 0, 0, 0, loc), got)

	got = Resolve("2024-03-05 10:30:00", now)
	assert.Equal(t, loc, got.Location())
}

func TestDescribe(t *testing.T) {
	now := time.Date(2024, 1, 1, 14, 5, 9, 0, time.UTC)
	s := Describe(now)

	assert.Equal(t, "2024-01-01T14:05:09Z", s.ISO)
	assert.Equal(t, "2024-01-01", s.Date)
	assert.Equal(t, "14:05:09", s.Time)
	assert.Equal(t, "Monday", s.DayOfWeek)
	assert.Equal(t, "January 01, 2024 at 02:05:09 PM", s.Formatted)
	assert.Equal(t, float64(now.Unix()), s.Timestamp)
	assert.Equal(t, 2024, s.Year)
	assert.Equal(t, 1, s.Month)
	assert.Equal(t, 14, s.Hour)
	assert.Equal(t, 9, s.Second)
}

func TestFixedClock(t *testing.T) {
	assert.Equal(t, testNow, FixedClock(testNow)())
	assert.NotNil(t, SystemClock(nil)())
}
