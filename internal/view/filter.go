package view

import (
	"strings"
	"time"

	"attendanceportal/internal/attendance"
)

// dateLayouts are tried in order when interpreting record dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// ParseDay extracts the calendar day from raw, dropping time-of-day and
// zone. The zero time is returned when raw matches no known layout.
func ParseDay(raw string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}

// SameDay reports whether raw falls on day (calendar comparison only).
func SameDay(raw string, day time.Time) bool {
	d := ParseDay(raw)
	if d.IsZero() {
		return false
	}
	return d.Year() == day.Year() && d.Month() == day.Month() && d.Day() == day.Day()
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// RecordFilter selects admin attendance rows. Zero fields match everything.
type RecordFilter struct {
	Query string
	Day   time.Time
}

// Match applies the text filter (name or roll number) AND the day filter.
func (f RecordFilter) Match(r attendance.Record) bool {
	if f.Query != "" && !containsFold(r.StudentName, f.Query) && !containsFold(r.StudentRollNo, f.Query) {
		return false
	}
	if !f.Day.IsZero() && !SameDay(r.Date, f.Day) {
		return false
	}
	return true
}

// Apply returns the rows matching the filter, preserving input order.
func (f RecordFilter) Apply(records []attendance.Record) []attendance.Record {
	out := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// HolidayFilter selects holidays by description text and calendar day.
type HolidayFilter struct {
	Query string
	Day   time.Time
}

// Match applies the text filter (description) AND the day filter.
func (f HolidayFilter) Match(h attendance.Holiday) bool {
	if f.Query != "" && !containsFold(h.Description, f.Query) {
		return false
	}
	if !f.Day.IsZero() && !SameDay(h.Date, f.Day) {
		return false
	}
	return true
}

// Apply returns the holidays matching the filter, preserving input order.
func (f HolidayFilter) Apply(holidays []attendance.Holiday) []attendance.Holiday {
	out := make([]attendance.Holiday, 0, len(holidays))
	for _, h := range holidays {
		if f.Match(h) {
			out = append(out, h)
		}
	}
	return out
}
