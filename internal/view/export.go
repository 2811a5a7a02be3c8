package view

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"attendanceportal/internal/attendance"
)

// DisplayDate renders a record date as MM/DD/YYYY for spreadsheets,
// falling back to the raw string when the date cannot be parsed.
func DisplayDate(raw string) string {
	d := ParseDay(raw)
	if d.IsZero() {
		return raw
	}
	return d.Format("01/02/2006")
}

// ExportFilename names a download with the entity prefix and today's date,
// e.g. "attendance_2026-08-29.csv".
func ExportFilename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("2006-01-02"))
}

// RecordsCSV serializes the given (already filtered) rows. Fields
// containing commas or quotes are quoted with internal quotes doubled.
func RecordsCSV(records []attendance.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Date", "Status", "Student Name", "Roll Number"}); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := w.Write([]string{DisplayDate(r.Date), string(r.Status), r.StudentName, r.StudentRollNo}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HolidaysCSV serializes the given (already filtered) holidays.
func HolidaysCSV(holidays []attendance.Holiday) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Date", "Description"}); err != nil {
		return nil, err
	}
	for _, h := range holidays {
		if err := w.Write([]string{DisplayDate(h.Date), h.Description}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
