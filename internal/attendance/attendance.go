package attendance

import (
	"math"
	"strings"
)

// Status enumerates the two attendance outcomes.
type Status string

const (
	Present Status = "Present"
	Absent  Status = "Absent"
)

// ParseStatus normalizes a raw status string. Anything that is not
// "present" (case-insensitive) counts as Absent.
func ParseStatus(raw string) Status {
	if strings.EqualFold(strings.TrimSpace(raw), string(Present)) {
		return Present
	}
	return Absent
}

// Entry is one attendance record for one student.
type Entry struct {
	Date    string `json:"date"`
	Status  Status `json:"status"`
	Remarks string `json:"remarks,omitempty"`
}

// Record is an admin-side row carrying the student it belongs to.
type Record struct {
	Date          string `json:"date"`
	Status        Status `json:"status"`
	StudentName   string `json:"student_name"`
	StudentRollNo string `json:"student_rollno"`
}

// Holiday is an administrator-defined excluded date.
type Holiday struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// PaymentStatus is the backend's fine-payment verdict for a student.
type PaymentStatus struct {
	NeedsToPayFine bool     `json:"needs_to_pay_fine"`
	FineAmount     *float64 `json:"fine_amount,omitempty"`
	PaymentStatus  string   `json:"payment_status,omitempty"`
}

// FineSummary is the roll-number fine lookup result.
type FineSummary struct {
	RollNo      string  `json:"roll_no"`
	TotalDays   int     `json:"total_days"`
	PresentDays int     `json:"present_days"`
	Percentage  int     `json:"percentage"`
	Fine        float64 `json:"fine"`
}

// Profile is the optional student profile attached to attendance fetches.
type Profile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	RollNo    string `json:"roll_no"`
	StudentID string `json:"student_id"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// Normalize rewrites statuses in place to the canonical enum values.
// Backend payloads are case-insensitive on status.
func Normalize(entries []Entry) {
	for i := range entries {
		entries[i].Status = ParseStatus(string(entries[i].Status))
	}
}

// NormalizeRecords is Normalize for admin rows.
func NormalizeRecords(records []Record) {
	for i := range records {
		records[i].Status = ParseStatus(string(records[i].Status))
	}
}

// FineThreshold is the minimum attendance percentage below which a fine applies.
const FineThreshold = 75

// PresentCount counts entries marked Present.
func PresentCount(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if e.Status == Present {
			n++
		}
	}
	return n
}

// AbsentCount counts entries not marked Present.
func AbsentCount(entries []Entry) int {
	return len(entries) - PresentCount(entries)
}

// Percentage returns round(present/total*100), 0 for an empty slice.
func Percentage(entries []Entry) int {
	if len(entries) == 0 {
		return 0
	}
	return int(math.Round(float64(PresentCount(entries)) / float64(len(entries)) * 100))
}

// NeedsFine reports whether pct is below the fine threshold.
func NeedsFine(pct int) bool {
	return pct < FineThreshold
}

// Summary bundles the derived statistics for one entry set.
type Summary struct {
	Total      int  `json:"total"`
	Present    int  `json:"present"`
	Absent     int  `json:"absent"`
	Percentage int  `json:"percentage"`
	NeedsFine  bool `json:"needs_fine"`
}

// Summarize derives a Summary. Order of entries is irrelevant.
func Summarize(entries []Entry) Summary {
	present := PresentCount(entries)
	pct := Percentage(entries)
	return Summary{
		Total:      len(entries),
		Present:    present,
		Absent:     len(entries) - present,
		Percentage: pct,
		NeedsFine:  NeedsFine(pct),
	}
}
