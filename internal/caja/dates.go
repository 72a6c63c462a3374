package caja

import (
	"fmt"
	"strings"
	"time"
)

// ParseDueDate parses a due date in either "YYYY-MM-DD" or "DD-MM-YYYY" form,
// as the billing backend emits both.
func ParseDueDate(s string) (time.Time, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid due date %q", s)
	}

	layout := "02-01-2006"
	if len(parts[0]) == 4 {
		layout = "2006-01-02"
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: %w", s, err)
	}
	return t, nil
}

// Midnight truncates t to the start of its day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsOverdue reports whether the due date falls strictly before the reference
// day. An unparseable date is never overdue.
func IsOverdue(dueDate string, ref time.Time) bool {
	due, err := ParseDueDate(dueDate)
	if err != nil {
		return false
	}
	ref = Midnight(ref)
	due = time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, ref.Location())
	return due.Before(ref)
}
