package records

import (
	"errors"
	"time"
)

// Status represents the status for attendance records.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half-day"
)

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay:
		return true
	default:
		return false
	}
}

// Record is one attendance entry, at most one per user per calendar day.
type Record struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	OccurredOn time.Time `json:"occurred_on"`
	Status     Status    `json:"status"`
	TotalHours *float64  `json:"total_hours,omitempty"`
	CreatedBy  *string   `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DayStatusCount is one (calendar day, status) group from the store.
type DayStatusCount struct {
	Day    time.Time
	Status Status
	Count  int
}

// Summary aggregates a user's records over a window. Zero-valued when
// nothing matches; an empty window is not an error.
type Summary struct {
	Total      int     `json:"total"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Late       int     `json:"late"`
	HalfDay    int     `json:"half_day"`
	TotalHours float64 `json:"total_hours"`
	AvgHours   float64 `json:"avg_hours"`
}

var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("attendance record not found")

	// ErrDuplicateDay means the user already has a record for that day.
	ErrDuplicateDay = errors.New("attendance already recorded for that day")
)
