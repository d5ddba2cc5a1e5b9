package schedule

import "time"

// Status is the stored lifecycle state of a calendar entry.
//
// PENDING is the initial state. Verification moves an entry to COMPLETED,
// OVERDUE-PASS, or FAILED; re-upload or redo may move it again - there is no
// terminal state. OVERDUE is deliberately absent: it is a read-time
// projection (see EffectiveStatus), never a stored transition target.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusCompleted   Status = "COMPLETED"
	StatusOverduePass Status = "OVERDUE-PASS"
	StatusFailed      Status = "FAILED"

	// StatusOverdue only ever appears as the result of EffectiveStatus.
	StatusOverdue Status = "OVERDUE"
)

// ValidStored reports whether s is a state the store may persist.
func ValidStored(s Status) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusOverduePass, StatusFailed:
		return true
	}
	return false
}

// EffectiveStatus projects the presented status of an entry at the given
// time. Any entry except a FAILED one whose due date has elapsed without a
// newer accepted submission presents as OVERDUE. A COMPLETED or
// OVERDUE-PASS entry whose due date (already advanced to the next cycle)
// is still in the future keeps its stored status.
//
// The comparison is at day granularity: an entry due today is not yet
// overdue.
func EffectiveStatus(e Entry, now time.Time) Status {
	if e.Status == StatusFailed {
		return StatusFailed
	}
	if dayOf(e.DueDate).Before(dayOf(now)) {
		return StatusOverdue
	}
	return e.Status
}

// dayOf truncates a timestamp to its calendar day in UTC.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
