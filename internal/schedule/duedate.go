package schedule

import (
	"time"

	"github.com/ezcompliance/comptrack/internal/rules"
)

// NextDue computes the next due date for a rule instance.
//
// Sources are evaluated in strict priority order; the first applicable one
// wins:
//  1. Fixed government deadline: the rule's day/month in the current year
//     relative to now. If that date has already passed, it rolls forward to
//     next year's occurrence immediately - a calendar built mid-cycle never
//     produces a due date in the past.
//  2. OCR-extracted renewal date (post-upload recompute only): extracted
//     date + FrequencyMonths.
//  3. Fallback at initial calendar construction: company CreatedAt +
//     FrequencyMonths.
//
// NextDue is pure: now is an explicit input and identical inputs always
// produce the identical date.
func NextDue(r rules.Rule, c rules.Company, ocrDate *time.Time, now time.Time) time.Time {
	if r.HasFixedDeadline() {
		due := time.Date(now.UTC().Year(), r.FixedDueMonth, r.FixedDueDay, 0, 0, 0, 0, time.UTC)
		if due.Before(dayOf(now)) {
			due = time.Date(now.UTC().Year()+1, r.FixedDueMonth, r.FixedDueDay, 0, 0, 0, 0, time.UTC)
		}
		return due
	}
	if ocrDate != nil {
		return AddMonths(*ocrDate, r.FrequencyMonths)
	}
	return AddMonths(c.CreatedAt, r.FrequencyMonths)
}

// AddMonths advances a date by n calendar months, clamping to the last day
// of the target month when the source day does not exist there
// (Jan 31 + 1 month = Feb 28/29, never Mar 2). This matches statutory
// "monthly/annual" recurrence semantics; time.Time.AddDate would normalize
// overflow days into the following month instead.
func AddMonths(t time.Time, n int) time.Time {
	t = dayOf(t)
	y, m, d := t.Date()

	month := int(m) + n
	y += (month - 1) / 12
	month = (month-1)%12 + 1
	if month < 1 {
		month += 12
		y--
	}

	if last := lastDayOfMonth(y, time.Month(month)); d > last {
		d = last
	}
	return time.Date(y, time.Month(month), d, 0, 0, 0, 0, time.UTC)
}

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
