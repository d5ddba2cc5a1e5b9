package verify

import (
	"fmt"
	"strings"
	"time"

	"github.com/ezcompliance/comptrack/internal/rules"
	"github.com/ezcompliance/comptrack/internal/schedule"
)

// Submission is the already-resolved output of the external OCR collaborator
// for one uploaded document version.
type Submission struct {
	// OCRText is the raw extracted text the keyword policy runs against.
	OCRText string

	// ExtractedDate is the renewal/issue date the OCR collaborator
	// detected, if any. Nil when no date could be parsed.
	ExtractedDate *time.Time

	// UploadedAt is when the document version was received.
	UploadedAt time.Time
}

// ManualCompletion is the input for the no-document completion path.
type ManualCompletion struct {
	// IssueDate is the caller-declared date the obligation was fulfilled.
	IssueDate time.Time

	// CustomExpiry, when set, overrides the frequency-derived next due
	// date.
	CustomExpiry *time.Time

	// Permanent suppresses the next cycle entirely - a one-time
	// obligation with no future due date.
	Permanent bool
}

// Verify runs the upload transition for a calendar entry and returns the
// updated entry.
//
// Transition algorithm:
//  1. Check the required-keyword policy against the OCR text. Any missing
//     keyword fails the submission: status FAILED, the missing list stored
//     in the note, due date untouched, no next cycle projected.
//  2. Keywords present: the implied issue date is the extracted date, or
//     the upload time when extraction found none. Issue on or before the
//     entry's current due date grades COMPLETED; after it, OVERDUE-PASS
//     (late but valid - distinct from FAILED).
//  3. On a passing grade the next cycle date comes from the due-date
//     cascade (a fixed government deadline still beats the extracted
//     date), and the entry's due date advances to it: the entry now
//     represents the next obligation.
//
// Verify never mutates its input and performs no I/O; persisting the
// returned entry and the document version is the caller's job.
func Verify(entry schedule.Entry, r rules.Rule, c rules.Company, policy KeywordPolicy, sub Submission) schedule.Entry {
	if missing := policy.Missing(sub.OCRText); len(missing) > 0 {
		entry.Status = schedule.StatusFailed
		entry.OCRVerified = false
		entry.VerifiedAt = sub.UploadedAt
		entry.Note = failureNote(missing)
		return entry
	}

	issue := sub.UploadedAt
	if sub.ExtractedDate != nil {
		issue = *sub.ExtractedDate
	}

	next := schedule.NextDue(r, c, &issue, sub.UploadedAt)

	entry.Status = grade(issue, entry.DueDate)
	entry.OCRVerified = true
	entry.VerifiedAt = sub.UploadedAt
	entry.Note = ""
	entry.NextDueDate = next
	entry.DueDate = next
	return entry
}

// CompleteManual runs the manual completion transition for rules where no
// document is required (or an administrator marks the obligation done).
//
// The grade follows the same targets as Verify - issue date on or before
// the due date is COMPLETED, after it OVERDUE-PASS - but skips OCR
// entirely. The next due date is the custom expiry when given, otherwise
// FrequencyMonths from the issue date; permanent completions project no
// next cycle and leave the due date in place.
func CompleteManual(entry schedule.Entry, r rules.Rule, m ManualCompletion, now time.Time) schedule.Entry {
	entry.Status = grade(m.IssueDate, entry.DueDate)
	entry.OCRVerified = false
	entry.VerifiedAt = now
	entry.Note = ""

	if m.Permanent {
		entry.NextDueDate = time.Time{}
		return entry
	}

	next := schedule.AddMonths(m.IssueDate, r.FrequencyMonths)
	if m.CustomExpiry != nil {
		next = *m.CustomExpiry
	}
	entry.NextDueDate = next
	entry.DueDate = next
	return entry
}

// grade maps an issue date against a due date to the stored status. Day
// granularity: issued on the due date itself still counts as on time.
func grade(issue, due time.Time) schedule.Status {
	iy, im, id := issue.UTC().Date()
	issueDay := time.Date(iy, im, id, 0, 0, 0, 0, time.UTC)
	dy, dm, dd := due.UTC().Date()
	dueDay := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)

	if issueDay.After(dueDay) {
		return schedule.StatusOverduePass
	}
	return schedule.StatusCompleted
}

// failureNote formats the missing-keyword list surfaced to the user so they
// can correct the document and re-upload.
func failureNote(missing []string) string {
	return fmt.Sprintf("missing required keywords: %s", strings.Join(missing, ", "))
}
