package schedule

import (
	"time"

	"github.com/ezcompliance/comptrack/internal/rules"
)

// Entry is one row of a company's compliance calendar: a single obligation
// instance for a (company, rule, branch state) triple.
//
// BranchState is empty for Company-scope entries and one of the company's
// effective states for Branch-scope entries. Exactly one entry exists per
// triple - the store's uniqueness constraint backstops this.
type Entry struct {
	ID        int64
	CompanyID int64
	RuleID    int64

	// BranchState is empty for Company-scope rules.
	BranchState string

	DueDate time.Time
	Status  Status

	// NextDueDate is set once an obligation completes and projects the
	// following cycle. Zero until then, and permanently zero for
	// "permanent" completions that have no future cycle.
	NextDueDate time.Time

	// OCRVerified records whether the current status came from a
	// verified document rather than a manual completion.
	OCRVerified bool

	VerifiedAt time.Time

	// Note carries the verification outcome detail - for FAILED entries,
	// the list of missing required keywords.
	Note string
}

// HasNextDue reports whether a next cycle has been projected.
func (e Entry) HasNextDue() bool {
	return !e.NextDueDate.IsZero()
}

// Build materializes the initial calendar entries for a company from its
// matched rule set.
//
// Branch-scope rules emit one entry per state in the company's effective
// state set. Company-scope rules emit exactly one entry with an empty
// branch state, even when the rule's state filter names a single concrete
// state. Every entry starts PENDING with a due date from the cascade - at
// signup there is no extracted date yet, so the cascade collapses to
// fixed-deadline-or-signup-fallback.
//
// Build runs once, at onboarding. Re-running it for an existing company is
// made harmless by the caller through the (company, rule, branch_state)
// uniqueness constraint.
func Build(matched []rules.Rule, c rules.Company, now time.Time) []Entry {
	var entries []Entry
	for _, r := range matched {
		due := NextDue(r, c, nil, now)

		if r.Scope == rules.ScopeBranch {
			for _, state := range c.EffectiveStates() {
				entries = append(entries, Entry{
					CompanyID:   c.ID,
					RuleID:      r.ID,
					BranchState: state,
					DueDate:     due,
					Status:      StatusPending,
				})
			}
			continue
		}

		entries = append(entries, Entry{
			CompanyID: c.ID,
			RuleID:    r.ID,
			DueDate:   due,
			Status:    StatusPending,
		})
	}
	return entries
}
