package rules

import "time"

// PenaltyImpact is the severity tier attached to a rule. Tiers are ordered
// Imprisonment > High > Medium > Low and drive both display and the scoring
// weight table.
type PenaltyImpact string

const (
	ImpactImprisonment PenaltyImpact = "Imprisonment"
	ImpactHigh         PenaltyImpact = "High"
	ImpactMedium       PenaltyImpact = "Medium"
	ImpactLow          PenaltyImpact = "Low"
)

// RuleScope defines whether a rule produces one obligation for the whole
// company or one per branch state.
type RuleScope string

const (
	// ScopeCompany produces exactly one calendar entry per company,
	// regardless of how many states the rule's state filter covers.
	ScopeCompany RuleScope = "Company"

	// ScopeBranch fans out to one calendar entry per state in the
	// company's effective state set.
	ScopeBranch RuleScope = "Branch"
)

// Rule is one entry in the compliance rule catalog.
//
// The three tag-set dimensions (Industries, States, CompanyTypes) each carry
// an ALL sentinel via TagSet. Employee bounds are inclusive on both ends.
// FixedDueDay/FixedDueMonth are either both set or both zero; when set they
// pin the due date to that day/month every cycle (government-mandated
// deadline) and take priority over every other date source.
type Rule struct {
	ID           int64
	Name         string
	Description  string
	Industries   TagSet
	States       TagSet
	CompanyTypes TagSet
	MinEmployees int
	MaxEmployees int

	// FrequencyMonths is the recurrence interval. A next obligation is
	// projected this many months after the completed one.
	FrequencyMonths int

	// FixedDueDay and FixedDueMonth pin a government-fixed calendar
	// deadline. Zero values mean no fixed deadline.
	FixedDueDay   int
	FixedDueMonth time.Month

	DocumentRequired bool
	PenaltyAmount    string
	PenaltyImpact    PenaltyImpact
	Scope            RuleScope

	// Keywords are the substrings an uploaded document's OCR text must
	// contain for verification to pass. Empty means no keyword check.
	Keywords []string

	// Active is the soft-delete flag. Inactive rules never match.
	Active bool
}

// HasFixedDeadline reports whether the rule carries a government-fixed
// day/month deadline.
func (r Rule) HasFixedDeadline() bool {
	return r.FixedDueDay != 0 && r.FixedDueMonth != 0
}

// Validate checks the catalog invariants for a rule. Violations are
// reported as a *ValidationError before the rule reaches any store.
func (r Rule) Validate() error {
	if r.Name == "" {
		return NewValidationError("rule name must not be empty")
	}
	if r.FrequencyMonths <= 0 {
		return NewValidationError("frequency_months must be positive")
	}
	if r.MinEmployees < 0 {
		return NewValidationError("min_employees must not be negative")
	}
	if r.MinEmployees > r.MaxEmployees {
		return NewValidationError("min_employees exceeds max_employees")
	}
	// Fixed deadline fields are both-or-neither.
	if (r.FixedDueDay != 0) != (r.FixedDueMonth != 0) {
		return NewValidationError("fixed_due_day and fixed_due_month must be set together")
	}
	if r.FixedDueDay < 0 || r.FixedDueDay > 31 {
		return NewValidationError("fixed_due_day out of range")
	}
	if r.FixedDueMonth < 0 || r.FixedDueMonth > 12 {
		return NewValidationError("fixed_due_month out of range")
	}
	if r.HasFixedDeadline() && r.FixedDueDay > daysInFixedMonth(r.FixedDueMonth) {
		return NewValidationError("fixed_due_day does not exist in fixed_due_month")
	}
	switch r.Scope {
	case ScopeCompany, ScopeBranch:
	default:
		return NewValidationError("scope must be Company or Branch")
	}
	return nil
}

// daysInFixedMonth is the day count of a month in a non-leap year. A fixed
// deadline recurs every year, so February 29 is not a valid anchor either.
func daysInFixedMonth(m time.Month) int {
	switch m {
	case time.February:
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// Subscription is the company's plan tier. It controls which states the
// company is evaluated against.
type Subscription string

const (
	// SubscriptionBasic restricts the effective state set to HQ only.
	SubscriptionBasic Subscription = "Basic"

	// SubscriptionEnterprise includes every branch state alongside HQ.
	SubscriptionEnterprise Subscription = "Enterprise"
)

// Company is the profile snapshot matching runs against.
type Company struct {
	ID            int64
	Name          string
	Industries    []string
	CompanyType   string
	HQState       string
	BranchStates  []string
	EmployeeCount int
	Subscription  Subscription

	// CreatedAt anchors the due-date fallback when a rule has neither a
	// fixed deadline nor an extracted renewal date.
	CreatedAt time.Time
}

// EffectiveStates resolves the state set the company's subscription entitles
// it to be evaluated against: HQ only for Basic, HQ plus all branch states
// for Enterprise. The result is deduplicated and preserves HQ-first order.
func (c Company) EffectiveStates() []string {
	states := []string{c.HQState}
	if c.Subscription != SubscriptionEnterprise {
		return states
	}
	seen := map[string]bool{c.HQState: true}
	for _, s := range c.BranchStates {
		if seen[s] {
			continue
		}
		seen[s] = true
		states = append(states, s)
	}
	return states
}

// Validate checks the profile invariants for a company.
func (c Company) Validate() error {
	if c.Name == "" {
		return NewValidationError("company name must not be empty")
	}
	if c.EmployeeCount < 0 {
		return NewValidationError("employee_count must not be negative")
	}
	if c.HQState == "" {
		return NewValidationError("hq_state must not be empty")
	}
	switch c.Subscription {
	case SubscriptionBasic, SubscriptionEnterprise:
	default:
		return NewValidationError("subscription must be Basic or Enterprise")
	}
	return nil
}
