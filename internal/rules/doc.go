// Package rules defines the compliance rule catalog model and the
// rule-to-company matching engine.
//
// A Rule describes one statutory obligation: which companies it applies to
// (industry, state, and company-type tag sets, each with an ALL sentinel,
// plus an employee-count band), how often it recurs, whether it carries a
// government-fixed deadline, and how severe non-compliance is.
//
// Matching is a pure function: Match(rules, company) selects the applicable
// subset deterministically with no side effects. An empty result is a valid
// outcome, not an error.
package rules
