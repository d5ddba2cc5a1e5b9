// Package schedule materializes and projects a company's compliance
// calendar.
//
// NextDue implements the due-date priority cascade (fixed government
// deadline, then OCR-extracted renewal date, then signup fallback) as a pure
// function of its inputs - "now" is always passed explicitly, never read
// from a hidden clock, so every computed date is re-derivable in tests.
//
// Build fans matched rules out into calendar entries: one per effective
// state for Branch-scope rules, exactly one for Company-scope rules.
//
// OVERDUE is never stored. EffectiveStatus derives it at read time from
// (stored status, due date, now), which removes the need for a clock-driven
// batch job.
package schedule
