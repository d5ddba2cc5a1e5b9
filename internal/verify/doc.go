// Package verify implements the document verification state machine.
//
// Verification consumes already-extracted OCR output (text plus an optional
// detected renewal date) - the OCR engine itself is an external collaborator
// and never invoked from here. The verifier checks the rule's required
// keyword policy, grades the submission against the entry's current due
// date (COMPLETED, OVERDUE-PASS, or FAILED), and projects the next cycle on
// a passing grade.
//
// FAILED is recoverable: a re-upload re-runs the same transition with a new
// document version. Nothing here escalates a failure automatically.
package verify
