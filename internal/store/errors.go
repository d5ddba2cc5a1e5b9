package store

import (
	"errors"
	"fmt"
)

// StoreErrorCode categorizes store-level errors.
type StoreErrorCode string

const (
	// ErrCodeVersionConflict indicates a version-promotion race: two
	// writers computed the same next version number for a (company, rule)
	// pair. Retryable - the caller recomputes and tries again.
	ErrCodeVersionConflict StoreErrorCode = "VERSION_CONFLICT"

	// ErrCodeInvariant indicates corrupted bookkeeping (e.g. two current
	// versions for one pair). Fatal - it points at a bug in promotion or
	// calendar construction and is never silently repaired.
	ErrCodeInvariant StoreErrorCode = "INVARIANT_VIOLATION"

	// ErrCodeNotFound indicates a referenced row does not exist.
	ErrCodeNotFound StoreErrorCode = "NOT_FOUND"
)

// StoreError is a structured store-level error with a category code so
// callers can distinguish retryable conflicts from fatal invariant
// violations.
type StoreError struct {
	Code    StoreErrorCode
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConflictError creates a retryable version-promotion conflict error.
func NewConflictError(companyID, ruleID int64, version int) *StoreError {
	return &StoreError{
		Code: ErrCodeVersionConflict,
		Message: fmt.Sprintf("version %d already claimed for company=%d rule=%d; recompute and retry",
			version, companyID, ruleID),
	}
}

// NewInvariantError creates a fatal invariant-violation error.
func NewInvariantError(message string) *StoreError {
	return &StoreError{Code: ErrCodeInvariant, Message: message}
}

// NewNotFoundError creates a not-found error for the named row.
func NewNotFoundError(what string, id int64) *StoreError {
	return &StoreError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s %d not found", what, id)}
}

// IsConflictError reports whether err is a retryable promotion conflict.
// Uses errors.As to handle wrapped errors.
func IsConflictError(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == ErrCodeVersionConflict
	}
	return false
}

// IsInvariantError reports whether err is a fatal invariant violation.
func IsInvariantError(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == ErrCodeInvariant
	}
	return false
}

// IsNotFoundError reports whether err is a not-found error.
func IsNotFoundError(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == ErrCodeNotFound
	}
	return false
}
