package rules

import "errors"

// ValidationError reports malformed or out-of-range input (a rule with
// min>max, a negative employee count, a bad enum value). It is always
// raised before any state change and its message is safe to surface
// verbatim to the caller.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
