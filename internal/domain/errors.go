package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports bad caller input: an unknown time range, a
// non-positive capital, an oversell, an inconsistent profit target. It always
// carries a field name and a human-readable message and is never silently
// corrected.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DataUnavailableError reports a failed or timed-out price lookup. The
// affected instrument is excluded from totals but must stay visible in the
// output; the error is never swallowed into a zero price.
type DataUnavailableError struct {
	Symbol string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("price unavailable for %s", e.Symbol)
	}
	return fmt.Sprintf("price unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// IsDataUnavailable reports whether err is (or wraps) a DataUnavailableError.
func IsDataUnavailable(err error) bool {
	var de *DataUnavailableError
	return errors.As(err, &de)
}
