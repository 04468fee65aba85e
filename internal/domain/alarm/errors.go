package alarm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an alarm with the requested identity does not exist.
	ErrNotFound = errors.New("alarm not found")
	// ErrInvalidIndex is returned when a reorder target is outside the list.
	ErrInvalidIndex = errors.New("invalid list index")
)

// ValidationError reports malformed user input rejected at the edit boundary.
type ValidationError struct {
	// Field is the name of the offending field.
	Field string
	// Reason describes what is wrong with the value.
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// newValidationError is a shorthand used by the Validate methods.
func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// ReferentialError reports a mutation that would break a TriggeredBy chain.
type ReferentialError struct {
	// AlarmID is the alarm the mutation targeted.
	AlarmID ID
	// ReferencedBy lists the alarms that are triggered by AlarmID.
	ReferencedBy []ID
	// Reason describes the rejected mutation.
	Reason string
}

// Error implements error.
func (e *ReferentialError) Error() string {
	refs := make([]string, 0, len(e.ReferencedBy))
	for _, id := range e.ReferencedBy {
		refs = append(refs, id.String())
	}

	return fmt.Sprintf("alarm %s: %s (triggers %s)", e.AlarmID, e.Reason, strings.Join(refs, ", "))
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError

	return errors.As(err, &target)
}

// IsReferential reports whether err is or wraps a *ReferentialError.
func IsReferential(err error) bool {
	var target *ReferentialError

	return errors.As(err, &target)
}
