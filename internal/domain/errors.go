package domain

import (
	"fmt"
	"time"
)

// ValidationError reports a malformed or missing field, or an inverted time
// range, at entity construction or reschedule time.
type ValidationError struct {
	Field string
	msg   string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(field, msg string) error {
	return &ValidationError{Field: field, msg: msg}
}

// NewValidationError is used by callers outside the entity that enforce
// field-level rules, such as id uniqueness.
func NewValidationError(field, msg string) error {
	return validationError(field, msg)
}

// InvalidTimeError reports a well-formed range that breaks a booking rule:
// too short, or outside business hours.
type InvalidTimeError struct {
	msg string
}

func (e *InvalidTimeError) Error() string {
	return e.msg
}

// NewInvalidTimeError formats a time rule violation.
func NewInvalidTimeError(format string, args ...any) error {
	return &InvalidTimeError{msg: fmt.Sprintf(format, args...)}
}

// Clash resources reported by DoubleBookingError.
const (
	ResourceProvider = "provider"
	ResourceRoom     = "room"
)

// DoubleBookingError reports an overlap with an existing appointment that
// shares the provider or the room.
type DoubleBookingError struct {
	Resource      string
	Name          string
	ExistingID    string
	Start, End    time.Time
	ExistingStart time.Time
	ExistingEnd   time.Time
}

func (e *DoubleBookingError) Error() string {
	return fmt.Sprintf(
		"Time conflict: %s-%s overlaps %s-%s for %s (%s).",
		e.Start.Format(DateTimeLayout),
		e.End.Format(ClockLayout),
		e.ExistingStart.Format(ClockLayout),
		e.ExistingEnd.Format(ClockLayout),
		e.Resource,
		e.Name,
	)
}

// NotFoundError reports an operation on an unknown appointment id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Appointment '%s' not found.", e.ID)
}
