package leads

import (
	"errors"
	"fmt"
)

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidStatus is returned for status updates outside the pipeline set
	ErrInvalidStatus = errors.New("invalid lead status")

	// ErrUnknownField is returned by Form.SetField for names the form does not hold
	ErrUnknownField = errors.New("unknown form field")

	// ErrSubmissionInFlight is returned when a form is submitted again before the
	// previous submission resolved.
	ErrSubmissionInFlight = errors.New("submission already in progress")
)

// Field names as they appear on the forms and in error reports.
const (
	FieldName         = "name"
	FieldPhone        = "phone"
	FieldEmail        = "email"
	FieldSuburb       = "suburb"
	FieldService      = "service"
	FieldUrgency      = "urgency"
	FieldPropertyType = "property_type"
	FieldMessage      = "message"
	FieldHoneypot     = "honeypot"
	FieldSource       = "source"
)

// ValidationError names the first rule a form snapshot violated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
