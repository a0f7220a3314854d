package appointments

import "errors"

var (
	ErrMissingLeadID    = errors.New("lead_id is required")
	ErrInvalidDate      = errors.New("date must be YYYY-MM-DD")
	ErrInvalidTime      = errors.New("time must be HH:MM")
	ErrInvalidStatus    = errors.New("invalid appointment status")
	ErrInvalidMedium    = errors.New("medium must be Phone, Zoom or In-Person")
	ErrNoFieldsToUpdate = errors.New("No fields to update")
	// ErrNotFound is returned when an appointment id is unknown.
	ErrNotFound = errors.New("Appointment not found")
	// ErrLeadNotFound is returned when booking for an unknown lead.
	ErrLeadNotFound = errors.New("Lead not found")
)

// IsValidationError reports whether err should surface as HTTP 400.
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrMissingLeadID),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidTime),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidMedium),
		errors.Is(err, ErrNoFieldsToUpdate):
		return true
	}
	return false
}
