package calllogs

import "errors"

var (
	ErrMissingLeadID   = errors.New("lead_id is required")
	ErrMissingStatus   = errors.New("call_status is required")
	ErrInvalidDuration = errors.New("duration must not be negative")
	ErrLeadNotFound    = errors.New("lead not found")
)

// IsValidationError reports whether err should map to a 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingLeadID) ||
		errors.Is(err, ErrMissingStatus) ||
		errors.Is(err, ErrInvalidDuration)
}
