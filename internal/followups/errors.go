package followups

import "errors"

var (
	ErrMissingLeadID        = errors.New("lead_id is required")
	ErrInvalidScheduledTime = errors.New("scheduled_time must be an ISO 8601 date-time")
	ErrInvalidPriority      = errors.New("priority must be between 1 and 10")
	ErrInvalidStatus        = errors.New("invalid follow-up status")
	ErrNoFieldsToUpdate     = errors.New("No fields to update")
	ErrNotFound             = errors.New("Follow-up not found")
	ErrLeadNotFound         = errors.New("Lead not found")
)

// IsValidationError reports whether err should surface as HTTP 400.
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrMissingLeadID),
		errors.Is(err, ErrInvalidScheduledTime),
		errors.Is(err, ErrInvalidPriority),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrNoFieldsToUpdate):
		return true
	}
	return false
}
