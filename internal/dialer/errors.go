package dialer

import "errors"

var (
	ErrLeadNotFound   = errors.New("Lead not found")
	ErrMissingLeadID  = errors.New("lead_id is required")
	ErrNoLeadIDs      = errors.New("lead_ids is required")
	ErrNoPhone        = errors.New("lead has no phone number")
	ErrNoCallerNumber = errors.New("TWILIO_PHONE_NUMBER is not configured")
)

// IsValidationError reports whether err should surface as HTTP 400.
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrMissingLeadID),
		errors.Is(err, ErrNoLeadIDs),
		errors.Is(err, ErrNoPhone):
		return true
	}
	return false
}
