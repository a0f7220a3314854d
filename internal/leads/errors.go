package leads

import "errors"

var (
	// ErrInvalidName is returned when the name is invalid
	ErrInvalidName = errors.New("name is required")

	// ErrMissingPhone is returned when the phone number is missing
	ErrMissingPhone = errors.New("phone is required")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	ErrInvalidStatus         = errors.New("invalid lead status")
	ErrInvalidQualification  = errors.New("invalid qualification status")
	ErrInvalidMobileUsage    = errors.New("uses_mobile_devices must be Unknown, Yes or No")
	ErrInvalidEmployeeCount  = errors.New("employee_count must not be negative")
	ErrNoFieldsToUpdate      = errors.New("No fields to update")
	ErrNoLeadIDs             = errors.New("lead_ids is required")
	ErrUnsupportedExportType = errors.New("format must be csv or xlsx")
)

// IsValidationError reports whether err should surface as HTTP 400.
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrMissingPhone),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidQualification),
		errors.Is(err, ErrInvalidMobileUsage),
		errors.Is(err, ErrInvalidEmployeeCount),
		errors.Is(err, ErrNoFieldsToUpdate),
		errors.Is(err, ErrNoLeadIDs):
		return true
	}
	return false
}
