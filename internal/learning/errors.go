package learning

import "errors"

var (
	ErrInvalidDays = errors.New("days must be between 1 and 365")
)

// IsValidationError reports whether err should map to a 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDays)
}
