package settings

import "errors"

var (
	ErrInvalidBusinessHours = errors.New("invalid BUSINESS_HOURS")
	ErrVoiceIDRequired      = errors.New("voice_id is required")
	ErrInvalidVoiceSetting  = errors.New("pitch and speed must be between 0.5 and 2.0, stability between 0 and 1")
)
