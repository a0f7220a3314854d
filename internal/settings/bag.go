package settings

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wolfman30/outreach-ai-platform/internal/hours"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Keys of the settings bag.
const (
	KeyTwilioAccountSID     = "TWILIO_ACCOUNT_SID"
	KeyTwilioAuthToken      = "TWILIO_AUTH_TOKEN"
	KeyTwilioPhoneNumber    = "TWILIO_PHONE_NUMBER"
	KeyElevenLabsAPIKey     = "ELEVENLABS_API_KEY"
	KeyElevenLabsVoiceID    = "ELEVENLABS_VOICE_ID"
	KeyLLMAPIKey            = "LLM_API_KEY"
	KeyLLMProvider          = "LLM_PROVIDER"
	KeyBrightDataToken      = "BRIGHTDATA_API_TOKEN"
	KeyBrightDataZone       = "BRIGHTDATA_WEB_UNLOCKER_ZONE"
	KeyCallbackURL          = "CALLBACK_URL"
	KeyZohoOrgID            = "ZOHO_ORG_ID"
	KeyZohoClientID         = "ZOHO_CLIENT_ID"
	KeyZohoClientSecret     = "ZOHO_CLIENT_SECRET"
	KeyZohoRefreshToken     = "ZOHO_REFRESH_TOKEN"
	KeyZohoDepartmentID     = "ZOHO_DEPARTMENT_ID"
	KeyBusinessHours        = "BUSINESS_HOURS"
	KeyAPIKey               = "API_KEY"
	KeyRecordingEnabled     = "RECORDING_ENABLED"
	KeyTestMode             = "TEST_MODE"
	KeyConfirmDeletions     = "CONFIRM_DELETIONS"
	KeyAutoQualification    = "AUTO_QUALIFICATION"
	KeyAppointmentLink      = "APPOINTMENT_LINK"
	KeyDefaultVoiceID       = "DEFAULT_VOICE_ID"
	DefaultCallbackURL      = "http://localhost:5001/webhook"
	DefaultAppointmentLink  = "https://calendly.com/seamless-mobile"
	DefaultVoiceIdentifier  = "voice1"
	DefaultLLMProvider      = "gemini"
	defaultConfirmDeletions = "true"
)

// secretKeys are masked whenever the bag is logged.
var secretKeys = map[string]struct{}{
	KeyTwilioAuthToken:  {},
	KeyElevenLabsAPIKey: {},
	KeyLLMAPIKey:        {},
	KeyZohoClientSecret: {},
	KeyZohoRefreshToken: {},
	KeyBrightDataToken:  {},
	KeyAPIKey:           {},
}

// Bag is the flat key/value settings document. Values are strings, bools,
// numbers or (for BUSINESS_HOURS) a nested object.
type Bag map[string]any

// Defaults returns a fresh copy of the built-in settings.
func Defaults() Bag {
	d := hours.DefaultConfig()
	return Bag{
		KeyTwilioAccountSID:  "",
		KeyTwilioAuthToken:   "",
		KeyTwilioPhoneNumber: "",
		KeyElevenLabsAPIKey:  "",
		KeyElevenLabsVoiceID: "",
		KeyLLMAPIKey:         "",
		KeyLLMProvider:       DefaultLLMProvider,
		KeyBrightDataToken:   "",
		KeyBrightDataZone:    "",
		KeyCallbackURL:       DefaultCallbackURL,
		KeyZohoOrgID:         "",
		KeyZohoClientID:      "",
		KeyZohoClientSecret:  "",
		KeyZohoRefreshToken:  "",
		KeyZohoDepartmentID:  "",
		KeyBusinessHours: map[string]any{
			"timezone":        d.Timezone,
			"weekday_start":   d.WeekdayStart,
			"weekday_end":     d.WeekdayEnd,
			"weekend_enabled": d.WeekendEnabled,
			"weekend_start":   d.WeekendStart,
			"weekend_end":     d.WeekendEnd,
		},
		KeyAPIKey:            "",
		KeyRecordingEnabled:  false,
		KeyTestMode:          false,
		KeyConfirmDeletions:  defaultConfirmDeletions,
		KeyAutoQualification: "true",
		KeyAppointmentLink:   DefaultAppointmentLink,
		KeyDefaultVoiceID:    DefaultVoiceIdentifier,
	}
}

// FromEnv overlays every default key present in the environment.
// BUSINESS_HOURS is parsed as JSON and merged field by field; an
// unparseable value is ignored.
func FromEnv(lookup func(string) (string, bool)) Bag {
	out := Bag{}
	for key := range Defaults() {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		if key == KeyBusinessHours {
			var obj map[string]any
			if err := json.Unmarshal([]byte(v), &obj); err != nil {
				continue
			}
			out[key] = obj
			continue
		}
		out[key] = v
	}
	return out
}

// Merge copies src into dst. Nested objects are merged one level deep so a
// partial BUSINESS_HOURS keeps the remaining fields.
func Merge(dst, src Bag) Bag {
	if dst == nil {
		dst = Bag{}
	}
	for k, v := range src {
		if srcObj, ok := asObject(v); ok {
			if dstObj, ok := asObject(dst[k]); ok {
				merged := make(map[string]any, len(dstObj)+len(srcObj))
				for dk, dv := range dstObj {
					merged[dk] = dv
				}
				for sk, sv := range srcObj {
					merged[sk] = sv
				}
				dst[k] = merged
				continue
			}
		}
		dst[k] = v
	}
	return dst
}

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case Bag:
		return obj, true
	}
	return nil, false
}

// Clone returns a deep-enough copy for safe mutation.
func (b Bag) Clone() Bag {
	return Merge(Bag{}, b)
}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool {
	_, ok := secretKeys[key]
	return ok
}

// Masked returns a copy with secret values hidden, for logging.
func (b Bag) Masked() Bag {
	out := b.Clone()
	for k, v := range out {
		if IsSecret(k) {
			out[k] = logging.Mask(fmt.Sprint(v))
		}
	}
	return out
}

// Keys returns the bag's keys sorted.
func (b Bag) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the value at key as a trimmed string.
func (b Bag) String(key string) string {
	switch v := b[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Bool accepts JSON booleans and the strings true/1/yes/on.
func (b Bag) Bool(key string) bool {
	switch v := b[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true
		}
	}
	return false
}

// BusinessHours decodes BUSINESS_HOURS, accepting an object or a JSON string.
func (b Bag) BusinessHours() (hours.Config, error) {
	cfg := hours.DefaultConfig()
	raw, ok := b[KeyBusinessHours]
	if !ok || raw == nil {
		return cfg, nil
	}
	var data []byte
	if s, ok := raw.(string); ok {
		data = []byte(s)
	} else {
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return cfg, fmt.Errorf("settings: encode business hours: %w", err)
		}
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return hours.DefaultConfig(), fmt.Errorf("settings: decode business hours: %w", err)
	}
	return cfg, nil
}
