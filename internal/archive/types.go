// Package archive keeps scrubbed copies of finished call transcripts in S3
// so scripts and models can be tuned against real conversations.
package archive

import "time"

// Outcomes, derived from the agent's call result.
const (
	OutcomeAppointmentSet = "appointment_set"
	OutcomeQualified      = "qualified"
	OutcomeDeclined       = "declined"
	OutcomeNotQualified   = "not_qualified"
)

// CallRecord is the JSON document written per call.
type CallRecord struct {
	Version      string    `json:"version"`
	CallSID      string    `json:"call_sid"`
	LeadID       int64     `json:"lead_id"`
	Industry     string    `json:"industry"`
	PhoneHash    string    `json:"phone_hash"`
	ArchivedAt   time.Time `json:"archived_at"`
	DurationSecs int       `json:"duration_seconds"`
	TurnCount    int       `json:"turn_count"`
	Outcome      string    `json:"outcome"`
	Labels       Labels    `json:"labels"`
	Turns        []Turn    `json:"turns"`
}

// Labels are the structured answers collected on the call.
type Labels struct {
	UsesMobileDevices string `json:"uses_mobile_devices"`
	EmployeeCount     int    `json:"employee_count"`
	AppointmentDate   string `json:"appointment_date,omitempty"`
	AppointmentTime   string `json:"appointment_time,omitempty"`
	Agent             string `json:"agent,omitempty"`
}

// Turn is one spoken line.
type Turn struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// ManifestEntry is one JSONL line in the monthly manifest file.
type ManifestEntry struct {
	CallSID    string `json:"call_sid"`
	LeadID     int64  `json:"lead_id"`
	S3Key      string `json:"s3_key"`
	Industry   string `json:"industry"`
	Outcome    string `json:"outcome"`
	TurnCount  int    `json:"turn_count"`
	ArchivedAt string `json:"archived_at"`
}
