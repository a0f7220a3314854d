package calllogs

import (
	"strings"
	"time"
)

// Call statuses written by the voice webhooks. Provider statuses
// (completed, busy, no-answer, failed) are stored verbatim.
const (
	StatusStarted    = "Started"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// Speaker tags prefixed to transcript lines.
const (
	BotPrefix  = "Bot: "
	LeadPrefix = "Lead: "
)

// Speakers recovered from a transcript line.
const (
	SpeakerAssistant = "assistant"
	SpeakerLead      = "lead"
	SpeakerSystem    = "system"
)

// CallLog is one transcript line or call event for a lead.
type CallLog struct {
	ID         int64     `json:"id"`
	LeadID     int64     `json:"lead_id"`
	CallStatus string    `json:"call_status"`
	Transcript string    `json:"transcript"`
	Duration   int       `json:"duration"`
	CallSID    string    `json:"call_sid,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateRequest is the body of POST /call_logs.
type CreateRequest struct {
	LeadID     int64  `json:"lead_id"`
	CallStatus string `json:"call_status"`
	Transcript string `json:"transcript"`
	Duration   int    `json:"duration"`
	CallSID    string `json:"call_sid"`
}

// Validate checks required fields.
func (r *CreateRequest) Validate() error {
	r.CallStatus = strings.TrimSpace(r.CallStatus)
	if r.LeadID <= 0 {
		return ErrMissingLeadID
	}
	if r.CallStatus == "" {
		return ErrMissingStatus
	}
	if r.Duration < 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Turn is a transcript line with its speaker resolved.
type Turn struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// ParseLine splits "Bot: hi" into (assistant, "hi"). Lines without a known
// prefix belong to the system.
func ParseLine(line string) (string, string) {
	switch {
	case strings.HasPrefix(line, BotPrefix):
		return SpeakerAssistant, strings.TrimPrefix(line, BotPrefix)
	case strings.HasPrefix(line, LeadPrefix):
		return SpeakerLead, strings.TrimPrefix(line, LeadPrefix)
	default:
		return SpeakerSystem, line
	}
}

// Conversation turns logs ordered oldest first into speaker turns. System
// lines are dropped when dialogueOnly is set.
func Conversation(logs []*CallLog, dialogueOnly bool) []Turn {
	turns := make([]Turn, 0, len(logs))
	for _, l := range logs {
		speaker, text := ParseLine(l.Transcript)
		if dialogueOnly && speaker == SpeakerSystem {
			continue
		}
		turns = append(turns, Turn{Speaker: speaker, Text: text, At: l.CreatedAt})
	}
	return turns
}

// BotLine formats an assistant transcript line.
func BotLine(text string) string { return BotPrefix + text }

// LeadLine formats a lead transcript line.
func LeadLine(text string) string { return LeadPrefix + text }

// Summary aggregates call activity for the analytics dashboard.
type Summary struct {
	TotalCalls      int            `json:"totalCalls"`
	AverageDuration float64        `json:"averageDuration"`
	CallsByDay      map[string]int `json:"callsByDay"`
	CallsByStatus   map[string]int `json:"callsByStatus"`
}

// Summarize counts call events. Conversation turns (In Progress) are not
// calls and are skipped; duration is averaged over events that carry one.
func Summarize(logs []*CallLog, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}
	s := Summary{
		CallsByDay:    map[string]int{},
		CallsByStatus: map[string]int{},
	}
	var (
		totalDuration int
		timed         int
	)
	for _, l := range logs {
		if l.CallStatus == StatusInProgress {
			continue
		}
		s.TotalCalls++
		s.CallsByDay[l.CreatedAt.In(loc).Format(time.DateOnly)]++
		s.CallsByStatus[l.CallStatus]++
		if l.Duration > 0 {
			totalDuration += l.Duration
			timed++
		}
	}
	if timed > 0 {
		s.AverageDuration = float64(totalDuration) / float64(timed)
	}
	return s
}
