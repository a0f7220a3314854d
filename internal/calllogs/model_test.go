package calllogs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	speaker, text := ParseLine("Bot: Hello there")
	assert.Equal(t, SpeakerAssistant, speaker)
	assert.Equal(t, "Hello there", text)

	speaker, text = ParseLine(LeadLine("We have 12 techs"))
	assert.Equal(t, SpeakerLead, speaker)
	assert.Equal(t, "We have 12 techs", text)

	speaker, text = ParseLine("Call ended with status: busy")
	assert.Equal(t, SpeakerSystem, speaker)
	assert.Equal(t, "Call ended with status: busy", text)
}

func TestConversationDropsSystemLines(t *testing.T) {
	logs := []*CallLog{
		{Transcript: BotLine("Hi, is this Sam?")},
		{Transcript: LeadLine("Yes")},
		{Transcript: "Call ended with status: completed"},
	}
	turns := Conversation(logs, true)
	assert.Len(t, turns, 2)
	assert.Equal(t, SpeakerAssistant, turns[0].Speaker)
	assert.Equal(t, SpeakerLead, turns[1].Speaker)

	assert.Len(t, Conversation(logs, false), 3)
}

func TestSummarize(t *testing.T) {
	day1 := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	logs := []*CallLog{
		{CallStatus: StatusStarted, CreatedAt: day1},
		{CallStatus: StatusInProgress, CreatedAt: day1},
		{CallStatus: "completed", Duration: 90, CreatedAt: day1},
		{CallStatus: "busy", CreatedAt: day2},
		{CallStatus: "completed", Duration: 30, CreatedAt: day2},
	}

	s := Summarize(logs, nil)
	assert.Equal(t, 4, s.TotalCalls)
	assert.InDelta(t, 60.0, s.AverageDuration, 0.001)
	assert.Equal(t, map[string]int{"2026-03-02": 2, "2026-03-03": 2}, s.CallsByDay)
	assert.Equal(t, 2, s.CallsByStatus["completed"])
	assert.Equal(t, 1, s.CallsByStatus["busy"])
	assert.NotContains(t, s.CallsByStatus, StatusInProgress)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, time.UTC)
	assert.Zero(t, s.TotalCalls)
	assert.Zero(t, s.AverageDuration)
	assert.NotNil(t, s.CallsByDay)
	assert.NotNil(t, s.CallsByStatus)
}

func TestCreateRequestValidate(t *testing.T) {
	assert.ErrorIs(t, (&CreateRequest{CallStatus: "x"}).Validate(), ErrMissingLeadID)
	assert.ErrorIs(t, (&CreateRequest{LeadID: 1, CallStatus: " "}).Validate(), ErrMissingStatus)
	assert.ErrorIs(t, (&CreateRequest{LeadID: 1, CallStatus: "x", Duration: -1}).Validate(), ErrInvalidDuration)
	assert.NoError(t, (&CreateRequest{LeadID: 1, CallStatus: "Completed"}).Validate())
}
