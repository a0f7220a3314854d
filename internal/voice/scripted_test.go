package voice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
)

// Monday.
var fixedNow = time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)

const opener = "Hello, is this Acme? Quick question: do your field crews use mobile phones or tablets for work?"

// convo alternates bot and lead lines, starting with the bot.
func convo(lines ...string) []calllogs.Turn {
	turns := make([]calllogs.Turn, 0, len(lines))
	for i, l := range lines {
		speaker := calllogs.SpeakerAssistant
		if i%2 == 1 {
			speaker = calllogs.SpeakerLead
		}
		turns = append(turns, calllogs.Turn{Speaker: speaker, Text: l})
	}
	return turns
}

func respond(t *testing.T, history []calllogs.Turn, speech string) Reply {
	t.Helper()
	reply, err := NewScriptedAgent().Respond(context.Background(), Session{
		Lead:    &leads.Lead{Name: "Acme Roofing", Industry: "Roofing"},
		History: history,
		Speech:  speech,
		Now:     fixedNow,
	})
	require.NoError(t, err)
	require.NotEmpty(t, reply.Text)
	return reply
}

func TestScriptedAgentQualifiesAndBooks(t *testing.T) {
	first := "Yes, we have about 50 employees using mobile devices."
	reply := respond(t, convo(opener), first)
	assert.False(t, reply.Result.Complete)
	assert.True(t, reply.Result.Qualified)
	assert.Equal(t, leads.MobileYes, reply.Result.UsesMobile)
	assert.Equal(t, 50, reply.Result.EmployeeCount)
	assert.Contains(t, reply.Text, "roofing companies")
	assert.Contains(t, reply.Text, "What day and time")

	second := "Maybe we can schedule for next week."
	reply2 := respond(t, convo(opener, first, reply.Text), second)
	assert.False(t, reply2.Result.Complete)
	assert.Equal(t, "Great, what time on Monday, March 9 works for you?", reply2.Text)

	reply3 := respond(t, convo(opener, first, reply.Text, second, reply2.Text), "3 p.m. works")
	assert.True(t, reply3.Result.Complete)
	assert.True(t, reply3.Result.AppointmentSet)
	assert.Equal(t, "2026-03-09", reply3.Result.AppointmentDate)
	assert.Equal(t, "15:00", reply3.Result.AppointmentTime)
	assert.Contains(t, reply3.Text, "Monday, March 9 at 3:00 PM")
}

func TestScriptedAgentAsksForTeamSize(t *testing.T) {
	reply := respond(t, convo(opener), "Yeah, they do.")
	assert.False(t, reply.Result.Complete)
	assert.Contains(t, reply.Text, "how many employees")

	reply = respond(t, convo(opener, "Yeah, they do.", reply.Text), "around twenty five")
	assert.True(t, reply.Result.Qualified)
	assert.Equal(t, 25, reply.Result.EmployeeCount)
	assert.False(t, reply.Result.Complete)
}

func TestScriptedAgentDisqualifies(t *testing.T) {
	tests := []struct {
		name   string
		speech string
		mobile string
		count  int
	}{
		{name: "no mobile devices", speech: "No, we do everything on paper.", mobile: leads.MobileNo},
		{name: "small team", speech: "Yes, there are just 3 of us.", mobile: leads.MobileYes, count: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := respond(t, convo(opener), tt.speech)
			assert.True(t, reply.Result.Complete)
			assert.False(t, reply.Result.Qualified)
			assert.Equal(t, tt.mobile, reply.Result.UsesMobile)
			assert.Equal(t, tt.count, reply.Result.EmployeeCount)
		})
	}
}

func TestScriptedAgentDecline(t *testing.T) {
	reply := respond(t, convo(opener), "We're not interested, please don't call again.")
	assert.True(t, reply.Result.Complete)
	assert.True(t, reply.Result.Declined)
	assert.False(t, reply.Result.Qualified)
}

func TestScriptedAgentHandlesObjections(t *testing.T) {
	first := "Yes, about 12 techs."
	pitch := respond(t, convo(opener), first)
	require.True(t, pitch.Result.Qualified)

	objection := respond(t, convo(opener, first, pitch.Text), "I need to think about it.")
	assert.False(t, objection.Result.Complete)
	assert.Contains(t, objection.Text, "no commitment")

	final := respond(t, convo(opener, first, pitch.Text, "I need to think about it.", objection.Text), "We're just too busy right now.")
	assert.True(t, final.Result.Complete)
	assert.True(t, final.Result.Qualified)
	assert.False(t, final.Result.AppointmentSet)
}

func TestScriptedAgentRepromptsThenGivesUp(t *testing.T) {
	reply := respond(t, convo(opener), "")
	assert.False(t, reply.Result.Complete)
	assert.Contains(t, reply.Text, "didn't quite catch that")

	reply = respond(t, convo(opener, "", reply.Text), "")
	assert.True(t, reply.Result.Complete)
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		text, date, clock string
	}{
		{"tomorrow at 10:30 am", "2026-03-03", "10:30"},
		{"friday at 2", "2026-03-06", "14:00"},
		{"monday around noon", "2026-03-09", "12:00"},
		{"thursday afternoon", "2026-03-05", "14:00"},
		{"how about 3 p.m.", "", "15:00"},
		{"12 am", "", "00:00"},
		{"next week", "2026-03-09", ""},
		{"i'm not sure", "", ""},
	}
	for _, tt := range tests {
		date, clock := parseSlot(tt.text, fixedNow)
		assert.Equal(t, tt.date, date, tt.text)
		assert.Equal(t, tt.clock, clock, tt.text)
	}
}

func TestEmployeeCount(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"about 50", 50, true},
		{"twenty five guys", 25, true},
		{"a dozen or so", 12, true},
		{"two hundred", 200, true},
		{"at 3 pm there are 12 of us", 12, true},
		{"lots of people", 0, false},
	}
	for _, tt := range tests {
		got, ok := employeeCount(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestAnswer(t *testing.T) {
	assert.Equal(t, leads.MobileYes, answer("yes we don't use paper anymore"))
	assert.Equal(t, leads.MobileNo, answer("no, yes is not right"))
	assert.Equal(t, leads.MobileUnknown, answer("i don't know"))
	assert.Equal(t, leads.MobileUnknown, answer("who is this"))
}
