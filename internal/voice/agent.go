// Package voice runs the outbound call conversation: the Twilio webhooks and
// the agents that decide what to say next.
package voice

import (
	"context"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/llm"
	"github.com/wolfman30/outreach-ai-platform/internal/settings"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Session is one turn of a live call.
type Session struct {
	Lead *leads.Lead
	// History holds the current call's dialogue, oldest first, excluding Speech.
	History []calllogs.Turn
	Speech  string
	Now     time.Time
	Loc     *time.Location
}

// Result is what the call has established so far. It is acted on once
// Complete is set.
type Result struct {
	Complete        bool   `json:"complete"`
	AppointmentSet  bool   `json:"appointment_set"`
	Qualified       bool   `json:"qualified"`
	Declined        bool   `json:"declined"`
	UsesMobile      string `json:"uses_mobile"`
	EmployeeCount   int    `json:"employee_count"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
}

// Reply is the agent's next line and the call outcome.
type Reply struct {
	Text   string
	Result Result
}

// Agent produces the next line of a call.
type Agent interface {
	Respond(ctx context.Context, s Session) (Reply, error)
}

// AgentFunc adapts a function to Agent.
type AgentFunc func(ctx context.Context, s Session) (Reply, error)

func (f AgentFunc) Respond(ctx context.Context, s Session) (Reply, error) { return f(ctx, s) }

// LLMFactory hands out a model client for a provider. Key-based providers
// return nil when the key is empty.
type LLMFactory interface {
	Client(ctx context.Context, provider, apiKey string) (llm.Client, error)
}

// AgentSelector picks the model-backed agent when an LLM provider is
// configured and the scripted agent otherwise.
type AgentSelector struct {
	factory  LLMFactory
	scripted *ScriptedAgent
	logger   *logging.Logger
}

func NewAgentSelector(factory LLMFactory, scripted *ScriptedAgent, logger *logging.Logger) *AgentSelector {
	if logger == nil {
		logger = logging.Default()
	}
	if scripted == nil {
		scripted = NewScriptedAgent()
	}
	return &AgentSelector{factory: factory, scripted: scripted, logger: logger}
}

// Agent returns the agent for the current settings.
func (s *AgentSelector) Agent(ctx context.Context, snap settings.Snapshot) Agent {
	if s.factory == nil || snap.TestMode() || !snap.LLMConfigured() {
		return s.scripted
	}
	client, err := s.factory.Client(ctx, snap.LLMProvider(), snap.LLMAPIKey())
	if err != nil {
		s.logger.Warn("llm client unavailable, using scripted agent", "error", err)
		return s.scripted
	}
	if client == nil {
		return s.scripted
	}
	return NewModelAgent(client, s.scripted, s.logger)
}
