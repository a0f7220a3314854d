package voice

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/outreach-ai-platform/internal/appointments"
	"github.com/wolfman30/outreach-ai-platform/internal/archive"
	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/dialer"
	"github.com/wolfman30/outreach-ai-platform/internal/events"
	"github.com/wolfman30/outreach-ai-platform/internal/followups"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/livecalls"
	"github.com/wolfman30/outreach-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/outreach-ai-platform/internal/settings"
	"github.com/wolfman30/outreach-ai-platform/internal/twilio"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

var tracer = otel.Tracer("outreach.internal.voice")

const (
	sayVoice        = "Polly.Joanna"
	retryPriority   = 5
	noInputLine     = "Sorry, I didn't hear anything. We'll try you again another time. Goodbye!"
	agentErrorLine  = "Sorry, I'm having trouble on my end. Someone from our team will follow up with you. Goodbye!"
	bookingNote     = "Booked by voice agent"
	defaultRetryGap = 24 * time.Hour
)

// LeadStore is the part of the lead repository the webhooks touch.
type LeadStore interface {
	GetByID(ctx context.Context, id int64) (*leads.Lead, error)
	Update(ctx context.Context, id int64, req *leads.UpdateLeadRequest) (*leads.Lead, error)
	TransitionStatus(ctx context.Context, id int64, from, to string) (bool, error)
}

// SettingsSource yields the current runtime credentials.
type SettingsSource interface {
	Snapshot(ctx context.Context) (settings.Snapshot, error)
}

// AgentSource picks the conversation agent for the current settings.
type AgentSource interface {
	Agent(ctx context.Context, snap settings.Snapshot) Agent
}

// Booker records appointments agreed on a call.
type Booker interface {
	Book(ctx context.Context, req *appointments.CreateRequest) (*appointments.Appointment, error)
}

// FollowUps schedules retries and closes dispatched follow-ups.
type FollowUps interface {
	Schedule(ctx context.Context, leadID int64, after time.Duration, priority int, reason string) (*followups.FollowUp, error)
	CallEnded(ctx context.Context, leadID int64) error
}

// Publisher receives live call events.
type Publisher interface {
	Publish(ev livecalls.Event)
	LeadChanged(lead *leads.Lead)
}

// CallArchiver keeps a copy of finished calls.
type CallArchiver interface {
	Archive(ctx context.Context, in archive.CallInput)
}

// Handler serves the Twilio call webhooks.
type Handler struct {
	leads      LeadStore
	logs       calllogs.Store
	settings   SettingsSource
	agents     AgentSource
	booker     Booker
	followUps  FollowUps
	events     Publisher
	dedupe     events.Deduper
	archiver   CallArchiver
	metrics    *metrics.OutreachMetrics
	retryAfter time.Duration
	loc        *time.Location
	now        func() time.Time
	logger     *logging.Logger
}

// Option customizes a Handler.
type Option func(*Handler)

// WithBooker creates appointment rows for slots agreed on a call.
func WithBooker(b Booker) Option {
	return func(h *Handler) { h.booker = b }
}

// WithFollowUps schedules retries for unanswered calls.
func WithFollowUps(f FollowUps) Option {
	return func(h *Handler) { h.followUps = f }
}

// WithPublisher streams call progress to dashboards.
func WithPublisher(p Publisher) Option {
	return func(h *Handler) { h.events = p }
}

// WithDeduper drops retried terminal status callbacks for a CallSid.
func WithDeduper(d events.Deduper) Option {
	return func(h *Handler) { h.dedupe = d }
}

// WithArchiver stores each completed call transcript.
func WithArchiver(a CallArchiver) Option {
	return func(h *Handler) { h.archiver = a }
}

func WithMetrics(m *metrics.OutreachMetrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithRetryAfter sets the delay before a busy or unanswered lead is retried.
func WithRetryAfter(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.retryAfter = d
		}
	}
}

// WithLocation sets the zone used to resolve "tomorrow" and weekdays.
func WithLocation(loc *time.Location) Option {
	return func(h *Handler) {
		if loc != nil {
			h.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func NewHandler(leadStore LeadStore, logs calllogs.Store, src SettingsSource, agents AgentSource, logger *logging.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		leads:      leadStore,
		logs:       logs,
		settings:   src,
		agents:     agents,
		retryAfter: defaultRetryGap,
		loc:        time.UTC,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Voice handles POST /webhook/voice: the call was answered, speak the opener
// and listen.
func (h *Handler) Voice(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "voice.webhook.voice")
	defer span.End()

	snap, ok := h.begin(w, r, "voice")
	if !ok {
		return
	}
	leadID, lead := h.lookupLead(ctx, r)
	callSID := strings.TrimSpace(r.FormValue("CallSid"))
	span.SetAttributes(attribute.Int64("outreach.lead_id", leadID), attribute.String("outreach.twilio.call_sid", callSID))

	script := strings.TrimSpace(r.URL.Query().Get("script"))
	if script == "" {
		script = dialer.DefaultScript(lead)
	}
	if lead != nil {
		h.record(ctx, lead.ID, calllogs.StatusStarted, calllogs.BotLine(script), callSID, 0)
		h.publish(livecalls.Event{Type: livecalls.EventCallStarted, LeadID: lead.ID, Status: calllogs.StatusStarted})
		h.publish(livecalls.Event{Type: livecalls.EventTranscript, LeadID: lead.ID, Speaker: calllogs.SpeakerAssistant, Text: script})
	}

	resp := &twilio.Response{}
	resp.Add(
		twilio.SpeechGather(script, sayVoice, h.responseURL(snap, leadID)),
		&twilio.Say{Voice: sayVoice, Text: noInputLine},
		&twilio.Hangup{},
	)
	h.writeTwiML(w, resp)
	h.metrics.ObserveWebhook("voice", "ok")
}

// Response handles POST /webhook/response: the lead spoke, decide what to say.
func (h *Handler) Response(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "voice.webhook.response")
	defer span.End()

	snap, ok := h.begin(w, r, "response")
	if !ok {
		return
	}
	leadID, lead := h.lookupLead(ctx, r)
	callSID := strings.TrimSpace(r.FormValue("CallSid"))
	speech := strings.TrimSpace(r.FormValue("SpeechResult"))
	span.SetAttributes(attribute.Int64("outreach.lead_id", leadID), attribute.String("outreach.twilio.call_sid", callSID))

	var history []calllogs.Turn
	if lead != nil {
		logs, err := h.logs.Thread(ctx, lead.ID)
		if err != nil {
			h.logger.Error("failed to load call history", "error", err, "lead_id", lead.ID)
		}
		history = calllogs.Conversation(currentCall(logs), true)
	}

	reply, err := h.agents.Agent(ctx, snap).Respond(ctx, Session{
		Lead:    lead,
		History: history,
		Speech:  speech,
		Now:     h.now(),
		Loc:     h.loc,
	})
	if err != nil {
		span.RecordError(err)
		h.logger.Error("voice agent failed", "error", err, "lead_id", leadID)
		resp := &twilio.Response{}
		resp.Add(&twilio.Say{Voice: sayVoice, Text: agentErrorLine}, &twilio.Hangup{})
		h.writeTwiML(w, resp)
		h.metrics.ObserveWebhook("response", "error")
		return
	}

	if lead != nil {
		if speech != "" {
			h.record(ctx, lead.ID, calllogs.StatusInProgress, calllogs.LeadLine(speech), callSID, 0)
			h.publish(livecalls.Event{Type: livecalls.EventTranscript, LeadID: lead.ID, Speaker: calllogs.SpeakerLead, Text: speech})
		}
		h.record(ctx, lead.ID, calllogs.StatusInProgress, calllogs.BotLine(reply.Text), callSID, 0)
		h.publish(livecalls.Event{Type: livecalls.EventTranscript, LeadID: lead.ID, Speaker: calllogs.SpeakerAssistant, Text: reply.Text})
		if reply.Result.Complete {
			h.finish(ctx, lead, reply.Result)
			h.archiveCall(ctx, lead, callSID, history, speech, reply)
		}
	}

	resp := &twilio.Response{}
	if reply.Result.Complete {
		resp.Add(&twilio.Say{Voice: sayVoice, Text: reply.Text}, &twilio.Hangup{})
	} else {
		resp.Add(
			twilio.SpeechGather(reply.Text, sayVoice, h.responseURL(snap, leadID)),
			&twilio.Say{Voice: sayVoice, Text: noInputLine},
			&twilio.Hangup{},
		)
	}
	h.writeTwiML(w, resp)
	outcome := "continue"
	if reply.Result.Complete {
		outcome = "complete"
	}
	h.metrics.ObserveWebhook("response", outcome)
}

// Status handles POST /webhook/status call progress callbacks.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "voice.webhook.status")
	defer span.End()

	if _, ok := h.begin(w, r, "status"); !ok {
		return
	}
	callSID := strings.TrimSpace(r.FormValue("CallSid"))
	status := strings.ToLower(strings.TrimSpace(r.FormValue("CallStatus")))
	duration, _ := strconv.Atoi(r.FormValue("CallDuration"))
	leadID, hasLead := leadIDParam(r)
	span.SetAttributes(
		attribute.Int64("outreach.lead_id", leadID),
		attribute.String("outreach.twilio.call_sid", callSID),
		attribute.String("outreach.twilio.call_status", status),
	)
	h.metrics.ObserveWebhook("status", status)

	if !hasLead || !terminalStatus(status) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	dedupe := h.dedupe != nil && callSID != ""
	eventID := callSID + ":" + status
	if dedupe {
		seen, err := h.dedupe.AlreadyProcessed(ctx, events.ProviderTwilio, eventID)
		if err != nil {
			h.logger.Warn("status dedupe unavailable", "error", err, "call_sid", callSID)
		} else if seen {
			h.logger.Debug("duplicate status callback", "call_sid", callSID, "call_status", status)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	moved, err := h.leads.TransitionStatus(ctx, leadID, leads.StatusCalling, leads.StatusCallAttempted)
	if err != nil {
		// Leave the event unmarked so Twilio's retry gets another attempt.
		span.RecordError(err)
		h.logger.Error("failed to update lead after call", "error", err, "lead_id", leadID, "call_status", status)
		h.metrics.ObserveWebhook("status", "error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if dedupe {
		first, err := h.dedupe.MarkProcessed(ctx, events.ProviderTwilio, eventID)
		if err != nil {
			h.logger.Warn("failed to mark status callback processed", "error", err, "call_sid", callSID)
		} else if !first && !moved {
			h.logger.Debug("duplicate status callback", "call_sid", callSID, "call_status", status)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	if moved {
		h.record(ctx, leadID, status, "Call ended with status: "+status, callSID, duration)
		if lead, err := h.leads.GetByID(ctx, leadID); err == nil && h.events != nil {
			h.events.LeadChanged(lead)
		}
	}
	h.publish(livecalls.Event{Type: livecalls.EventCallStatus, LeadID: leadID, Status: status})

	if h.followUps != nil {
		if err := h.followUps.CallEnded(ctx, leadID); err != nil {
			h.logger.Error("failed to close follow-ups", "error", err, "lead_id", leadID)
		}
		if moved && (status == "busy" || status == "no-answer") {
			reason := "Retry after " + status
			if _, err := h.followUps.Schedule(ctx, leadID, h.retryAfter, retryPriority, reason); err != nil {
				h.logger.Error("failed to schedule retry", "error", err, "lead_id", leadID)
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// begin loads settings and checks the Twilio signature. It writes the error
// response itself and reports false when the request must stop.
func (h *Handler) begin(w http.ResponseWriter, r *http.Request, kind string) (settings.Snapshot, bool) {
	snap, err := h.settings.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		h.metrics.ObserveWebhook(kind, "error")
		return settings.Snapshot{}, false
	}
	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse twilio form", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		h.metrics.ObserveWebhook(kind, "bad_request")
		return snap, false
	}
	token := snap.TwilioAuthToken()
	if token == "" {
		return snap, true
	}
	for _, u := range signedURLs(r, snap.CallbackURL()) {
		if twilio.ValidateSignature(r, token, u) {
			return snap, true
		}
	}
	h.logger.Warn("invalid twilio signature", "path", r.URL.Path)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
	h.metrics.ObserveWebhook(kind, "unauthorized")
	return snap, false
}

// signedURLs are the URLs Twilio may have signed: the one it reached us on,
// and the configured callback base for deployments behind a tunnel.
func signedURLs(r *http.Request, callbackBase string) []string {
	urls := []string{twilio.RequestURL(r)}
	if base := strings.TrimRight(callbackBase, "/"); base != "" {
		u := base + "/" + path.Base(r.URL.Path)
		if r.URL.RawQuery != "" {
			u += "?" + r.URL.RawQuery
		}
		urls = append(urls, u)
	}
	return urls
}

func (h *Handler) lookupLead(ctx context.Context, r *http.Request) (int64, *leads.Lead) {
	id, ok := leadIDParam(r)
	if !ok {
		return 0, nil
	}
	lead, err := h.leads.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			h.logger.Warn("webhook for unknown lead", "lead_id", id)
		} else {
			h.logger.Error("failed to load lead", "error", err, "lead_id", id)
		}
		return id, nil
	}
	return id, lead
}

func (h *Handler) responseURL(snap settings.Snapshot, leadID int64) string {
	if leadID <= 0 {
		return strings.TrimRight(snap.CallbackURL(), "/") + "/response"
	}
	return dialer.ResponseURL(snap.CallbackURL(), leadID)
}

// finish writes the call outcome onto the lead.
func (h *Handler) finish(ctx context.Context, lead *leads.Lead, res Result) {
	mobile := res.UsesMobile
	if !leads.ValidMobileUsage(mobile) {
		mobile = leads.MobileUnknown
	}
	count := res.EmployeeCount

	if res.AppointmentSet && res.AppointmentDate != "" && res.AppointmentTime != "" && h.booker != nil {
		appt, err := h.booker.Book(ctx, &appointments.CreateRequest{
			LeadID: lead.ID,
			Date:   res.AppointmentDate,
			Time:   res.AppointmentTime,
			Status: appointments.StatusScheduled,
			Medium: appointments.MediumPhone,
			Notes:  bookingNote,
		})
		if err == nil {
			h.logger.Info("appointment booked on call", "lead_id", lead.ID, "appointment_id", appt.ID)
			h.updateLead(ctx, lead.ID, &leads.UpdateLeadRequest{UsesMobileDevices: &mobile, EmployeeCount: &count})
			return
		}
		h.logger.Error("failed to book appointment from call", "error", err, "lead_id", lead.ID)
	}

	req := &leads.UpdateLeadRequest{UsesMobileDevices: &mobile, EmployeeCount: &count}
	var status, qualification string
	switch {
	case res.AppointmentSet:
		status, qualification = leads.StatusAppointmentSet, leads.QualificationQualified
		req.AppointmentDate = &res.AppointmentDate
		req.AppointmentTime = &res.AppointmentTime
	case res.Declined:
		status, qualification = leads.StatusDeclined, leads.QualificationNotQualified
	case res.Qualified:
		status, qualification = leads.StatusCompleted, leads.QualificationQualified
	default:
		status, qualification = leads.StatusCompleted, leads.QualificationNotQualified
	}
	req.Status = &status
	req.QualificationStatus = &qualification
	h.updateLead(ctx, lead.ID, req)
}

// archiveCall hands the finished call to the archiver off the request path.
func (h *Handler) archiveCall(ctx context.Context, lead *leads.Lead, callSID string, history []calllogs.Turn, speech string, reply Reply) {
	if h.archiver == nil {
		return
	}
	now := h.now()
	turns := make([]archive.Turn, 0, len(history)+2)
	for _, t := range history {
		turns = append(turns, archive.Turn{Speaker: t.Speaker, Text: t.Text, At: t.At})
	}
	if speech != "" {
		turns = append(turns, archive.Turn{Speaker: calllogs.SpeakerLead, Text: speech, At: now})
	}
	turns = append(turns, archive.Turn{Speaker: calllogs.SpeakerAssistant, Text: reply.Text, At: now})

	res := reply.Result
	in := archive.CallInput{
		CallSID:         callSID,
		LeadID:          lead.ID,
		Phone:           lead.Phone,
		Industry:        lead.IndustryLabel(),
		Turns:           turns,
		AppointmentSet:  res.AppointmentSet,
		Qualified:       res.Qualified,
		Declined:        res.Declined,
		UsesMobile:      res.UsesMobile,
		EmployeeCount:   res.EmployeeCount,
		AppointmentDate: res.AppointmentDate,
		AppointmentTime: res.AppointmentTime,
	}
	go func() {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		h.archiver.Archive(actx, in)
	}()
}

func (h *Handler) updateLead(ctx context.Context, id int64, req *leads.UpdateLeadRequest) {
	updated, err := h.leads.Update(ctx, id, req)
	if err != nil {
		h.logger.Error("failed to record call outcome", "error", err, "lead_id", id)
		return
	}
	h.logger.Info("call outcome recorded", "lead_id", id, "status", updated.Status, "qualification", updated.QualificationStatus)
	if h.events != nil {
		h.events.LeadChanged(updated)
	}
}

func (h *Handler) record(ctx context.Context, leadID int64, status, transcript, callSID string, duration int) {
	_, err := h.logs.Create(ctx, &calllogs.CallLog{
		LeadID:     leadID,
		CallStatus: status,
		Transcript: transcript,
		Duration:   duration,
		CallSID:    callSID,
	})
	if err != nil {
		h.logger.Error("failed to write call log", "error", err, "lead_id", leadID, "call_status", status)
	}
}

func (h *Handler) publish(ev livecalls.Event) {
	if h.events != nil {
		h.events.Publish(ev)
	}
}

func (h *Handler) writeTwiML(w http.ResponseWriter, resp *twilio.Response) {
	if err := resp.Write(w); err != nil {
		h.logger.Error("failed to write twiml", "error", err)
	}
}

// currentCall keeps the logs from the most recent call start onwards.
func currentCall(logs []*calllogs.CallLog) []*calllogs.CallLog {
	for i := len(logs) - 1; i >= 0; i-- {
		if logs[i].CallStatus == calllogs.StatusStarted {
			return logs[i:]
		}
	}
	return logs
}

func leadIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("lead_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func terminalStatus(status string) bool {
	switch status {
	case "completed", "failed", "busy", "no-answer":
		return true
	}
	return false
}
