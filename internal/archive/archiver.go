package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// CallInput is what the voice webhook knows when a call completes.
type CallInput struct {
	CallSID  string
	LeadID   int64
	Phone    string
	Industry string
	Agent    string
	Turns    []Turn

	AppointmentSet  bool
	Qualified       bool
	Declined        bool
	UsesMobile      string
	EmployeeCount   int
	AppointmentDate string
	AppointmentTime string
}

// Outcome collapses the call result flags into one label.
func (in CallInput) Outcome() string {
	switch {
	case in.AppointmentSet:
		return OutcomeAppointmentSet
	case in.Declined:
		return OutcomeDeclined
	case in.Qualified:
		return OutcomeQualified
	default:
		return OutcomeNotQualified
	}
}

// Archiver scrubs and stores finished calls. Failures are logged and never
// reach the caller.
type Archiver struct {
	store  *Store
	logger *logging.Logger
	now    func() time.Time
}

// NewArchiver returns nil when store is not enabled; a nil Archiver is a no-op.
func NewArchiver(store *Store, logger *logging.Logger) *Archiver {
	if !store.Enabled() {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Archiver{store: store, logger: logger, now: time.Now}
}

// Record builds the scrubbed record for in.
func (a *Archiver) Record(in CallInput) *CallRecord {
	turns := make([]Turn, len(in.Turns))
	copy(turns, in.Turns)
	ScrubTurns(turns)

	var duration int
	if len(turns) >= 2 && !turns[0].At.IsZero() {
		duration = int(turns[len(turns)-1].At.Sub(turns[0].At).Seconds())
	}
	now := a.now().UTC()
	callSID := in.CallSID
	if callSID == "" {
		callSID = fmt.Sprintf("lead-%d-%s", in.LeadID, now.Format("20060102T150405"))
	}

	return &CallRecord{
		Version:      "1.0",
		CallSID:      callSID,
		LeadID:       in.LeadID,
		Industry:     in.Industry,
		PhoneHash:    HashPhone(in.Phone),
		ArchivedAt:   now,
		DurationSecs: duration,
		TurnCount:    len(turns),
		Outcome:      in.Outcome(),
		Labels: Labels{
			UsesMobileDevices: in.UsesMobile,
			EmployeeCount:     in.EmployeeCount,
			AppointmentDate:   in.AppointmentDate,
			AppointmentTime:   in.AppointmentTime,
			Agent:             in.Agent,
		},
		Turns: turns,
	}
}

// Archive stores the call.
func (a *Archiver) Archive(ctx context.Context, in CallInput) {
	if a == nil {
		return
	}
	record := a.Record(in)
	if err := a.store.ArchiveCall(ctx, record); err != nil {
		a.logger.Error("call archive failed", "error", err, "call_sid", record.CallSID, "lead_id", in.LeadID)
	}
}
