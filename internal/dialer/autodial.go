package dialer

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// AutoDialResult lists the leads that were queued and those skipped.
type AutoDialResult struct {
	Queued  []int64 `json:"queued"`
	Skipped []int64 `json:"skipped"`
}

// Enqueuer turns auto-dial requests into dial jobs.
type Enqueuer struct {
	leads   LeadStore
	queue   Queue
	gate    HoursChecker
	metrics *metrics.OutreachMetrics
	logger  *logging.Logger
}

func NewEnqueuer(leadStore LeadStore, queue Queue, gate HoursChecker, m *metrics.OutreachMetrics, logger *logging.Logger) *Enqueuer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Enqueuer{leads: leadStore, queue: queue, gate: gate, metrics: m, logger: logger}
}

// AutoDial queues a dial job per dialable lead. Unknown ids and leads that are
// already Calling or Appointment Set are skipped.
func (e *Enqueuer) AutoDial(ctx context.Context, ids []int64) (AutoDialResult, error) {
	res := AutoDialResult{Queued: []int64{}, Skipped: []int64{}}
	if len(ids) == 0 {
		return res, ErrNoLeadIDs
	}
	if e.gate != nil {
		if err := e.gate.Check(ctx); err != nil {
			return res, err
		}
	}

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		lead, err := e.leads.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, leads.ErrLeadNotFound) {
				res.Skipped = append(res.Skipped, id)
				continue
			}
			return res, fmt.Errorf("dialer: load lead %d: %w", id, err)
		}
		if !lead.Dialable() {
			res.Skipped = append(res.Skipped, id)
			continue
		}
		body, err := encodeJob(NewJob(id, ""))
		if err != nil {
			return res, err
		}
		if err := e.queue.Send(ctx, body); err != nil {
			return res, err
		}
		e.metrics.ObserveDialJob("enqueued")
		res.Queued = append(res.Queued, id)
	}
	e.logger.Info("auto dial queued", "queued", len(res.Queued), "skipped", len(res.Skipped))
	return res, nil
}
