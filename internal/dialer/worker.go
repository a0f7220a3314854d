package dialer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/hours"
	"github.com/wolfman30/outreach-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

type caller interface {
	Call(ctx context.Context, req CallRequest) (*CallResult, error)
}

// Worker drains the dial queue and places one call per job.
type Worker struct {
	queue     Queue
	caller    caller
	metrics   *metrics.OutreachMetrics
	logger    *logging.Logger
	workers   int
	batchSize int
	waitSecs  int
}

func NewWorker(queue Queue, c caller, m *metrics.OutreachMetrics, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		queue:     queue,
		caller:    c,
		metrics:   m,
		logger:    logger,
		workers:   1,
		batchSize: 5,
		waitSecs:  10,
	}
}

func (w *Worker) WithWorkers(n int) *Worker {
	if n > 0 {
		w.workers = n
	}
	return w
}

func (w *Worker) WithBatchSize(n int) *Worker {
	if n > 0 {
		w.batchSize = n
	}
	return w
}

func (w *Worker) WithReceiveWait(d time.Duration) *Worker {
	if d > 0 {
		w.waitSecs = int(d / time.Second)
	}
	return w
}

// Run blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i + 1)
	}
	wg.Wait()
}

func (w *Worker) loop(ctx context.Context, workerID int) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		messages, err := w.queue.Receive(ctx, w.batchSize, w.waitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to receive dial jobs", "error", err, "worker_id", workerID)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		for _, msg := range messages {
			w.Handle(ctx, msg)
		}
	}
}

// Handle processes one message. It is deleted after a successful call or a
// permanent failure; anything else becomes visible again for a retry.
func (w *Worker) Handle(ctx context.Context, msg Message) {
	job, err := decodeJob(msg.Body)
	if err != nil {
		w.logger.Error("dropping undecodable dial job", "message_id", msg.ID, "error", err)
		w.ack(msg, "dropped")
		return
	}

	res, err := w.caller.Call(ctx, CallRequest{LeadID: job.LeadID, Script: job.Script})
	switch {
	case err == nil:
		w.logger.Info("dial job completed", "job_id", job.ID, "lead_id", job.LeadID, "call_sid", res.CallSID)
		w.ack(msg, "completed")
	case permanent(err):
		w.logger.Warn("dial job failed permanently", "job_id", job.ID, "lead_id", job.LeadID, "error", err)
		w.ack(msg, "dropped")
	case errors.Is(err, hours.ErrOutsideCallingHours):
		w.logger.Info("dial job deferred outside calling hours", "job_id", job.ID, "lead_id", job.LeadID)
		w.metrics.ObserveDialJob("deferred")
	default:
		w.logger.Error("dial job failed, will retry", "job_id", job.ID, "lead_id", job.LeadID, "error", err)
		w.metrics.ObserveDialJob("retry")
	}
}

func (w *Worker) ack(msg Message, outcome string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Error("failed to delete dial job", "message_id", msg.ID, "error", err)
		return
	}
	w.metrics.ObserveDialJob(outcome)
}

func permanent(err error) bool {
	return errors.Is(err, ErrLeadNotFound) ||
		errors.Is(err, ErrNoCallerNumber) ||
		IsValidationError(err)
}
