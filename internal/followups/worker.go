package followups

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/hours"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

type dispatcher interface {
	Dispatch(ctx context.Context, max int) (Result, error)
}

// Worker runs Dispatch on a ticker.
type Worker struct {
	service   dispatcher
	logger    *logging.Logger
	interval  time.Duration
	batchSize int
}

func NewWorker(service dispatcher, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		service:   service,
		logger:    logger,
		interval:  5 * time.Minute,
		batchSize: 10,
	}
}

func (w *Worker) WithInterval(d time.Duration) *Worker {
	if d > 0 {
		w.interval = d
	}
	return w
}

func (w *Worker) WithBatchSize(n int) *Worker {
	if n > 0 {
		w.batchSize = n
	}
	return w
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	if w.service == nil {
		return
	}
	res, err := w.service.Dispatch(ctx, w.batchSize)
	switch {
	case errors.Is(err, hours.ErrOutsideCallingHours):
		w.logger.Debug("follow-up dispatch skipped outside calling hours")
	case err != nil:
		w.logger.Error("follow-up dispatch failed", "error", err)
	case res.Count > 0:
		w.logger.Info("follow-up round complete", "count", res.Count, "follow_up_ids", res.FollowUpIDs)
	}
}
