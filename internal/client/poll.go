package client

import (
	"context"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/leads"
)

// Poll calls fn immediately and then every interval until ctx is done or fn
// returns an error. There is no backoff; a slow fn delays the next tick.
func Poll(ctx context.Context, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := fn(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WatchCalling polls GET /leads?status=Calling and hands each snapshot to fn.
func (c *Client) WatchCalling(ctx context.Context, interval time.Duration, fn func(calling []int64) error) error {
	return Poll(ctx, interval, func(ctx context.Context) error {
		list, err := c.ListLeads(ctx, LeadQuery{Status: leads.StatusCalling})
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(list))
		for _, l := range list {
			ids = append(ids, l.ID)
		}
		return fn(ids)
	})
}
