package dialer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Queue carries dial jobs between the API and the dial worker.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Message is one received queue entry.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Job asks the worker to call one lead.
type Job struct {
	ID         string    `json:"id"`
	LeadID     int64     `json:"lead_id"`
	Script     string    `json:"script,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewJob stamps a job for leadID.
func NewJob(leadID int64, script string) Job {
	return Job{
		ID:         uuid.NewString(),
		LeadID:     leadID,
		Script:     script,
		EnqueuedAt: time.Now().UTC(),
	}
}

func encodeJob(j Job) (string, error) {
	body, err := json.Marshal(j)
	if err != nil {
		return "", fmt.Errorf("dialer: encode job: %w", err)
	}
	return string(body), nil
}

func decodeJob(body string) (Job, error) {
	var j Job
	if err := json.Unmarshal([]byte(body), &j); err != nil {
		return Job{}, fmt.Errorf("dialer: decode job: %w", err)
	}
	if j.LeadID <= 0 {
		return Job{}, fmt.Errorf("dialer: decode job: %w", ErrMissingLeadID)
	}
	return j, nil
}
