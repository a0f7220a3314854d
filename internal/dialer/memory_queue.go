package dialer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue is a Queue backed by a buffered channel. Received messages that
// are never deleted are redelivered after the visibility timeout.
type MemoryQueue struct {
	ch         chan Message
	visibility time.Duration

	mu       sync.Mutex
	inflight map[string]*time.Timer
}

// NewMemoryQueue creates a MemoryQueue with the provided buffer capacity.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &MemoryQueue{
		ch:         make(chan Message, buffer),
		visibility: 30 * time.Second,
		inflight:   make(map[string]*time.Timer),
	}
}

// WithVisibilityTimeout sets how long a received message stays hidden.
func (q *MemoryQueue) WithVisibilityTimeout(d time.Duration) *MemoryQueue {
	if d > 0 {
		q.visibility = d
	}
	return q
}

// Send enqueues a payload or blocks until ctx is done.
func (q *MemoryQueue) Send(ctx context.Context, body string) error {
	return q.push(ctx, Message{ID: uuid.NewString(), Body: body})
}

func (q *MemoryQueue) push(ctx context.Context, msg Message) error {
	msg.ReceiptHandle = uuid.NewString()
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive blocks until a message is available, ctx is done, or waitSeconds elapses.
func (q *MemoryQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error) {
	if maxMessages <= 0 {
		maxMessages = 1
	}
	var timeout <-chan time.Time
	if waitSeconds > 0 {
		timer := time.NewTimer(time.Duration(waitSeconds) * time.Second)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, nil
	case msg := <-q.ch:
		return q.collect(msg, maxMessages), nil
	}
}

// Delete acknowledges a received message.
func (q *MemoryQueue) Delete(_ context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.inflight[receiptHandle]; ok {
		t.Stop()
		delete(q.inflight, receiptHandle)
	}
	return nil
}

// Len is the number of messages waiting for delivery.
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

func (q *MemoryQueue) collect(first Message, max int) []Message {
	messages := []Message{q.track(first)}
	for len(messages) < max {
		select {
		case msg := <-q.ch:
			messages = append(messages, q.track(msg))
		default:
			return messages
		}
	}
	return messages
}

func (q *MemoryQueue) track(msg Message) Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	receipt := msg.ReceiptHandle
	q.inflight[receipt] = time.AfterFunc(q.visibility, func() {
		q.mu.Lock()
		_, pending := q.inflight[receipt]
		delete(q.inflight, receipt)
		q.mu.Unlock()
		if pending {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = q.push(ctx, msg)
		}
	})
	return msg
}
