// Package notice holds short-lived status messages shown to an operator
// after an action, such as "Call started" or "Outside of calling hours".
package notice

import (
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a notice stays visible.
	DefaultTTL = 5 * time.Second
	// FollowUpTTL is used for follow-up dispatch notices.
	FollowUpTTL = 3 * time.Second
)

// Kinds.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindInfo    = "info"
)

// Notice is one message with a fixed lifetime.
type Notice struct {
	Kind      string
	Message   string
	CreatedAt time.Time
	TTL       time.Duration
}

// Expired reports whether the notice is no longer shown at now.
func (n Notice) Expired(now time.Time) bool {
	return !now.Before(n.CreatedAt.Add(n.TTL))
}

// Board keeps the visible notices. The zero value is not usable; use NewBoard.
type Board struct {
	mu      sync.Mutex
	notices []Notice
	now     func() time.Time
}

func NewBoard(now func() time.Time) *Board {
	if now == nil {
		now = time.Now
	}
	return &Board{now: now}
}

// Post adds a notice with DefaultTTL.
func (b *Board) Post(kind, message string) Notice {
	return b.PostFor(kind, message, DefaultTTL)
}

// PostFor adds a notice with an explicit lifetime.
func (b *Board) PostFor(kind, message string, ttl time.Duration) Notice {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	n := Notice{Kind: kind, Message: message, CreatedAt: b.now(), TTL: ttl}
	b.mu.Lock()
	b.notices = append(b.notices, n)
	b.mu.Unlock()
	return n
}

// Success and Error are shorthands for Post.
func (b *Board) Success(message string) Notice { return b.Post(KindSuccess, message) }
func (b *Board) Error(message string) Notice   { return b.Post(KindError, message) }

// Active drops expired notices and returns the rest, oldest first.
func (b *Board) Active() []Notice {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.notices[:0]
	for _, n := range b.notices {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	b.notices = kept
	out := make([]Notice, len(kept))
	copy(out, kept)
	return out
}
