// Package livecalls pushes call progress to dashboard websocket subscribers.
package livecalls

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Event types.
const (
	EventCallStarted = "call_started"
	EventTranscript  = "transcript"
	EventCallStatus  = "call_status"
	EventLeadUpdated = "lead_updated"
)

// Event is one websocket frame.
type Event struct {
	Type    string      `json:"type"`
	LeadID  int64       `json:"lead_id"`
	Status  string      `json:"status,omitempty"`
	Speaker string      `json:"speaker,omitempty"`
	Text    string      `json:"text,omitempty"`
	Lead    *leads.Lead `json:"lead,omitempty"`
	At      time.Time   `json:"at"`
}

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	sendBuffer = 32
)

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans events out to every connected subscriber. Slow subscribers are
// dropped rather than blocking publishers.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logging.Logger
	now      func() time.Time

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub builds a hub. allowedOrigins empty or containing "*" accepts any origin.
func NewHub(allowedOrigins []string, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	h := &Hub{
		logger:  logger,
		now:     time.Now,
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := map[string]struct{}{}
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

// ServeHTTP upgrades GET /ws/calls.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan Event, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("live call subscriber connected", "subscribers", n)

	go h.writePump(c)
	h.readPump(c)
}

// Subscribers is the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues ev for every subscriber.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = h.now().UTC()
	}
	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		h.remove(c)
	}
}

// LeadChanged publishes a lead update.
func (h *Hub) LeadChanged(l *leads.Lead) {
	if l == nil {
		return
	}
	h.Publish(Event{Type: EventLeadUpdated, LeadID: l.ID, Status: l.Status, Lead: l})
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range clients {
		close(c.send)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		close(c.send)
	}
}

// readPump discards client frames and notices disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
