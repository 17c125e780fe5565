// Package gateway streams order lifecycle events to WebSocket clients.
//
// Each client subscribes to one user's events. The Hub is itself a
// model.EventPublisher, so the order engine can publish to it directly,
// or it can be fed from Redis Pub/Sub when events come from another
// process.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/metrics"
	"github.com/Akshit358/Finsage/internal/model"
)

// Envelope is the JSON frame sent to clients for every order event.
type Envelope struct {
	Type  string      `json:"type"`
	Seq   int64       `json:"seq"` // per-user, monotonic
	TS    time.Time   `json:"ts"`
	Order model.Order `json:"order"`
}

// Hub manages WebSocket clients and per-user fan-out.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	seqs       map[string]int64
	replayBufs map[string]*ReplayBuffer

	replaySize int
	upgrader   websocket.Upgrader
	metrics    *metrics.Metrics
	log        *logrus.Entry
	now        func() time.Time
}

// NewHub creates a Hub keeping replaySize envelopes per user.
func NewHub(replaySize int, m *metrics.Metrics, log *logrus.Entry) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		seqs:       make(map[string]int64),
		replayBufs: make(map[string]*ReplayBuffer),
		replaySize: replaySize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		metrics: m,
		log:     log.WithField("component", "ws"),
		now:     time.Now,
	}
}

// Publish implements model.EventPublisher. It never blocks: a client
// whose send queue is full misses the frame and can backfill on
// reconnect.
func (h *Hub) Publish(_ context.Context, ev model.OrderEvent) {
	userID := ev.Order.UserID
	if userID == "" {
		return
	}

	// The whole publish runs under the write lock so a user's frames are
	// buffered and delivered in seq order.
	h.mu.Lock()
	defer h.mu.Unlock()
	seq := h.seqs[userID] + 1
	buf, err := json.Marshal(Envelope{Type: ev.Type, Seq: seq, TS: h.now().UTC(), Order: ev.Order})
	if err != nil {
		h.log.WithError(err).Error("marshal envelope")
		return
	}
	h.seqs[userID] = seq

	rb, ok := h.replayBufs[userID]
	if !ok {
		rb = NewReplayBuffer(h.replaySize)
		h.replayBufs[userID] = rb
	}
	rb.Push(seq, buf)

	for client := range h.clients {
		if client.userID != userID {
			continue
		}
		select {
		case client.send <- buf:
			h.metrics.ObserveEvent("ws", true)
		default:
			h.metrics.ObserveEvent("ws", false)
		}
	}
}

// ServeHTTP upgrades to WebSocket. Query: user_id (required), last_seq
// (optional, replays buffered events after it).
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	lastSeq := int64(-1)
	if v := r.URL.Query().Get("last_seq"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			lastSeq = n
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("upgrade failed")
		return
	}
	h.Register(conn, userID, lastSeq)
}

// Register attaches an upgraded connection to userID's stream. A
// lastSeq >= 0 replays buffered events after it.
func (h *Hub) Register(conn *websocket.Conn, userID string, lastSeq int64) {
	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		hub:    h,
		userID: userID,
	}

	// Replay under the lock so no live frame can interleave with the backfill.
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.replayLocked(client, lastSeq)
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"user_id": userID, "clients": count}).Info("ws client connected")

	go client.writePump()
	go client.readPump()
}

// replayLocked queues c's buffered frames after lastSeq. h.mu must be
// held for writing.
func (h *Hub) replayLocked(c *Client, lastSeq int64) {
	rb := h.replayBufs[c.userID]
	if rb == nil || lastSeq < 0 || !h.clients[c] {
		return
	}
	if oldest, ok := rb.Oldest(); ok && oldest > lastSeq+1 {
		h.log.WithFields(logrus.Fields{
			"user_id":  c.userID,
			"last_seq": lastSeq,
			"oldest":   oldest,
		}).Warn("replay truncated, client missed events")
	}
	for _, frame := range rb.Since(lastSeq) {
		select {
		case c.send <- frame:
		default:
		}
	}
}

// Resume replays frames after lastSeq to an already connected client.
func (h *Hub) Resume(c *Client, lastSeq int64) {
	h.mu.Lock()
	h.replayLocked(c, lastSeq)
	h.mu.Unlock()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Seq returns the last sequence number issued for userID.
func (h *Hub) Seq(userID string) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seqs[userID]
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
