package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/net/proto"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/sim"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

const writeWait = 2 * time.Second

// Subscriber is one websocket session registered with a Hub.
type Subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteMessage serialises writes from the broadcast and session goroutines.
func (s *Subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// Hub tracks connected sessions and fans snapshots out to them.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*Subscriber
	logger      telemetry.Logger
	metrics     telemetry.Metrics
	clock       logging.Clock
}

// NewHub creates an empty session registry.
func NewHub(logger telemetry.Logger, metrics telemetry.Metrics, clock logging.Clock) *Hub {
	if logger == nil {
		logger = telemetry.Discard()
	}
	if clock == nil {
		clock = logging.SystemClock{}
	}
	return &Hub{
		subscribers: make(map[string]*Subscriber),
		logger:      logger,
		metrics:     metrics,
		clock:       clock,
	}
}

// Subscribe registers a connection under a unique session ID.
func (h *Hub) Subscribe(sessionID string, conn *websocket.Conn) *Subscriber {
	sub := &Subscriber{conn: conn}
	h.mu.Lock()
	h.subscribers[sessionID] = sub
	count := len(h.subscribers)
	h.mu.Unlock()
	h.storeSessions(count)
	return sub
}

// Disconnect drops the session and closes its connection.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	sub, ok := h.subscribers[sessionID]
	if ok {
		delete(h.subscribers, sessionID)
	}
	count := len(h.subscribers)
	h.mu.Unlock()
	if !ok {
		return
	}
	sub.conn.Close()
	h.storeSessions(count)
}

// Sessions reports the number of connected sessions.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Broadcast encodes the snapshot once and pushes it to every session.
// Sessions whose write fails are disconnected.
func (h *Hub) Broadcast(snapshot sim.Snapshot) {
	if h == nil {
		return
	}
	h.mu.Lock()
	subs := make(map[string]*Subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	data, err := proto.EncodeState(snapshot, h.clock.Now().UnixMilli())
	if err != nil {
		h.logger.Printf("failed to marshal state message: %v", err)
		return
	}
	for id, sub := range subs {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Printf("failed to send update to %s: %v", id, err)
			h.Disconnect(id)
		}
	}
}

func (h *Hub) storeSessions(count int) {
	if h.metrics != nil {
		h.metrics.Store(telemetry.MetricWebsocketSessions, uint64(count))
	}
}
