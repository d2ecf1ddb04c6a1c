package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// sendBuffer is the number of frames queued per client before it is
// considered too slow and disconnected.
const sendBuffer = 64

// Hub fans layout frames out to websocket clients. Notify only marks the
// layout as changed; the Run loop takes a snapshot and broadcasts it, so a
// burst of changes costs one frame.
type Hub struct {
	logger  *zap.Logger
	changed chan struct{}

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		changed: make(chan struct{}, 1),
		clients: make(map[*client]struct{}),
	}
}

// Notify schedules a broadcast. It never blocks and is safe to use as a
// layout frame callback.
func (h *Hub) Notify() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

// Run broadcasts snapshot() after every Notify until ctx ends, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context, snapshot func() ServerMessage) {
	defer h.CloseAll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.changed:
			if h.Clients() == 0 {
				continue
			}
			h.Broadcast(snapshot())
		}
	}
}

// Broadcast sends msg to every client. Clients whose queue is full are
// dropped.
func (h *Hub) Broadcast(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("websocket client too slow, disconnecting")
			h.drop(c)
		}
	}
}

// sendTo queues msg for one client. It reports false once the client has
// been removed.
func (h *Hub) sendTo(c *client, msg ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", zap.Error(err))
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		h.drop(c)
		return false
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.drop(c)
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.logger.Debug("websocket client connected", zap.Int("clients", len(h.clients)))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
	h.logger.Debug("websocket client disconnected", zap.Int("clients", len(h.clients)))
}

// drop must be called with h.mu held.
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// client is one websocket connection. Its send channel is closed by the
// hub when the client is removed, which ends writePump.
type client struct {
	conn *websocket.Conn
	send chan []byte

	dragging string // Entity held by this client
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBuffer)}
}

// writePump writes queued messages until the queue is closed or a write
// fails, then closes the connection.
func (c *client) writePump(timeout time.Duration, logger *zap.Logger) {
	defer func() {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for data := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := c.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}
