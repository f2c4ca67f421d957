// Package stream pushes committed escrow events to websocket subscribers.
package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/letmeget/swapgate/internal/model"
	"github.com/letmeget/swapgate/internal/pkg/logger"
	"github.com/letmeget/swapgate/internal/pkg/metrics"
)

const (
	PingPeriod   = 15 * time.Second // Keep-alive interval
	WriteTimeout = 5 * time.Second
	SendBuffer   = 64
)

// Hub fans events out to connected clients. Publish never blocks; a client
// whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients: make(map[*Client]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Client is one websocket subscriber with an optional filter.
type Client struct {
	conn   *websocket.Conn
	filter model.EventFilter
	send   chan []byte
}

func (h *Hub) Publish(rec *model.EventRecord) {
	var payload []byte
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.filter.Match(rec) {
			continue
		}
		if payload == nil {
			data, err := json.Marshal(rec)
			if err != nil {
				logger.Error("failed to encode event", "id", rec.ID, "error", err)
				return
			}
			payload = data
		}
		select {
		case c.send <- payload:
		default:
			metrics.EventsDropped.Inc()
		}
	}
}

// Serve runs conn until the peer goes away or the hub stops. It blocks.
func (h *Hub) Serve(conn *websocket.Conn, filter model.EventFilter) {
	c := &Client{conn: conn, filter: filter, send: make(chan []byte, SendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		conn.Close()
	}()

	done := make(chan struct{})
	go h.readLoop(c, done)
	h.writeLoop(c, done)
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop disconnects every client.
func (h *Hub) Stop() {
	h.cancel()
}

// readLoop discards client messages and detects dead peers.
func (h *Hub) readLoop(c *Client, done chan struct{}) {
	defer close(done)
	// Zombie Check: no frame or pong within PingPeriod + buffer means dead.
	readTimeout := PingPeriod + 10*time.Second
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *Client, done chan struct{}) {
	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-h.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(WriteTimeout))
			return
		case <-done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("event stream write failed", "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
