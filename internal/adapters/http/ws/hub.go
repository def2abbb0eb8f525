// Package ws serves the live draw feed over websockets.
//
// Clients connect to the hub and receive one JSON message per recorded
// draw. The feed is one-way: anything a client sends is discarded.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/logger"
	"github.com/okian/raffle/pkg/metrics"
)

const (
	defaultSendBuffer   = 16
	defaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
	maxMessageSize      = 512
)

// Message types sent to clients.
const (
	TypeHello = "hello"
	TypeDraw  = "draw"
)

// Message is the envelope every feed frame uses.
type Message struct {
	Type string           `json:"type"`
	Draw *model.DrawEvent `json:"draw,omitempty"`
}

// Client is one connected feed subscriber.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks feed clients and broadcasts draw events to them.
type Hub struct {
	upgrader     websocket.Upgrader
	sendBuffer   int
	pingInterval time.Duration
	logger       logger.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	clients map[*Client]struct{}
	count   atomic.Int64

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub. Call Run to start it.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sendBuffer:   defaultSendBuffer,
		pingInterval: defaultPingInterval,
		logger:       logger.NewNop(),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcast:    make(chan []byte, defaultSendBuffer),
		clients:      make(map[*Client]struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run owns the client set until ctx ends or Stop is called.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			h.Stop()
			return
		case <-h.done:
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount()
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.setCount()
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: drop it rather than stall the feed.
					delete(h.clients, c)
					close(c.send)
					metrics.RecordEventDropped()
					h.logger.Warn(ctx, "dropping slow feed client", logger.String("remote", c.conn.RemoteAddr().String()))
				}
			}
			h.setCount()
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Name implements worker.Publisher.
func (*Hub) Name() string { return "websocket" }

// Publish implements worker.Publisher. It never waits on clients.
func (h *Hub) Publish(ctx context.Context, e model.DrawEvent) error { //nolint:gocritic // hugeParam: matches Publisher
	payload, err := json.Marshal(Message{Type: TypeDraw, Draw: &e})
	if err != nil {
		return fmt.Errorf("encode draw event: %w", err)
	}
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.broadcast <- payload:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	default:
		metrics.RecordEventDropped()
		return ErrHubBusy
	}
}

// ServeHTTP upgrades the request and subscribes the connection to the feed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	c := &Client{hub: h, conn: conn, send: make(chan []byte, h.sendBuffer)}

	hello, _ := json.Marshal(Message{Type: TypeHello})
	c.send <- hello

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) setCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.UpdateFeedClients(len(h.clients))
}

func (h *Hub) closeAll() {
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.setCount()
}

// readPump discards inbound frames and notices disconnects.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	pongWait := 2 * c.hub.pingInterval
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

// writePump forwards queued messages and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
