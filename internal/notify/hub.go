package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
)

// AllEvents subscribes a connection to every booking event. Staff consoles
// use it.
const AllEvents = "*"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

type client struct {
	conn       *websocket.Conn
	subscriber string
	send       chan []byte
}

// Hub keeps the WebSocket connections open on this instance, keyed by the
// requester they listen for.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:  logger,
		clients: make(map[string]map[*client]struct{}),
	}
}

// ServeWS upgrades the request and streams events addressed to subscriber
// until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, subscriber string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, subscriber: subscriber, send: make(chan []byte, sendBufferSize)}
	h.register(c)

	go h.writePump(c)
	go h.readPump(c)

	return nil
}

// Deliver pushes the event to the requester's connections and to staff
// connections. Slow connections that cannot keep up are dropped.
func (h *Hub) Deliver(event domain.BookingStatusChanged) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encoding booking event for push", "booking_id", event.BookingID, "error", err)
		return
	}

	h.mu.RLock()
	var slow []*client
	for _, key := range []string{event.RequesterRef, AllEvents} {
		for c := range h.clients[key] {
			select {
			case c.send <- payload:
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow websocket subscriber", "subscriber", c.subscriber)
		h.unregister(c)
	}
}

// Subscribers returns the number of open connections for subscriber.
func (h *Hub) Subscribers(subscriber string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[subscriber])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.subscriber] == nil {
		h.clients[c.subscriber] = make(map[*client]struct{})
	}

	h.clients[c.subscriber][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.subscriber]
	if !ok {
		return
	}

	if _, ok := conns[c]; !ok {
		return
	}

	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.subscriber)
	}

	close(c.send)
}

// readPump only processes control frames; clients never send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
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
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
