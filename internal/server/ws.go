package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/ayusman/gestos/internal/logging"
)

const (
	// clientBuffer is the number of queued messages per websocket client.
	// Messages for a client whose queue is full are dropped.
	clientBuffer = 32
	writeTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// EventsHandler pushes published events to websocket clients as JSON text
// frames of the form {"kind": ..., "data": ...}. Publish never blocks.
type EventsHandler struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
	dropped uint64
	log     *log.Logger
}

// NewEventsHandler creates an EventsHandler with no clients.
func NewEventsHandler() *EventsHandler {
	return &EventsHandler{
		clients: make(map[*wsClient]struct{}),
		log:     logging.WithPrefix("ws"),
	}
}

type eventMessage struct {
	Kind string         `json:"kind"`
	Data map[string]any `json:"data"`
	At   int64          `json:"ts"`
}

// Publish queues an event for every client. Its signature matches the
// local event bus handler once kind is bound.
func (h *EventsHandler) Publish(kind string, data map[string]any) error {
	msg, err := json.Marshal(eventMessage{Kind: kind, Data: data, At: time.Now().UnixMilli()})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropped++
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many messages were dropped for slow clients.
func (h *EventsHandler) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Close disconnects every client and rejects new ones.
func (h *EventsHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)

	// Reads only detect disconnects; client messages are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *EventsHandler) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *EventsHandler) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("websocket write failed", "err", err)
			h.remove(c)
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
}
