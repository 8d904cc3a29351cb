// Package events pushes session status transitions to connected clients over
// websockets. The hub is a plain broadcast fan-out: every client sees every
// event.
package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"photostudio/internal/session"
)

const writeTimeout = 10 * time.Second

// Event is one status transition as sent on the wire.
type Event struct {
	SessionID int64          `json:"sessionId"`
	Status    session.Status `json:"status"`
	Message   string         `json:"message,omitempty"`
	At        int64          `json:"at"`
}

// Hub tracks connected websocket clients and broadcasts status events to all
// of them. Slow or broken clients are dropped on write failure.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	logger     zerolog.Logger
	upgrader   websocket.Upgrader
	now        func() time.Time
}

// NewHub builds a Hub. checkOrigin may be nil to accept all origins.
func NewHub(logger zerolog.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		now: time.Now,
	}
}

// Run services the hub channels until the process exits. Call it once, in its
// own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug().Int("clients", total).Msg("events: client connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug().Int("clients", total).Msg("events: client disconnected")

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(h.now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Debug().Err(err).Msg("events: dropping client on write failure")
					delete(h.clients, conn)
					conn.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish broadcasts one status transition. It is the editor's
// StatusListener.
func (h *Hub) Publish(sessionID int64, status session.Status, message string) {
	data, err := json.Marshal(Event{
		SessionID: sessionID,
		Status:    status,
		Message:   message,
		At:        h.now().UnixMilli(),
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("events: failed to encode event")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn().Msg("events: broadcast buffer full, dropping event")
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until the
// client goes away. Inbound messages are discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("events: websocket upgrade failed")
		return
	}
	h.register <- conn

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
