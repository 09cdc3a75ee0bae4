// Package monitor broadcasts repeater call-lifecycle events to connected
// websocket clients, the way a live "who's on the repeater" dashboard
// would consume them. It implements repeater.Observer so the dispatch
// loop can notify it the same way it notifies pkg/callhistory, without
// pkg/repeater importing either.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/logger"
	"github.com/gorilla/websocket"
)

// Event is a single JSON message broadcast to every connected client.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Marshal converts an event to JSON bytes.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// client is one connected websocket reader/writer pair.
type client struct {
	id       string
	conn     *websocket.Conn
	messages chan []byte
}

// Hub fans call-lifecycle events out to every connected websocket client.
// A Hub must be started with Run before any events will be delivered;
// Broadcast (and the repeater.Observer methods) are safe to call before
// Run starts: events wait in the hub's 256-entry broadcast buffer until Run
// drains them, and once that buffer is full further events are dropped.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan Event
	register   chan *client
	unregister chan *client
	log        *logger.Logger
	mu         sync.RWMutex
}

// NewHub returns a Hub. If log is nil, an error-level logger writing to
// stdout is used.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		log:        log,
	}
}

// Run drives the hub's event loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.log.Debug("monitor client registered", logger.String("client_id", c.id))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.messages)
			}
			h.mu.Unlock()
			h.log.Debug("monitor client unregistered", logger.String("client_id", c.id))

		case event := <-h.broadcast:
			data, err := event.Marshal()
			if err != nil {
				h.log.Error("failed to marshal monitor event", logger.Error(err))
				continue
			}
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.messages <- data:
				default:
					h.log.Warn("monitor client buffer full, skipping", logger.String("client_id", c.id))
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.log.Info("monitor hub shutting down")
			h.mu.Lock()
			for c := range h.clients {
				close(c.messages)
			}
			h.clients = make(map[*client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast sends an event to every connected client. It never blocks:
// a full broadcast buffer drops the event rather than stalling the
// dispatch goroutine that (transitively, via the Observer methods) calls
// it.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("monitor broadcast channel full, dropping event", logger.String("event_type", event.Type))
	}
}

// Handler returns an http.Handler that upgrades requests to websocket
// connections and streams broadcast events to them.
func (h *Hub) Handler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
			return
		}
		c := &client{id: r.RemoteAddr, conn: conn, messages: make(chan []byte, 256)}
		h.register <- c

		go func() {
			defer func() {
				h.unregister <- c
				_ = c.conn.Close()
			}()
			c.conn.SetReadLimit(1024)
			for {
				if _, _, err := c.conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		go func() {
			for msg := range c.messages {
				_ = c.conn.WriteMessage(websocket.TextMessage, msg)
			}
		}()
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// VoiceCallStarted implements repeater.Observer.
func (h *Hub) VoiceCallStarted(ts dmrpacket.Timeslot, streamID uint32, srcID, dstID uint32) {
	h.Broadcast(Event{
		Type: "call_started",
		Data: map[string]interface{}{
			"timeslot":  int(ts),
			"stream_id": streamID,
			"src_id":    srcID,
			"dst_id":    dstID,
		},
	})
}

// VoiceCallEnded implements repeater.Observer.
func (h *Hub) VoiceCallEnded(ts dmrpacket.Timeslot, streamID uint32) {
	h.Broadcast(Event{
		Type: "call_ended",
		Data: map[string]interface{}{
			"timeslot":  int(ts),
			"stream_id": streamID,
		},
	})
}
