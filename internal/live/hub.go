// Package live pushes session views to connected map clients over
// websockets.
package live

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Snapshot returns the current view of a session and its version.
type Snapshot func() (version uint64, payload any)

// Subscription is one websocket attached to one session.
type Subscription struct {
	Conn      *websocket.Conn
	SessionID string
	Initial   Snapshot
	done      chan bool
}

type Broadcast struct {
	SessionID string
	Version   uint64
	Payload   any
}

// Hub fans session updates out to every connection watching that session.
// Each connection only ever moves forward in version.
type Hub struct {
	// clients maps a session to its connections and the last version each
	// one was sent.
	clients    map[string]map[*websocket.Conn]uint64
	pending    map[string]Broadcast
	pendingMu  sync.Mutex
	notify     chan struct{}
	register   chan Subscription
	unregister chan Subscription
	stopped    chan struct{}
	mu         sync.Mutex
	upgrader   websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*websocket.Conn]uint64),
		pending:    make(map[string]Broadcast),
		notify:     make(chan struct{}, 1),
		register:   make(chan Subscription),
		unregister: make(chan Subscription),
		stopped:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run serves register/unregister/broadcast until ctx is done, then closes
// every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, conns := range h.clients {
				for conn := range conns {
					conn.Close()
				}
			}
			h.clients = make(map[string]map[*websocket.Conn]uint64)
			h.mu.Unlock()
			return

		case sub := <-h.register:
			version, payload := sub.Initial()
			if err := sub.Conn.WriteJSON(payload); err != nil {
				log.Printf("ws write error: %v", err)
				sub.Conn.Close()
				sub.done <- false
				continue
			}
			h.mu.Lock()
			if h.clients[sub.SessionID] == nil {
				h.clients[sub.SessionID] = make(map[*websocket.Conn]uint64)
			}
			h.clients[sub.SessionID][sub.Conn] = version
			h.mu.Unlock()
			sub.done <- true

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sub.SessionID][sub.Conn]; ok {
				delete(h.clients[sub.SessionID], sub.Conn)
				if len(h.clients[sub.SessionID]) == 0 {
					delete(h.clients, sub.SessionID)
				}
				sub.Conn.Close()
			}
			h.mu.Unlock()

		case <-h.notify:
			h.flush()
		}
	}
}

func (h *Hub) flush() {
	h.pendingMu.Lock()
	batch := h.pending
	h.pending = make(map[string]Broadcast)
	h.pendingMu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, msg := range batch {
		for conn, sent := range h.clients[msg.SessionID] {
			if msg.Version <= sent {
				continue
			}
			if err := conn.WriteJSON(msg.Payload); err != nil {
				log.Printf("ws write error: %v", err)
				conn.Close()
				delete(h.clients[msg.SessionID], conn)
				continue
			}
			h.clients[msg.SessionID][conn] = msg.Version
		}
	}
}

// Publish queues payload for the session's watchers. It never blocks. Only
// the newest pending payload per session is kept.
func (h *Hub) Publish(sessionID string, version uint64, payload any) {
	h.pendingMu.Lock()
	if prev, ok := h.pending[sessionID]; !ok || version > prev.Version {
		h.pending[sessionID] = Broadcast{SessionID: sessionID, Version: version, Payload: payload}
	}
	h.pendingMu.Unlock()

	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// Watchers reports how many connections follow a session.
func (h *Hub) Watchers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[sessionID])
}

// Serve upgrades the request and registers the connection; the hub sends
// the session's current view as the first message. It returns when the
// client goes away.
func (h *Hub) Serve(c *gin.Context, sessionID string, initial Snapshot) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	sub := Subscription{Conn: conn, SessionID: sessionID, Initial: initial, done: make(chan bool, 1)}
	select {
	case h.register <- sub:
	case <-h.stopped:
		conn.Close()
		return
	}
	if !<-sub.done {
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			select {
			case h.unregister <- sub:
			case <-h.stopped:
			}
			return
		}
	}
}
