package creator

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans clip progress events out to the WebSocket connections
// watching a session.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		watchers: make(map[string]map[*websocket.Conn]bool),
	}
}

// ServeWS upgrades the request and registers the connection against
// the session in the URL.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}

	h.register(sessionID, conn)
	log.Printf("👤 Progress watcher joined session %s", sessionID)

	// Reads only to detect the close.
	go func() {
		defer func() {
			h.unregister(sessionID, conn)
			conn.Close()
			log.Printf("👋 Progress watcher left session %s", sessionID)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends an event to every watcher of its session.
func (h *Hub) Broadcast(event ProgressEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.watchers[event.SessionID]))
	for conn := range h.watchers[event.SessionID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("⚠️ Progress write failed, dropping watcher: %v", err)
			h.unregister(event.SessionID, conn)
			conn.Close()
		}
	}
}

func (h *Hub) register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[sessionID] == nil {
		h.watchers[sessionID] = make(map[*websocket.Conn]bool)
	}
	h.watchers[sessionID][conn] = true
}

func (h *Hub) unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers[sessionID], conn)
	if len(h.watchers[sessionID]) == 0 {
		delete(h.watchers, sessionID)
	}
}
