package search

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks live search connections so they can be counted and closed on
// shutdown.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*websocket.Conn
	total    uint64
}

type Stats struct {
	Sessions      int    `json:"ws_sessions"`
	SessionsTotal uint64 `json:"ws_sessions_total"`
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*websocket.Conn)}
}

func (h *Hub) Add(id string, ws *websocket.Conn) {
	h.mu.Lock()
	h.sessions[id] = ws
	h.total++
	h.mu.Unlock()
}

func (h *Hub) Remove(id string) {
	h.mu.Lock()
	ws, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if ok {
		_ = ws.Close()
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Sessions: len(h.sessions), SessionsTotal: h.total}
}

// CloseAll drops every connection. Hijacked websocket connections are not
// closed by http.Server.Shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.sessions))
	for id, ws := range h.sessions {
		conns = append(conns, ws)
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	for _, ws := range conns {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			timeNow().Add(writeWait))
		_ = ws.Close()
	}
}
