package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/jdcastano06/FlowNote/internal/pipeline"
	"github.com/jdcastano06/FlowNote/internal/trace"
)

const broadcastTimeout = 5 * time.Second

// hub fans session events out to every websocket the user has open.
type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// broadcast writes the event to every connection, dropping any that fail.
func (h *hub) broadcast(ev pipeline.SessionEvent) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
		if err := wsjson.Write(ctx, c, ev); err != nil {
			h.remove(c)
			_ = c.Close(websocket.StatusGoingAway, "write failed")
		}
		cancel()
	}
}

// liveEntry tracks one user's recording state across HTTP calls and
// websocket connections. mu guards session and run; the hub has its own
// locking.
type liveEntry struct {
	hub *hub

	mu      sync.Mutex
	session *pipeline.Session
	run     *pipeline.Run
}

type sessionRegistry struct {
	mu      sync.Mutex
	entries map[string]*liveEntry
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{entries: make(map[string]*liveEntry)}
}

// entryFor returns the user's entry, creating it on first touch so a
// websocket can connect before recording starts.
func (r *sessionRegistry) entryFor(userID string) *liveEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok {
		e = &liveEntry{hub: newHub()}
		r.entries[userID] = e
	}
	return e
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		trace.Logger(r.Context()).Warn("websocket accept failed", "error", err)
		return
	}

	entry := s.sessions.entryFor(user.ID)
	entry.hub.add(conn)
	defer func() {
		entry.hub.remove(conn)
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	log := trace.Logger(r.Context())
	log.Info("websocket connected", "user_id", user.ID)

	// Read loop keeps the connection alive; inbound messages only carry
	// trace ids for correlating client actions.
	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			log.Info("websocket closed", "user_id", user.ID)
			return
		}
		if tc, ok := trace.FromJSON(data); ok {
			log.Info("client message", "client_trace_id", tc.TraceID)
		}
	}
}
