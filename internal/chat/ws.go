package chat

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/afyalink/afya-platform/internal/identity"
	"github.com/afyalink/afya-platform/pkg/logging"
)

// InboundFrame is what a connected client sends.
type InboundFrame struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundFrame is what the server pushes to connected clients.
type OutboundFrame struct {
	Type      string    `json:"type"` // "message", "history", "pong", "error"
	Message   *Message  `json:"message,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

type wsConn struct {
	conn   *websocket.Conn
	userID string
}

// Hub tracks live WebSocket connections per appointment thread and pushes
// stored messages to them.
type Hub struct {
	service *Service
	logger  *logging.Logger

	mu       sync.RWMutex
	sessions map[string]map[*wsConn]struct{} // appointmentID -> connections
}

// NewHub creates a realtime hub over the chat service and registers itself
// as the service's publisher.
func NewHub(service *Service, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	h := &Hub{
		service:  service,
		logger:   logger,
		sessions: make(map[string]map[*wsConn]struct{}),
	}
	service.SetPublisher(h)
	return h
}

// HandleWebSocket upgrades to WebSocket and serves the thread for
// /appointments/{appointmentID}/chat/ws. Requires an authenticated user.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	appointmentID := chi.URLParam(r, "appointmentID")
	if appointmentID == "" {
		http.Error(w, "missing appointment id", http.StatusBadRequest)
		return
	}

	// Reject non-participants before the upgrade.
	if _, err := h.service.authorize(r.Context(), appointmentID, userID); err != nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r, appointmentID, userID)
	}).ServeHTTP(w, r)
}

func (h *Hub) serveWS(conn *websocket.Conn, r *http.Request, appointmentID, userID string) {
	// Replay the recent tail so a reconnecting client does not lose messages
	// published while it was away.
	if msgs, err := h.service.History(r.Context(), appointmentID, userID, 50); err == nil && len(msgs) > 0 {
		_ = websocket.JSON.Send(conn, OutboundFrame{Type: "history", Messages: msgs})
	}

	wsc := &wsConn{conn: conn, userID: userID}
	h.mu.Lock()
	if h.sessions[appointmentID] == nil {
		h.sessions[appointmentID] = make(map[*wsConn]struct{})
	}
	h.sessions[appointmentID][wsc] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sessions[appointmentID], wsc)
		if len(h.sessions[appointmentID]) == 0 {
			delete(h.sessions, appointmentID)
		}
		h.mu.Unlock()
	}()

	h.logger.Info("chat: connection opened", "appointment_id", appointmentID, "user_id", userID)

	for {
		var frame InboundFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			h.logger.Debug("chat: connection closed", "appointment_id", appointmentID, "error", err)
			return
		}

		if frame.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "pong", Timestamp: time.Now().UTC().Format(time.RFC3339)})
			continue
		}

		if frame.Type != "message" || strings.TrimSpace(frame.Text) == "" {
			continue
		}

		if _, err := h.service.Send(context.Background(), appointmentID, userID, frame.Text); err != nil {
			h.logger.Error("chat: failed to send message", "error", err, "appointment_id", appointmentID)
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error"})
		}
	}
}

// Publish pushes a stored message to every live connection on the thread.
// The sender's own connection receives it too, which doubles as the ack.
func (h *Hub) Publish(appointmentID string, msg Message) {
	h.mu.RLock()
	conns := make([]*wsConn, 0, len(h.sessions[appointmentID]))
	for c := range h.sessions[appointmentID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := websocket.JSON.Send(c.conn, OutboundFrame{Type: "message", Message: &msg}); err != nil {
			h.logger.Debug("chat: push failed", "appointment_id", appointmentID, "error", err)
		}
	}
}

var _ Publisher = (*Hub)(nil)
