package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/afyalink/afya-platform/internal/appointments"
	"github.com/afyalink/afya-platform/internal/identity"
	"github.com/afyalink/afya-platform/pkg/logging"
)

// Handler is the HTTP fallback for clients without a WebSocket connection.
type Handler struct {
	service *Service
	hub     *Hub
	logger  *logging.Logger
}

// NewHandler creates a chat HTTP handler. hub may be nil.
func NewHandler(service *Service, hub *Hub, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, hub: hub, logger: logger}
}

// Routes mounts the thread endpoints under an appointment.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.History)
	r.Post("/", h.Send)
	r.Post("/read", h.MarkRead)
	r.Get("/unread-count", h.UnreadCount)
	if h.hub != nil {
		r.Get("/ws", h.hub.HandleWebSocket)
	}
	return r
}

type sendRequest struct {
	Content string `json:"content"`
}

// Send appends a message to the thread.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	appointmentID := chi.URLParam(r, "appointmentID")

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.service.Send(r.Context(), appointmentID, userID, req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// History returns the recent messages of the thread in order.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	appointmentID := chi.URLParam(r, "appointmentID")

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	msgs, err := h.service.History(r.Context(), appointmentID, userID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// MarkRead marks the other party's messages as read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	appointmentID := chi.URLParam(r, "appointmentID")

	if err := h.service.MarkRead(r.Context(), appointmentID, userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnreadCount reports unread messages addressed to the caller.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	appointmentID := chi.URLParam(r, "appointmentID")

	count, err := h.service.UnreadCount(r.Context(), appointmentID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointments.ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrNotParticipant):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrEmptyMessage):
		http.Error(w, "message content required", http.StatusBadRequest)
	default:
		h.logger.Error("chat request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
