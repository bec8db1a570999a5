package assistant

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/afyalink/afya-platform/internal/identity"
	"github.com/afyalink/afya-platform/pkg/logging"
)

// Handler exposes the assistant over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates an assistant handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts the assistant endpoint.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Respond)
	return r
}

type messageRequest struct {
	Message string `json:"message"`
}

// Respond answers one free-text message. Works without authentication;
// signed-in users additionally get personal lookups like their own
// appointment list.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	userID, _ := identity.UserIDFromContext(r.Context())
	role, _ := identity.RoleFromContext(r.Context())

	reply, err := h.service.Respond(r.Context(), userID, role, req.Message)
	if err != nil {
		h.logger.Error("assistant reply failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(reply)
}
