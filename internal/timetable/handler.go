package timetable

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/afyalink/afya-platform/internal/identity"
	"github.com/afyalink/afya-platform/internal/scheduling"
	"github.com/afyalink/afya-platform/pkg/logging"
)

// Handler handles HTTP requests for a doctor's weekly timetable.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new timetable handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListMine handles GET /timetable for the authenticated doctor.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	h.list(w, r, doctorID)
}

// ListForDoctor handles GET /doctors/{doctorID}/timetable (public read).
func (h *Handler) ListForDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	if doctorID == "" {
		http.Error(w, "missing doctor id", http.StatusBadRequest)
		return
	}
	h.list(w, r, doctorID)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, doctorID string) {
	entries, err := h.repo.EntriesForDoctor(r.Context(), doctorID)
	if err != nil {
		h.logger.Error("failed to list timetable", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to list timetable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []scheduling.TimetableEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"entries": entries, "count": len(entries)})
}

// Create handles POST /timetable.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.DoctorID = doctorID

	entry, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("timetable entry created", "entry_id", entry.ID, "doctor_id", doctorID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(entry)
}

// Update handles PUT /timetable/{entryID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.repo.Update(r.Context(), doctorID, chi.URLParam(r, "entryID"), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entry)
}

// Delete handles DELETE /timetable/{entryID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	if err := h.repo.Delete(r.Context(), doctorID, chi.URLParam(r, "entryID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "timetable entry not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidDay),
		errors.Is(err, ErrMissingDoctor),
		errors.Is(err, scheduling.ErrInvalidWindow):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("timetable operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
