package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/afyalink/afya-platform/internal/identity"
	"github.com/afyalink/afya-platform/internal/scheduling"
	"github.com/afyalink/afya-platform/pkg/logging"
)

// Handler handles HTTP requests for appointments and slots.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// SlotsResponse is the payload for slot listings.
type SlotsResponse struct {
	DoctorID string            `json:"doctor_id"`
	Date     string            `json:"date"`
	Slots    []scheduling.Slot `json:"slots"`
}

// GetSlots handles GET /doctors/{doctorID}/slots?date=YYYY-MM-DD[&include=all].
// By default booked windows are filtered out; include=all returns the raw
// timetable candidates.
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	if doctorID == "" {
		http.Error(w, "missing doctor id", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var slots []scheduling.Slot
	if r.URL.Query().Get("include") == "all" {
		slots, err = h.svc.GenerateSlots(r.Context(), doctorID, date)
	} else {
		slots, err = h.svc.AvailableSlots(r.Context(), doctorID, date)
	}
	if err != nil {
		h.logger.Error("failed to compute slots", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to compute slots", http.StatusInternalServerError)
		return
	}
	if slots == nil {
		slots = []scheduling.Slot{}
	}

	writeJSON(w, http.StatusOK, SlotsResponse{
		DoctorID: doctorID,
		Date:     date.Format("2006-01-02"),
		Slots:    slots,
	})
}

// Book handles POST /appointments.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	req.PatientID = userID

	appt, err := h.svc.Book(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// List handles GET /appointments for the authenticated user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	role, _ := identity.RoleFromContext(r.Context())

	limit, offset := 50, 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}

	appts, err := h.svc.ListForUser(r.Context(), userID, role, limit, offset)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "user_id", userID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts, "count": len(appts)})
}

// Get handles GET /appointments/{appointmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	appt, err := h.svc.Get(r.Context(), chi.URLParam(r, "appointmentID"), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Accept handles POST /appointments/{appointmentID}/accept.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	appt, err := h.svc.Accept(r.Context(), chi.URLParam(r, "appointmentID"), doctorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// DeclineRequest is the doctor-side decline payload.
type DeclineRequest struct {
	Reason        string     `json:"reason"`
	SuggestedTime *time.Time `json:"suggested_time,omitempty"`
}

// Decline handles POST /appointments/{appointmentID}/decline.
func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	var req DeclineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Decline(r.Context(), chi.URLParam(r, "appointmentID"), doctorID, req.Reason, req.SuggestedTime)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Complete handles POST /appointments/{appointmentID}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	appt, err := h.svc.Complete(r.Context(), chi.URLParam(r, "appointmentID"), doctorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// conflictResponse is returned with 409 when the requested window is taken.
type conflictResponse struct {
	Error        string            `json:"error"`
	Alternatives []scheduling.Slot `json:"alternatives"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if conflict, ok := AsConflict(err); ok {
		alts := conflict.Alternatives
		if alts == nil {
			alts = []scheduling.Slot{}
		}
		writeJSON(w, http.StatusConflict, conflictResponse{
			Error:        "slot unavailable",
			Alternatives: alts,
		})
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrNotAppointmentDoctor):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrReasonRequired),
		errors.Is(err, ErrMissingPatient),
		errors.Is(err, ErrMissingDoctor),
		errors.Is(err, ErrMissingStartTime),
		errors.Is(err, ErrInvalidConsultationType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("appointment operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
