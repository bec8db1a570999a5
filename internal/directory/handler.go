package directory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/afyalink/afya-platform/pkg/logging"
)

// Handler serves the public marketplace search endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a directory handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts the directory endpoints. These are public.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/doctors", h.SearchDoctors)
	r.Get("/doctors/{doctorID}", h.GetDoctor)
	r.Get("/hospitals", h.SearchHospitals)
	r.Get("/pharmacies", h.SearchPharmacies)
	r.Get("/labs", h.SearchLabs)
	return r
}

// SearchDoctors filters the doctor listing by free text, specialty and
// hospital.
func (h *Handler) SearchDoctors(w http.ResponseWriter, r *http.Request) {
	q := DoctorQuery{
		Text:       r.URL.Query().Get("q"),
		Specialty:  r.URL.Query().Get("specialty"),
		HospitalID: r.URL.Query().Get("hospital"),
		Limit:      queryLimit(r),
	}
	doctors, err := h.service.SearchDoctors(r.Context(), q)
	if err != nil {
		h.logger.Error("doctor search failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if doctors == nil {
		doctors = []*Doctor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

// GetDoctor returns one doctor profile.
func (h *Handler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctor, err := h.service.DoctorByID(r.Context(), chi.URLParam(r, "doctorID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("doctor lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

func (h *Handler) SearchHospitals(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.SearchHospitals(r.Context(), placeQuery(r))
	if err != nil {
		h.logger.Error("hospital search failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*Hospital{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"hospitals": items})
}

func (h *Handler) SearchPharmacies(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.SearchPharmacies(r.Context(), placeQuery(r))
	if err != nil {
		h.logger.Error("pharmacy search failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*Pharmacy{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pharmacies": items})
}

func (h *Handler) SearchLabs(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.SearchLabs(r.Context(), placeQuery(r))
	if err != nil {
		h.logger.Error("lab search failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*Lab{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"labs": items})
}

func placeQuery(r *http.Request) PlaceQuery {
	return PlaceQuery{
		Text:  r.URL.Query().Get("q"),
		City:  r.URL.Query().Get("city"),
		Limit: queryLimit(r),
	}
}

func queryLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
