package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyalink/afya-platform/internal/identity"
	"github.com/afyalink/afya-platform/pkg/logging"
)

func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/doctors/{doctorID}/slots", h.GetSlots)
	r.Post("/appointments", h.Book)
	r.Get("/appointments", h.List)
	r.Get("/appointments/{appointmentID}", h.Get)
	r.Post("/appointments/{appointmentID}/accept", h.Accept)
	r.Post("/appointments/{appointmentID}/decline", h.Decline)
	return r
}

func authed(req *http.Request, userID, role string) *http.Request {
	return req.WithContext(identity.WithUser(req.Context(), userID, role))
}

func newHandlerFixture() (*Handler, *Service) {
	svc := newTestService(NewInMemoryRepository(), &recordingNotifier{})
	return NewHandler(svc, logging.New("error")), svc
}

func TestGetSlotsReturnsOpenSlots(t *testing.T) {
	h, _ := newHandlerFixture()
	router := testRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/doctors/doc-1/slots?date=2025-03-03", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc-1", resp.DoctorID)
	require.Len(t, resp.Slots, 4)
	assert.Equal(t, "08:00", resp.Slots[0].Label)
}

func TestGetSlotsRejectsBadDate(t *testing.T) {
	h, _ := newHandlerFixture()
	router := testRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/doctors/doc-1/slots?date=tomorrow", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSlotsEmptyDayIsOKNotError(t *testing.T) {
	h, _ := newHandlerFixture()
	router := testRouter(h)

	// 2025-03-04 is a Tuesday; the fixture doctor only works Mondays.
	req := httptest.NewRequest(http.MethodGet, "/doctors/doc-1/slots?date=2025-03-04", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Slots)
}

func TestBookEndpointCreatesAppointment(t *testing.T) {
	h, _ := newHandlerFixture()
	router := testRouter(h)

	body := `{"doctor_id":"doc-1","starts_at":"2025-03-03T08:30:00Z","consultation_type":"video","symptoms":"fever"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)), "pat-1", identity.RolePatient)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var appt Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, "pat-1", appt.PatientID)
}

func TestBookEndpointRequiresAuth(t *testing.T) {
	h, _ := newHandlerFixture()
	router := testRouter(h)

	body := `{"doctor_id":"doc-1","starts_at":"2025-03-03T08:30:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookEndpointConflictCarriesAlternatives(t *testing.T) {
	h, svc := newHandlerFixture()
	router := testRouter(h)

	_, err := svc.Book(context.Background(), BookRequest{
		PatientID: "pat-1", DoctorID: "doc-1", StartsAt: mondayAt(8, 30),
	})
	require.NoError(t, err)

	body := `{"doctor_id":"doc-1","starts_at":"2025-03-03T08:30:00Z"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)), "pat-2", identity.RolePatient)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp conflictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Alternatives)
	assert.LessOrEqual(t, len(resp.Alternatives), 3)
}

func TestDeclineEndpointValidatesReason(t *testing.T) {
	h, svc := newHandlerFixture()
	router := testRouter(h)

	appt, err := svc.Book(context.Background(), BookRequest{
		PatientID: "pat-1", DoctorID: "doc-1", StartsAt: mondayAt(9, 0),
	})
	require.NoError(t, err)

	req := authed(httptest.NewRequest(http.MethodPost, "/appointments/"+appt.ID+"/decline",
		strings.NewReader(`{"reason":"  "}`)), "doc-1", identity.RoleDoctor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcceptEndpointForbiddenForOtherDoctor(t *testing.T) {
	h, svc := newHandlerFixture()
	router := testRouter(h)

	appt, err := svc.Book(context.Background(), BookRequest{
		PatientID: "pat-1", DoctorID: "doc-1", StartsAt: mondayAt(9, 0),
	})
	require.NoError(t, err)

	req := authed(httptest.NewRequest(http.MethodPost, "/appointments/"+appt.ID+"/accept", nil), "doc-2", identity.RoleDoctor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListEndpointScopedToUser(t *testing.T) {
	h, svc := newHandlerFixture()
	router := testRouter(h)

	_, err := svc.Book(context.Background(), BookRequest{
		PatientID: "pat-1", DoctorID: "doc-1", StartsAt: mondayAt(9, 0),
	})
	require.NoError(t, err)

	req := authed(httptest.NewRequest(http.MethodGet, "/appointments", nil), "pat-1", identity.RolePatient)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	req = authed(httptest.NewRequest(http.MethodGet, "/appointments", nil), "pat-9", identity.RolePatient)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}
