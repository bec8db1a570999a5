package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/afyalink/afya-platform/internal/appointments"
	"github.com/afyalink/afya-platform/internal/assistant"
	"github.com/afyalink/afya-platform/internal/chat"
	"github.com/afyalink/afya-platform/internal/directory"
	"github.com/afyalink/afya-platform/internal/identity"
	"github.com/afyalink/afya-platform/internal/notify"
	"github.com/afyalink/afya-platform/internal/timetable"
	"github.com/afyalink/afya-platform/pkg/logging"
)

const testJWTSecret = "router-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()

	timetableRepo := timetable.NewInMemoryRepository()
	apptRepo := appointments.NewInMemoryRepository()
	notifyRepo := notify.NewInMemoryRepository()
	chatStore := chat.NewInMemoryStore()
	dirRepo := directory.NewInMemoryRepository()

	dirService := directory.NewService(dirRepo)
	if err := dirRepo.UpsertDoctor(context.Background(), &directory.Doctor{
		ID:        "doc-1",
		UserID:    "doctor-1",
		FullName:  "Amani Mushi",
		Specialty: "Cardiology",
	}); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}

	notifyService := notify.NewService(notifyRepo, notify.NewMemoryQueue(16), logger)
	apptService := appointments.NewService(apptRepo, timetableRepo, notifyService, nil, logger, 3)

	chatService := chat.NewService(chatStore, nil, apptRepo, logger)
	chatService.SetNotifier(notifyService)
	hub := chat.NewHub(chatService, logger)

	assistantService := assistant.NewService(dirService, apptService, apptService, logger)

	cfg := &Config{
		Logger:              logger,
		AppointmentsHandler: appointments.NewHandler(apptService, logger),
		TimetableHandler:    timetable.NewHandler(timetableRepo, logger),
		DirectoryHandler:    directory.NewHandler(dirService, logger),
		NotifyHandler:       notify.NewHandler(notifyRepo, logger),
		ChatHandler:         chat.NewHandler(chatService, hub, logger),
		AssistantHandler:    assistant.NewHandler(assistantService, logger),
		AuthJWTSecret:       testJWTSecret,
	}

	return New(cfg)
}

func signToken(t *testing.T, userID, role string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(5 * time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterDirectoryIsPublic(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/directory/doctors?specialty=Cardiology", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var doctors []*directory.Doctor
	if err := json.NewDecoder(rr.Body).Decode(&doctors); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(doctors) != 1 || doctors[0].FullName != "Amani Mushi" {
		t.Fatalf("unexpected doctors: %+v", doctors)
	}
}

func TestRouterSlotsArePublic(t *testing.T) {
	router := newTestRouter(t)

	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	req := httptest.NewRequest(http.MethodGet, "/doctors/doctor-1/slots?date="+date, nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterAppointmentsRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestRouterAppointmentsListWithToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "patient-1", identity.RolePatient))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterAcceptRequiresDoctorRole(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/appointments/some-id/accept", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "patient-1", identity.RolePatient))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rr.Code)
	}
}

func TestRouterTimetableWriteRequiresDoctorRole(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal(map[string]any{
		"day_of_week": 1,
		"start_time":  "09:00",
		"end_time":    "12:00",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/timetable", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "patient-1", identity.RolePatient))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rr.Code)
	}
}

func TestRouterAssistantIsPublic(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal(map[string]string{"message": "habari"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/assistant", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var reply assistant.Reply
	if err := json.NewDecoder(rr.Body).Decode(&reply); err != nil {
		t.Fatalf("failed to decode reply: %v", err)
	}
	if reply.Intent != assistant.IntentGreeting {
		t.Errorf("expected greeting intent, got %q", reply.Intent)
	}
}

func TestRouterNotificationsRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}
