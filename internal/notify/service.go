package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/afyalink/afya-platform/internal/appointments"
	"github.com/afyalink/afya-platform/pkg/logging"
)

var tracer = otel.Tracer("afya.internal.notify")

// Contact is the minimal delivery address for a user.
type Contact struct {
	Name  string
	Email string
}

// ContactResolver looks up where a notification recipient can be reached.
type ContactResolver interface {
	Contact(ctx context.Context, userID string) (*Contact, error)
}

// emailJob is the queued payload picked up by the dispatch worker.
type emailJob struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

// Service records in-app notifications and enqueues email delivery jobs.
// The in-app row is written synchronously so the recipient's feed is
// consistent with the appointment state; email goes through the queue.
type Service struct {
	repo   Repository
	queue  Queue
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(repo Repository, queue Queue, logger *logging.Logger) *Service {
	if repo == nil {
		panic("notify: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:   repo,
		queue:  queue,
		logger: logger,
	}
}

// AppointmentBooked notifies the doctor that a new request is awaiting review.
func (s *Service) AppointmentBooked(ctx context.Context, appt *appointments.Appointment) error {
	ctx, span := tracer.Start(ctx, "notify.AppointmentBooked")
	defer span.End()

	when := appt.StartsAt.Format("Monday, January 2 at 15:04")
	return s.deliver(ctx, &Notification{
		UserID:    appt.DoctorID,
		Title:     "New appointment request",
		Message:   fmt.Sprintf("A patient has requested a %s consultation on %s.", appt.ConsultationType, when),
		Type:      TypeAppointmentRequested,
		RelatedID: appt.ID,
	})
}

// AppointmentApproved notifies the patient that the doctor accepted.
func (s *Service) AppointmentApproved(ctx context.Context, appt *appointments.Appointment) error {
	ctx, span := tracer.Start(ctx, "notify.AppointmentApproved")
	defer span.End()

	when := appt.StartsAt.Format("Monday, January 2 at 15:04")
	return s.deliver(ctx, &Notification{
		UserID:    appt.PatientID,
		Title:     "Appointment confirmed",
		Message:   fmt.Sprintf("Your appointment on %s has been confirmed.", when),
		Type:      TypeAppointmentApproved,
		RelatedID: appt.ID,
	})
}

// AppointmentDeclined notifies the patient with the doctor's reason and,
// when present, the suggested alternative time.
func (s *Service) AppointmentDeclined(ctx context.Context, appt *appointments.Appointment, reason string, suggested *time.Time) error {
	ctx, span := tracer.Start(ctx, "notify.AppointmentDeclined")
	defer span.End()

	when := appt.StartsAt.Format("Monday, January 2 at 15:04")
	msg := fmt.Sprintf("Your appointment on %s was declined: %s", when, reason)
	if suggested != nil {
		msg += fmt.Sprintf(" Suggested alternative: %s.", suggested.Format("Monday, January 2 at 15:04"))
	}
	return s.deliver(ctx, &Notification{
		UserID:    appt.PatientID,
		Title:     "Appointment declined",
		Message:   msg,
		Type:      TypeAppointmentDeclined,
		RelatedID: appt.ID,
	})
}

// ChatMessage records an unread-message notification for the recipient of an
// appointment chat message. No email is queued for chat traffic.
func (s *Service) ChatMessage(ctx context.Context, recipientID, appointmentID, preview string) error {
	n := &Notification{
		UserID:    recipientID,
		Title:     "New message",
		Message:   preview,
		Type:      TypeChatMessage,
		RelatedID: appointmentID,
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return err
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, n *Notification) error {
	if err := s.repo.Insert(ctx, n); err != nil {
		return fmt.Errorf("notify: store notification: %w", err)
	}

	if s.queue == nil {
		return nil
	}
	job := emailJob{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Subject:        n.Title,
		Body:           n.Message,
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("notify: encode email job: %w", err)
	}
	if err := s.queue.Send(ctx, string(body)); err != nil {
		// The in-app notification already landed; a failed enqueue only
		// loses the email copy.
		s.logger.Error("failed to enqueue email job", "error", err, "notification_id", n.ID, "user_id", n.UserID)
		return nil
	}
	return nil
}

// Ensure interface compliance
var _ appointments.Notifier = (*Service)(nil)
