package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/afyalink/afya-platform/internal/appointments"
	"github.com/afyalink/afya-platform/pkg/logging"
)

var tracer = otel.Tracer("afya.internal.chat")

// ErrNotParticipant is returned when the caller is not a party to the
// appointment the thread hangs off.
var ErrNotParticipant = errors.New("chat: user is not a participant of this appointment")

// AppointmentSource resolves the appointment a thread is attached to.
// Satisfied by appointments.Repository.
type AppointmentSource interface {
	GetByID(ctx context.Context, id string) (*appointments.Appointment, error)
}

// MessageNotifier records an unread-message notification for the recipient.
type MessageNotifier interface {
	ChatMessage(ctx context.Context, recipientID, appointmentID, preview string) error
}

// Publisher pushes a stored message to any live connection on the thread.
type Publisher interface {
	Publish(appointmentID string, msg Message)
}

// Service guards thread access and fans a sent message out to the durable
// store, the Redis tail, live sockets and the recipient's notification feed.
type Service struct {
	store        Store
	cache        *TranscriptCache
	appointments AppointmentSource
	notifier     MessageNotifier
	publisher    Publisher
	logger       *logging.Logger
}

// NewService creates a chat service. cache, notifier and publisher may be nil.
func NewService(store Store, cache *TranscriptCache, appts AppointmentSource, logger *logging.Logger) *Service {
	if store == nil {
		panic("chat: store required")
	}
	if appts == nil {
		panic("chat: appointment source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:        store,
		cache:        cache,
		appointments: appts,
		logger:       logger,
	}
}

// SetNotifier wires the notification feed. Optional.
func (s *Service) SetNotifier(n MessageNotifier) { s.notifier = n }

// SetPublisher wires realtime delivery. Optional.
func (s *Service) SetPublisher(p Publisher) { s.publisher = p }

// Send stores a message on the appointment thread and fans it out.
func (s *Service) Send(ctx context.Context, appointmentID, senderID, content string) (*Message, error) {
	ctx, span := tracer.Start(ctx, "chat.Send")
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	appt, err := s.authorize(ctx, appointmentID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		AppointmentID: appointmentID,
		SenderID:      senderID,
		Content:       content,
	}
	if err := s.store.Append(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.cache.Append(ctx, appointmentID, *msg); err != nil {
		s.logger.Warn("failed to cache chat message", "error", err, "appointment_id", appointmentID)
	}

	if s.publisher != nil {
		s.publisher.Publish(appointmentID, *msg)
	}

	if s.notifier != nil {
		recipient := appt.DoctorID
		if senderID == appt.DoctorID {
			recipient = appt.PatientID
		}
		if err := s.notifier.ChatMessage(ctx, recipient, appointmentID, preview(content)); err != nil {
			s.logger.Warn("failed to record chat notification", "error", err, "appointment_id", appointmentID)
		}
	}

	return msg, nil
}

// History returns the recent tail of the thread, serving from Redis when the
// cache is warm and falling back to Postgres otherwise.
func (s *Service) History(ctx context.Context, appointmentID, userID string, limit int) ([]Message, error) {
	ctx, span := tracer.Start(ctx, "chat.History")
	defer span.End()

	if _, err := s.authorize(ctx, appointmentID, userID); err != nil {
		return nil, err
	}

	if cached, err := s.cache.List(ctx, appointmentID, int64(limit)); err == nil && len(cached) > 0 {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("transcript cache read failed", "error", err, "appointment_id", appointmentID)
	}

	msgs, err := s.store.History(ctx, appointmentID, limit)
	if err != nil {
		return nil, err
	}

	// Warm the cache for the next reader.
	for _, m := range msgs {
		if err := s.cache.Append(ctx, appointmentID, m); err != nil {
			break
		}
	}
	return msgs, nil
}

// MarkRead marks every message sent by the other party as read.
func (s *Service) MarkRead(ctx context.Context, appointmentID, userID string) error {
	if _, err := s.authorize(ctx, appointmentID, userID); err != nil {
		return err
	}
	if err := s.store.MarkRead(ctx, appointmentID, userID); err != nil {
		return err
	}
	// Cached copies carry stale read flags; drop them.
	if err := s.cache.Invalidate(ctx, appointmentID); err != nil {
		s.logger.Warn("failed to invalidate transcript cache", "error", err, "appointment_id", appointmentID)
	}
	return nil
}

// UnreadCount reports unread messages addressed to the caller on the thread.
func (s *Service) UnreadCount(ctx context.Context, appointmentID, userID string) (int, error) {
	if _, err := s.authorize(ctx, appointmentID, userID); err != nil {
		return 0, err
	}
	return s.store.UnreadCount(ctx, appointmentID, userID)
}

func (s *Service) authorize(ctx context.Context, appointmentID, userID string) (*appointments.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("chat: resolve appointment: %w", err)
	}
	if userID != appt.PatientID && userID != appt.DoctorID {
		return nil, ErrNotParticipant
	}
	return appt, nil
}

func preview(content string) string {
	const max = 80
	if len(content) <= max {
		return content
	}
	return content[:max] + "..."
}
