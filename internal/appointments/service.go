package appointments

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/afyalink/afya-platform/internal/observability/metrics"
	"github.com/afyalink/afya-platform/internal/scheduling"
	"github.com/afyalink/afya-platform/pkg/logging"
)

var tracer = otel.Tracer("afya.internal.appointments")

// TimetableSource resolves a doctor's recurring weekly availability.
type TimetableSource interface {
	EntriesForDoctor(ctx context.Context, doctorID string) ([]scheduling.TimetableEntry, error)
}

// Notifier fans out appointment lifecycle notifications. Implementations must
// not block the booking path on delivery; failures are logged, not returned
// to the caller.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *Appointment) error
	AppointmentApproved(ctx context.Context, appt *Appointment) error
	AppointmentDeclined(ctx context.Context, appt *Appointment, reason string, suggested *time.Time) error
}

// Service implements slot generation, conflict-gated booking and the
// pending → approved/cancelled → completed lifecycle.
type Service struct {
	repo            Repository
	timetable       TimetableSource
	notifier        Notifier
	metrics         *metrics.BookingMetrics
	logger          *logging.Logger
	maxAlternatives int
}

// NewService constructs an appointments service.
func NewService(repo Repository, timetable TimetableSource, notifier Notifier, m *metrics.BookingMetrics, logger *logging.Logger, maxAlternatives int) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if timetable == nil {
		panic("appointments: timetable source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if maxAlternatives <= 0 {
		maxAlternatives = 3
	}
	return &Service{
		repo:            repo,
		timetable:       timetable,
		notifier:        notifier,
		metrics:         m,
		logger:          logger,
		maxAlternatives: maxAlternatives,
	}
}

// GenerateSlots returns the unfiltered candidate start times for a doctor on
// a date, straight from the weekly timetable.
func (s *Service) GenerateSlots(ctx context.Context, doctorID string, date time.Time) ([]scheduling.Slot, error) {
	entries, err := s.timetable.EntriesForDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return scheduling.CandidateSlots(entries, date), nil
}

// AvailableSlots returns candidate slots with booked windows removed.
func (s *Service) AvailableSlots(ctx context.Context, doctorID string, date time.Time) ([]scheduling.Slot, error) {
	slots, err := s.GenerateSlots(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, nil
	}
	busy, err := s.busyIntervals(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	return scheduling.FilterAvailable(slots, busy), nil
}

// Book commits a patient booking. The requested window is gated against
// active appointments with the interval-overlap rule; on conflict a
// *ConflictError with up to maxAlternatives open slots is returned and
// nothing is persisted. The storage layer's unique active-slot index backs
// the same rule for exact-start races that slip past the gate.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("afya.doctor_id", req.DoctorID),
		attribute.String("afya.patient_id", req.PatientID),
	)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	candidate := scheduling.NewInterval(req.StartsAt, time.Duration(req.DurationMinutes)*time.Minute)
	busy, err := s.busyIntervals(ctx, req.DoctorID, req.StartsAt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if scheduling.ConflictsAny(busy, candidate) {
		s.metrics.ObserveBooking("conflict")
		return nil, s.conflictWithAlternatives(ctx, req.DoctorID, req.StartsAt)
	}

	appt := &Appointment{
		PatientID:        req.PatientID,
		DoctorID:         req.DoctorID,
		StartsAt:         req.StartsAt,
		DurationMinutes:  req.DurationMinutes,
		ConsultationType: req.ConsultationType,
		Status:           StatusPending,
		Symptoms:         req.Symptoms,
		FeeCents:         req.FeeCents,
	}
	if err := s.repo.Insert(ctx, appt); err != nil {
		if err == ErrSlotTaken {
			// Lost the race between the gate check and the insert.
			s.metrics.ObserveBooking("conflict")
			return nil, s.conflictWithAlternatives(ctx, req.DoctorID, req.StartsAt)
		}
		span.RecordError(err)
		s.metrics.ObserveBooking("error")
		return nil, err
	}

	s.metrics.ObserveBooking("booked")
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"patient_id", appt.PatientID,
		"starts_at", appt.StartsAt,
	)
	s.notify(ctx, func(n Notifier) error { return n.AppointmentBooked(ctx, appt) })
	return appt, nil
}

// Accept transitions a pending appointment to approved. The overlap gate is
// re-run first: another booking for the same window may have been approved
// since this one was requested. On conflict nothing is mutated.
func (s *Service) Accept(ctx context.Context, id, doctorID string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.accept")
	defer span.End()

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, ErrNotAppointmentDoctor
	}
	if appt.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	busy, err := s.busyIntervalsExcluding(ctx, appt.DoctorID, appt.StartsAt, appt.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if scheduling.ConflictsAny(busy, appt.Interval()) {
		s.metrics.ObserveTransition("accept", "conflict")
		return nil, s.conflictWithAlternatives(ctx, appt.DoctorID, appt.StartsAt)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusApproved, "", nil)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveTransition("accept", "error")
		return nil, err
	}

	s.metrics.ObserveTransition("accept", "ok")
	s.logger.Info("appointment approved", "appointment_id", id, "doctor_id", doctorID)
	s.notify(ctx, func(n Notifier) error { return n.AppointmentApproved(ctx, updated) })
	return updated, nil
}

// Decline transitions a pending appointment to cancelled with a required
// reason and an optional suggested alternative time. An empty reason fails
// before any store call.
func (s *Service) Decline(ctx context.Context, id, doctorID, reason string, suggested *time.Time) (*Appointment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	ctx, span := tracer.Start(ctx, "appointments.decline")
	defer span.End()

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, ErrNotAppointmentDoctor
	}
	if appt.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusCancelled, reason, suggested)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveTransition("decline", "error")
		return nil, err
	}

	s.metrics.ObserveTransition("decline", "ok")
	s.logger.Info("appointment declined", "appointment_id", id, "doctor_id", doctorID)
	s.notify(ctx, func(n Notifier) error { return n.AppointmentDeclined(ctx, updated, reason, suggested) })
	return updated, nil
}

// Complete marks an approved appointment as completed.
func (s *Service) Complete(ctx context.Context, id, doctorID string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, ErrNotAppointmentDoctor
	}
	if appt.Status != StatusApproved {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusCompleted, "", nil)
	if err != nil {
		s.metrics.ObserveTransition("complete", "error")
		return nil, err
	}
	s.metrics.ObserveTransition("complete", "ok")
	return updated, nil
}

// Get loads one appointment, restricted to its participants.
func (s *Service) Get(ctx context.Context, id, userID string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != userID && appt.DoctorID != userID {
		return nil, ErrNotFound
	}
	return appt, nil
}

// ListForUser returns the caller's appointments.
func (s *Service) ListForUser(ctx context.Context, userID, role string, limit, offset int) ([]*Appointment, error) {
	return s.repo.ListForUser(ctx, userID, role, limit, offset)
}

func (s *Service) busyIntervals(ctx context.Context, doctorID string, day time.Time) ([]scheduling.Interval, error) {
	return s.busyIntervalsExcluding(ctx, doctorID, day, "")
}

func (s *Service) busyIntervalsExcluding(ctx context.Context, doctorID string, day time.Time, excludeID string) ([]scheduling.Interval, error) {
	active, err := s.repo.ActiveForDoctorDay(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}
	intervals := make([]scheduling.Interval, 0, len(active))
	for _, appt := range active {
		if excludeID != "" && appt.ID == excludeID {
			continue
		}
		intervals = append(intervals, appt.Interval())
	}
	return intervals, nil
}

func (s *Service) conflictWithAlternatives(ctx context.Context, doctorID string, requested time.Time) error {
	conflict := &ConflictError{
		DoctorID:    doctorID,
		RequestedAt: requested.Format(time.RFC3339),
	}
	open, err := s.AvailableSlots(ctx, doctorID, requested)
	if err != nil {
		// The conflict stands even when alternatives cannot be computed.
		s.logger.Warn("failed to compute alternative slots", "error", err, "doctor_id", doctorID)
		return conflict
	}
	conflict.Alternatives = scheduling.Alternatives(open, requested, s.maxAlternatives)
	return conflict
}

func (s *Service) notify(ctx context.Context, fn func(Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := fn(s.notifier); err != nil {
		s.logger.Error("appointment notification failed", "error", err)
	}
}
