package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage.
type Repository interface {
	Insert(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	// ActiveForDoctorDay returns appointments in an active status whose
	// start falls on the same calendar day (in day's location) for the
	// doctor.
	ActiveForDoctorDay(ctx context.Context, doctorID string, day time.Time) ([]*Appointment, error)
	ListForUser(ctx context.Context, userID string, role string, limit, offset int) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id string, status Status, notes string, suggestedTime *time.Time) (*Appointment, error)
}

// InMemoryRepository keeps appointments in a map. It enforces the same
// active-slot uniqueness rule as the Postgres partial index so tests and the
// demo mode observe identical conflict behavior.
type InMemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*Appointment
	order []string
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*Appointment)}
}

// Insert stores a new appointment, rejecting exact duplicate active slots.
func (r *InMemoryRepository) Insert(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now

	for _, existing := range r.byID {
		if existing.DoctorID == appt.DoctorID &&
			existing.Status.Active() &&
			existing.StartsAt.Equal(appt.StartsAt) {
			return ErrSlotTaken
		}
	}

	stored := *appt
	r.byID[appt.ID] = &stored
	r.order = append(r.order, appt.ID)
	return nil
}

// GetByID returns a copy of the appointment.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

// ActiveForDoctorDay returns active appointments on the given calendar day.
func (r *InMemoryRepository) ActiveForDoctorDay(ctx context.Context, doctorID string, day time.Time) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var result []*Appointment
	for _, id := range r.order {
		appt := r.byID[id]
		if appt.DoctorID != doctorID || !appt.Status.Active() {
			continue
		}
		if appt.StartsAt.Before(start) || !appt.StartsAt.Before(end) {
			continue
		}
		copied := *appt
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.Before(result[j].StartsAt) })
	return result, nil
}

// ListForUser returns appointments where the user is the patient or the
// doctor, newest first.
func (r *InMemoryRepository) ListForUser(ctx context.Context, userID string, role string, limit, offset int) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Appointment
	for _, id := range r.order {
		appt := r.byID[id]
		if (role == "doctor" && appt.DoctorID == userID) || (role != "doctor" && appt.PatientID == userID) {
			copied := *appt
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.After(result[j].StartsAt) })

	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UpdateStatus mutates status, notes and suggested time in one step.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status, notes string, suggestedTime *time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	appt.Status = status
	if notes != "" {
		appt.Notes = notes
	}
	if suggestedTime != nil {
		suggested := *suggestedTime
		appt.SuggestedTime = &suggested
	}
	appt.UpdatedAt = time.Now().UTC()
	copied := *appt
	return &copied, nil
}
