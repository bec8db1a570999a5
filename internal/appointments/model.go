package appointments

import (
	"strings"
	"time"

	"github.com/afyalink/afya-platform/internal/scheduling"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Active reports whether the appointment still occupies its time window for
// conflict purposes.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ConsultationType is how the visit is held.
type ConsultationType string

const (
	ConsultationVideo    ConsultationType = "video"
	ConsultationAudio    ConsultationType = "audio"
	ConsultationChat     ConsultationType = "chat"
	ConsultationInPerson ConsultationType = "in_person"
)

func validConsultationType(t ConsultationType) bool {
	switch t {
	case ConsultationVideo, ConsultationAudio, ConsultationChat, ConsultationInPerson:
		return true
	}
	return false
}

// Appointment is one booked (or requested) visit. It doubles as the
// conversation handle for chat messages.
type Appointment struct {
	ID               string           `json:"id"`
	PatientID        string           `json:"patient_id"`
	DoctorID         string           `json:"doctor_id"`
	StartsAt         time.Time        `json:"starts_at"`
	DurationMinutes  int              `json:"duration_minutes"`
	ConsultationType ConsultationType `json:"consultation_type"`
	Status           Status           `json:"status"`
	Symptoms         string           `json:"symptoms,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	SuggestedTime    *time.Time       `json:"suggested_time,omitempty"`
	FeeCents         int64            `json:"fee_cents,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Interval is the [start, start+duration) window this appointment occupies.
func (a *Appointment) Interval() scheduling.Interval {
	return scheduling.NewInterval(a.StartsAt, time.Duration(a.DurationMinutes)*time.Minute)
}

// BookRequest is the patient-side booking payload.
type BookRequest struct {
	PatientID        string           `json:"-"`
	DoctorID         string           `json:"doctor_id"`
	StartsAt         time.Time        `json:"starts_at"`
	DurationMinutes  int              `json:"duration_minutes"`
	ConsultationType ConsultationType `json:"consultation_type"`
	Symptoms         string           `json:"symptoms"`
	FeeCents         int64            `json:"fee_cents"`
}

// Validate checks required fields and fills defaults.
func (r *BookRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrMissingPatient
	}
	if strings.TrimSpace(r.DoctorID) == "" {
		return ErrMissingDoctor
	}
	if r.StartsAt.IsZero() {
		return ErrMissingStartTime
	}
	if r.DurationMinutes <= 0 {
		r.DurationMinutes = int(scheduling.SlotInterval / time.Minute)
	}
	if r.ConsultationType == "" {
		r.ConsultationType = ConsultationVideo
	}
	if !validConsultationType(r.ConsultationType) {
		return ErrInvalidConsultationType
	}
	return nil
}
