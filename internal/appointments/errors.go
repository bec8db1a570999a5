package appointments

import (
	"errors"
	"fmt"

	"github.com/afyalink/afya-platform/internal/scheduling"
)

var (
	// ErrMissingPatient is returned when the patient id is absent.
	ErrMissingPatient = errors.New("appointments: patient id is required")

	// ErrMissingDoctor is returned when the doctor id is absent.
	ErrMissingDoctor = errors.New("appointments: doctor id is required")

	// ErrMissingStartTime is returned when no start time is given.
	ErrMissingStartTime = errors.New("appointments: start time is required")

	// ErrInvalidConsultationType is returned for an unknown consultation type.
	ErrInvalidConsultationType = errors.New("appointments: invalid consultation type")

	// ErrReasonRequired is returned when a decline carries no reason. It is
	// raised before any store call is attempted.
	ErrReasonRequired = errors.New("appointments: decline reason is required")

	// ErrNotFound is returned when the appointment does not exist.
	ErrNotFound = errors.New("appointments: not found")

	// ErrInvalidTransition is returned for transitions out of a terminal
	// status or accept/decline on a non-pending appointment.
	ErrInvalidTransition = errors.New("appointments: invalid status transition")

	// ErrNotAppointmentDoctor is returned when someone other than the
	// appointment's doctor attempts accept/decline.
	ErrNotAppointmentDoctor = errors.New("appointments: only the appointment doctor may do this")

	// ErrSlotTaken is the storage-layer signal that the unique active-slot
	// constraint rejected an insert.
	ErrSlotTaken = errors.New("appointments: slot already taken")
)

// ConflictError reports that the requested window overlaps an active
// appointment, carrying up to a handful of open alternatives for the same
// day.
type ConflictError struct {
	DoctorID     string
	RequestedAt  string
	Alternatives []scheduling.Slot
}

func (e *ConflictError) Error() string {
	if len(e.Alternatives) == 0 {
		return fmt.Sprintf("appointments: doctor %s is booked at %s and has no open slots that day", e.DoctorID, e.RequestedAt)
	}
	return fmt.Sprintf("appointments: doctor %s is booked at %s, %d alternative slot(s) available", e.DoctorID, e.RequestedAt, len(e.Alternatives))
}

// AsConflict unwraps err into a *ConflictError when possible.
func AsConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}
