package scheduling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidWindow marks malformed or inverted availability windows.
var ErrInvalidWindow = errors.New("scheduling: invalid availability window")

// SlotInterval is the product-wide slot granularity. Appointment durations
// vary per consultation, but candidate start times are always spaced this far
// apart.
const SlotInterval = 30 * time.Minute

// TimetableEntry is one recurring weekly availability window for a doctor.
type TimetableEntry struct {
	ID          string       `json:"id"`
	DoctorID    string       `json:"doctor_id"`
	DayOfWeek   time.Weekday `json:"day_of_week"`
	StartTime   string       `json:"start_time"` // "HH:MM"
	EndTime     string       `json:"end_time"`   // "HH:MM"
	Location    string       `json:"location,omitempty"`
	IsAvailable bool         `json:"is_available"`
}

// Slot is a candidate appointment start time on a concrete date.
type Slot struct {
	Label string    `json:"label"` // "HH:MM"
	Start time.Time `json:"start"`
}

// Interval is a half-open [Start, End) time window.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds the interval occupied by an appointment.
func NewInterval(start time.Time, duration time.Duration) Interval {
	if duration <= 0 {
		duration = SlotInterval
	}
	return Interval{Start: start, End: start.Add(duration)}
}

// Overlaps reports whether two half-open intervals intersect. Appointments
// that merely touch (one ends exactly where the other starts) do not
// conflict.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: bad clock value %q", ErrInvalidWindow, value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrInvalidWindow, value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidWindow, value)
	}
	return hours*60 + minutes, nil
}

// ValidateWindow checks a timetable entry's clock values.
func ValidateWindow(startTime, endTime string) error {
	start, err := parseClock(startTime)
	if err != nil {
		return err
	}
	end, err := parseClock(endTime)
	if err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("%w: start %q must be before end %q", ErrInvalidWindow, startTime, endTime)
	}
	return nil
}
