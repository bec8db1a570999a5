package scheduling

import (
	"fmt"
	"time"
)

// CandidateSlots produces the ordered candidate start times for a doctor on
// the target date. It is a pure function of the timetable and the date: no
// bookings are consulted here, see FilterAvailable.
//
// The first entry whose weekday matches the date is used; additional entries
// for the same weekday are ignored. No matching entry means the doctor has no
// hours that day and the result is empty, which is not an error.
func CandidateSlots(entries []TimetableEntry, date time.Time) []Slot {
	entry, ok := entryForDay(entries, date.Weekday())
	if !ok {
		return nil
	}

	start, err := parseClock(entry.StartTime)
	if err != nil {
		return nil
	}
	end, err := parseClock(entry.EndTime)
	if err != nil || start >= end {
		return nil
	}

	step := int(SlotInterval / time.Minute)
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	// Every increment from start up to end is a candidate, including one
	// whose slot runs past end_time. Short and unaligned windows still
	// yield their starts; the requested duration is checked against
	// bookings, not against the window edge.
	var slots []Slot
	for minute := start; minute < end; minute += step {
		slots = append(slots, Slot{
			Label: fmt.Sprintf("%02d:%02d", minute/60, minute%60),
			Start: midnight.Add(time.Duration(minute) * time.Minute),
		})
	}
	return slots
}

// FilterAvailable removes candidate slots whose slot-length interval overlaps
// any of the busy intervals. Busy intervals should come from appointments in
// an active status only.
func FilterAvailable(slots []Slot, busy []Interval) []Slot {
	if len(busy) == 0 {
		return slots
	}
	available := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		if !ConflictsAny(busy, NewInterval(slot.Start, SlotInterval)) {
			available = append(available, slot)
		}
	}
	return available
}

// ConflictsAny reports whether the candidate interval intersects any busy
// interval. This is the single conflict rule used on both the patient booking
// path and the doctor accept path.
func ConflictsAny(busy []Interval, candidate Interval) bool {
	for _, b := range busy {
		if b.Overlaps(candidate) {
			return true
		}
	}
	return false
}

// Alternatives returns up to max open slots after the requested time, falling
// back to earlier slots when the tail of the day is full.
func Alternatives(open []Slot, requested time.Time, max int) []Slot {
	if max <= 0 || len(open) == 0 {
		return nil
	}
	var after, before []Slot
	for _, slot := range open {
		if slot.Start.After(requested) {
			after = append(after, slot)
		} else {
			before = append(before, slot)
		}
	}
	picked := after
	if len(picked) < max {
		// Closest earlier slots first.
		for i := len(before) - 1; i >= 0 && len(picked) < max; i-- {
			picked = append(picked, before[i])
		}
	}
	if len(picked) > max {
		picked = picked[:max]
	}
	return picked
}

func entryForDay(entries []TimetableEntry, day time.Weekday) (TimetableEntry, bool) {
	for _, entry := range entries {
		if entry.IsAvailable && entry.DayOfWeek == day {
			return entry, true
		}
	}
	return TimetableEntry{}, false
}
