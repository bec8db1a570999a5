package scheduling

import (
	"testing"
	"time"
)

// monday is a known Monday used across the tests.
var monday = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func mondayAt(hour, minute int) time.Time {
	return time.Date(2025, time.March, 3, hour, minute, 0, 0, time.UTC)
}

func weekdayEntry(day time.Weekday, start, end string, available bool) TimetableEntry {
	return TimetableEntry{
		ID:          "entry-1",
		DoctorID:    "doc-1",
		DayOfWeek:   day,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: available,
	}
}

func TestCandidateSlotsMorningWindow(t *testing.T) {
	entries := []TimetableEntry{weekdayEntry(time.Monday, "08:00", "10:00", true)}

	slots := CandidateSlots(entries, monday)

	want := []string{"08:00", "08:30", "09:00", "09:30"}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i, label := range want {
		if slots[i].Label != label {
			t.Errorf("slot %d: expected %s, got %s", i, label, slots[i].Label)
		}
	}
}

func TestCandidateSlotsStrictlyIncreasingAndSpaced(t *testing.T) {
	entries := []TimetableEntry{weekdayEntry(time.Monday, "09:00", "17:00", true)}

	slots := CandidateSlots(entries, monday)
	if len(slots) == 0 {
		t.Fatal("expected slots for a full workday")
	}
	for i := 1; i < len(slots); i++ {
		if got := slots[i].Start.Sub(slots[i-1].Start); got != SlotInterval {
			t.Fatalf("slot %d not %s after previous, got %s", i, SlotInterval, got)
		}
	}
}

func TestCandidateSlotsShortWindowStillYieldsItsStart(t *testing.T) {
	entries := []TimetableEntry{weekdayEntry(time.Monday, "09:45", "10:00", true)}

	slots := CandidateSlots(entries, monday)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot for a 15-minute window, got %d", len(slots))
	}
	if slots[0].Label != "09:45" {
		t.Errorf("expected slot 09:45, got %s", slots[0].Label)
	}
}

func TestCandidateSlotsUnalignedEndEmitsLastIncrement(t *testing.T) {
	entries := []TimetableEntry{weekdayEntry(time.Monday, "08:00", "09:45", true)}

	slots := CandidateSlots(entries, monday)

	want := []string{"08:00", "08:30", "09:00", "09:30"}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	if got := slots[len(slots)-1].Label; got != "09:30" {
		t.Errorf("expected final candidate 09:30, got %s", got)
	}
}

func TestCandidateSlotsNoEntryForWeekday(t *testing.T) {
	entries := []TimetableEntry{weekdayEntry(time.Tuesday, "08:00", "10:00", true)}

	if slots := CandidateSlots(entries, monday); len(slots) != 0 {
		t.Fatalf("expected no slots on a day without hours, got %d", len(slots))
	}
}

func TestCandidateSlotsSkipsUnavailableEntries(t *testing.T) {
	entries := []TimetableEntry{
		weekdayEntry(time.Monday, "08:00", "10:00", false),
		weekdayEntry(time.Monday, "14:00", "15:00", true),
	}

	slots := CandidateSlots(entries, monday)
	if len(slots) != 2 {
		t.Fatalf("expected 2 afternoon slots, got %d", len(slots))
	}
	if slots[0].Label != "14:00" {
		t.Errorf("expected first slot 14:00, got %s", slots[0].Label)
	}
}

func TestCandidateSlotsFirstMatchingEntryWins(t *testing.T) {
	entries := []TimetableEntry{
		weekdayEntry(time.Monday, "08:00", "09:00", true),
		weekdayEntry(time.Monday, "13:00", "18:00", true),
	}

	slots := CandidateSlots(entries, monday)
	if len(slots) != 2 {
		t.Fatalf("expected only the first entry's slots, got %d", len(slots))
	}
	if slots[0].Label != "08:00" || slots[1].Label != "08:30" {
		t.Errorf("unexpected slots: %v", slots)
	}
}

func TestCandidateSlotsPureAndRepeatable(t *testing.T) {
	entries := []TimetableEntry{weekdayEntry(time.Monday, "08:00", "12:00", true)}

	first := CandidateSlots(entries, monday)
	second := CandidateSlots(entries, monday)

	if len(first) != len(second) {
		t.Fatalf("repeat call returned different lengths: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("slot %d differs between calls: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestIntervalOverlaps(t *testing.T) {
	base := NewInterval(mondayAt(9, 0), 30*time.Minute)

	cases := []struct {
		name      string
		other     Interval
		wantClash bool
	}{
		{"identical", NewInterval(mondayAt(9, 0), 30*time.Minute), true},
		{"offset within", NewInterval(mondayAt(9, 15), 30*time.Minute), true},
		{"long appointment started earlier", NewInterval(mondayAt(8, 45), 60*time.Minute), true},
		{"touching before", NewInterval(mondayAt(8, 30), 30*time.Minute), false},
		{"touching after", NewInterval(mondayAt(9, 30), 30*time.Minute), false},
		{"disjoint", NewInterval(mondayAt(11, 0), 30*time.Minute), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Overlaps(tc.other); got != tc.wantClash {
				t.Errorf("Overlaps(%v) = %v, want %v", tc.other, got, tc.wantClash)
			}
			// Symmetry.
			if got := tc.other.Overlaps(base); got != tc.wantClash {
				t.Errorf("reverse Overlaps = %v, want %v", got, tc.wantClash)
			}
		})
	}
}

func TestNewIntervalDefaultsDuration(t *testing.T) {
	iv := NewInterval(mondayAt(9, 0), 0)
	if got := iv.End.Sub(iv.Start); got != SlotInterval {
		t.Fatalf("expected default duration %s, got %s", SlotInterval, got)
	}
}

func TestFilterAvailableRemovesOverlappingSlots(t *testing.T) {
	entries := []TimetableEntry{weekdayEntry(time.Monday, "08:00", "10:00", true)}
	slots := CandidateSlots(entries, monday)

	// A 30-minute appointment at 08:30.
	busy := []Interval{NewInterval(mondayAt(8, 30), 30*time.Minute)}

	open := FilterAvailable(slots, busy)
	want := []string{"08:00", "09:00", "09:30"}
	if len(open) != len(want) {
		t.Fatalf("expected %d open slots, got %d", len(want), len(open))
	}
	for i, label := range want {
		if open[i].Label != label {
			t.Errorf("open slot %d: expected %s, got %s", i, label, open[i].Label)
		}
	}

	// The unfiltered generator still includes 08:30.
	if slots[1].Label != "08:30" {
		t.Errorf("generator should still emit 08:30, got %s", slots[1].Label)
	}
}

func TestFilterAvailableLongAppointmentBlocksMultipleSlots(t *testing.T) {
	entries := []TimetableEntry{weekdayEntry(time.Monday, "08:00", "10:00", true)}
	slots := CandidateSlots(entries, monday)

	// A 60-minute appointment at 08:15 shadows 08:00, 08:30 and 09:00.
	busy := []Interval{NewInterval(mondayAt(8, 15), 60*time.Minute)}

	open := FilterAvailable(slots, busy)
	if len(open) != 1 || open[0].Label != "09:30" {
		t.Fatalf("expected only 09:30 open, got %v", open)
	}
}

func TestAlternativesPrefersLaterSlots(t *testing.T) {
	entries := []TimetableEntry{weekdayEntry(time.Monday, "08:00", "12:00", true)}
	open := CandidateSlots(entries, monday)

	alts := Alternatives(open, mondayAt(9, 0), 3)
	if len(alts) != 3 {
		t.Fatalf("expected 3 alternatives, got %d", len(alts))
	}
	want := []string{"09:30", "10:00", "10:30"}
	for i, label := range want {
		if alts[i].Label != label {
			t.Errorf("alternative %d: expected %s, got %s", i, label, alts[i].Label)
		}
	}
}

func TestAlternativesFallsBackToEarlierSlots(t *testing.T) {
	entries := []TimetableEntry{weekdayEntry(time.Monday, "08:00", "10:00", true)}
	open := CandidateSlots(entries, monday)

	alts := Alternatives(open, mondayAt(9, 30), 3)
	if len(alts) != 3 {
		t.Fatalf("expected 3 alternatives, got %d", len(alts))
	}
	// Nothing after 09:30; closest earlier slots, latest first.
	want := []string{"09:30", "09:00", "08:30"}
	for i, label := range want {
		if alts[i].Label != label {
			t.Errorf("alternative %d: expected %s, got %s", i, label, alts[i].Label)
		}
	}
}

func TestAlternativesEmptyWhenNoOpenSlots(t *testing.T) {
	if alts := Alternatives(nil, mondayAt(9, 0), 3); len(alts) != 0 {
		t.Fatalf("expected no alternatives, got %v", alts)
	}
}

func TestValidateWindow(t *testing.T) {
	if err := ValidateWindow("08:00", "17:00"); err != nil {
		t.Errorf("valid window rejected: %v", err)
	}
	for _, bad := range [][2]string{
		{"17:00", "08:00"},
		{"08:00", "08:00"},
		{"8am", "17:00"},
		{"08:00", "25:00"},
		{"08:61", "09:00"},
		{"", "09:00"},
	} {
		if err := ValidateWindow(bad[0], bad[1]); err == nil {
			t.Errorf("expected error for window %q-%q", bad[0], bad[1])
		}
	}
}
