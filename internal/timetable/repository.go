package timetable

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/afyalink/afya-platform/internal/scheduling"
)

var (
	// ErrNotFound is returned when the timetable entry does not exist.
	ErrNotFound = errors.New("timetable: entry not found")

	// ErrInvalidDay is returned for a day of week outside [0,6].
	ErrInvalidDay = errors.New("timetable: day_of_week must be 0-6")

	// ErrMissingDoctor is returned when the doctor id is absent.
	ErrMissingDoctor = errors.New("timetable: doctor id is required")
)

// CreateEntryRequest is the payload for adding an availability window.
type CreateEntryRequest struct {
	DoctorID    string `json:"-"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location"`
	IsAvailable *bool  `json:"is_available,omitempty"`
}

// Validate checks the request. Overlap between entries for the same day is
// deliberately not rejected; the slot generator uses the first matching
// entry.
func (r *CreateEntryRequest) Validate() error {
	if strings.TrimSpace(r.DoctorID) == "" {
		return ErrMissingDoctor
	}
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return ErrInvalidDay
	}
	return scheduling.ValidateWindow(r.StartTime, r.EndTime)
}

func (r *CreateEntryRequest) available() bool {
	if r.IsAvailable == nil {
		return true
	}
	return *r.IsAvailable
}

// Repository defines the interface for timetable storage.
type Repository interface {
	Create(ctx context.Context, req *CreateEntryRequest) (*scheduling.TimetableEntry, error)
	EntriesForDoctor(ctx context.Context, doctorID string) ([]scheduling.TimetableEntry, error)
	Update(ctx context.Context, doctorID, entryID string, req *CreateEntryRequest) (*scheduling.TimetableEntry, error)
	Delete(ctx context.Context, doctorID, entryID string) error
}

// InMemoryRepository is a map-backed Repository for tests and demo mode.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*scheduling.TimetableEntry
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{entries: make(map[string]*scheduling.TimetableEntry)}
}

// Create stores a new availability window.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateEntryRequest) (*scheduling.TimetableEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	entry := &scheduling.TimetableEntry{
		ID:          uuid.NewString(),
		DoctorID:    req.DoctorID,
		DayOfWeek:   time.Weekday(req.DayOfWeek),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		IsAvailable: req.available(),
	}

	r.mu.Lock()
	r.entries[entry.ID] = entry
	r.mu.Unlock()

	copied := *entry
	return &copied, nil
}

// EntriesForDoctor lists a doctor's windows ordered by day then start time.
func (r *InMemoryRepository) EntriesForDoctor(ctx context.Context, doctorID string) ([]scheduling.TimetableEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []scheduling.TimetableEntry
	for _, entry := range r.entries {
		if entry.DoctorID == doctorID {
			result = append(result, *entry)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		if result[i].StartTime != result[j].StartTime {
			return result[i].StartTime < result[j].StartTime
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Update replaces an entry's fields.
func (r *InMemoryRepository) Update(ctx context.Context, doctorID, entryID string, req *CreateEntryRequest) (*scheduling.TimetableEntry, error) {
	req.DoctorID = doctorID
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[entryID]
	if !ok || entry.DoctorID != doctorID {
		return nil, ErrNotFound
	}
	entry.DayOfWeek = time.Weekday(req.DayOfWeek)
	entry.StartTime = req.StartTime
	entry.EndTime = req.EndTime
	entry.Location = req.Location
	entry.IsAvailable = req.available()

	copied := *entry
	return &copied, nil
}

// Delete removes an entry.
func (r *InMemoryRepository) Delete(ctx context.Context, doctorID, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[entryID]
	if !ok || entry.DoctorID != doctorID {
		return ErrNotFound
	}
	delete(r.entries, entryID)
	return nil
}
