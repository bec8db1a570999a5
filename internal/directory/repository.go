package directory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a directory record does not exist.
var ErrNotFound = errors.New("directory: not found")

// DoctorQuery filters the doctor listing. Empty fields match everything.
type DoctorQuery struct {
	Text       string // matched against name and specialty
	Specialty  string
	HospitalID string
	Limit      int
}

// PlaceQuery filters hospitals, pharmacies and labs.
type PlaceQuery struct {
	Text  string // matched against name and city
	City  string
	Limit int
}

// Repository is the read/write surface of the provider directory.
type Repository interface {
	UpsertDoctor(ctx context.Context, d *Doctor) error
	DoctorByID(ctx context.Context, id string) (*Doctor, error)
	DoctorByUserID(ctx context.Context, userID string) (*Doctor, error)
	SearchDoctors(ctx context.Context, q DoctorQuery) ([]*Doctor, error)

	UpsertHospital(ctx context.Context, h *Hospital) error
	SearchHospitals(ctx context.Context, q PlaceQuery) ([]*Hospital, error)

	UpsertPharmacy(ctx context.Context, p *Pharmacy) error
	SearchPharmacies(ctx context.Context, q PlaceQuery) ([]*Pharmacy, error)

	UpsertLab(ctx context.Context, l *Lab) error
	SearchLabs(ctx context.Context, q PlaceQuery) ([]*Lab, error)

	UpsertProfile(ctx context.Context, p *Profile) error
	ProfileByUserID(ctx context.Context, userID string) (*Profile, error)
}

// InMemoryRepository backs the directory for tests and demo mode.
type InMemoryRepository struct {
	mu         sync.RWMutex
	doctors    map[string]*Doctor
	hospitals  map[string]*Hospital
	pharmacies map[string]*Pharmacy
	labs       map[string]*Lab
	profiles   map[string]*Profile
}

// NewInMemoryRepository creates an empty in-memory directory.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		doctors:    make(map[string]*Doctor),
		hospitals:  make(map[string]*Hospital),
		pharmacies: make(map[string]*Pharmacy),
		labs:       make(map[string]*Lab),
		profiles:   make(map[string]*Profile),
	}
}

func (r *InMemoryRepository) UpsertDoctor(ctx context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	stored := *d
	r.doctors[d.ID] = &stored
	return nil
}

func (r *InMemoryRepository) DoctorByID(ctx context.Context, id string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *InMemoryRepository) DoctorByUserID(ctx context.Context, userID string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.doctors {
		if d.UserID == userID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) SearchDoctors(ctx context.Context, q DoctorQuery) ([]*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Doctor
	for _, d := range r.doctors {
		if q.Specialty != "" && !strings.EqualFold(d.Specialty, q.Specialty) {
			continue
		}
		if q.HospitalID != "" && d.HospitalID != q.HospitalID {
			continue
		}
		if q.Text != "" && !containsFold(d.FullName, q.Text) && !containsFold(d.Specialty, q.Text) {
			continue
		}
		copied := *d
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return clip(out, q.Limit), nil
}

func (r *InMemoryRepository) UpsertHospital(ctx context.Context, h *Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	stored := *h
	r.hospitals[h.ID] = &stored
	return nil
}

func (r *InMemoryRepository) SearchHospitals(ctx context.Context, q PlaceQuery) ([]*Hospital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Hospital
	for _, h := range r.hospitals {
		if !matchPlace(q, h.Name, h.City) {
			continue
		}
		copied := *h
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return clip(out, q.Limit), nil
}

func (r *InMemoryRepository) UpsertPharmacy(ctx context.Context, p *Pharmacy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	stored := *p
	r.pharmacies[p.ID] = &stored
	return nil
}

func (r *InMemoryRepository) SearchPharmacies(ctx context.Context, q PlaceQuery) ([]*Pharmacy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Pharmacy
	for _, p := range r.pharmacies {
		if !matchPlace(q, p.Name, p.City) {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return clip(out, q.Limit), nil
}

func (r *InMemoryRepository) UpsertLab(ctx context.Context, l *Lab) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	stored := *l
	r.labs[l.ID] = &stored
	return nil
}

func (r *InMemoryRepository) SearchLabs(ctx context.Context, q PlaceQuery) ([]*Lab, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Lab
	for _, l := range r.labs {
		if !matchPlace(q, l.Name, l.City) {
			continue
		}
		copied := *l
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return clip(out, q.Limit), nil
}

func (r *InMemoryRepository) UpsertProfile(ctx context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.UserID == "" {
		return errors.New("directory: profile user id required")
	}
	stored := *p
	r.profiles[p.UserID] = &stored
	return nil
}

func (r *InMemoryRepository) ProfileByUserID(ctx context.Context, userID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func matchPlace(q PlaceQuery, name, city string) bool {
	if q.City != "" && !strings.EqualFold(city, q.City) {
		return false
	}
	if q.Text != "" && !containsFold(name, q.Text) && !containsFold(city, q.Text) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func clip[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
