package directory

import (
	"context"
	"errors"
	"fmt"
)

// Service wraps the repository with the lookups the rest of the platform
// needs: marketplace search plus contact resolution for notifications.
type Service struct {
	repo Repository
}

// NewService creates a directory service.
func NewService(repo Repository) *Service {
	if repo == nil {
		panic("directory: repository required")
	}
	return &Service{repo: repo}
}

func (s *Service) SearchDoctors(ctx context.Context, q DoctorQuery) ([]*Doctor, error) {
	return s.repo.SearchDoctors(ctx, q)
}

func (s *Service) DoctorByID(ctx context.Context, id string) (*Doctor, error) {
	return s.repo.DoctorByID(ctx, id)
}

func (s *Service) SearchHospitals(ctx context.Context, q PlaceQuery) ([]*Hospital, error) {
	return s.repo.SearchHospitals(ctx, q)
}

func (s *Service) SearchPharmacies(ctx context.Context, q PlaceQuery) ([]*Pharmacy, error) {
	return s.repo.SearchPharmacies(ctx, q)
}

func (s *Service) SearchLabs(ctx context.Context, q PlaceQuery) ([]*Lab, error) {
	return s.repo.SearchLabs(ctx, q)
}

// ContactByUserID resolves a user's display name and email, preferring the
// account profile and falling back to the doctor listing.
func (s *Service) ContactByUserID(ctx context.Context, userID string) (name, email string, err error) {
	profile, err := s.repo.ProfileByUserID(ctx, userID)
	if err == nil {
		return profile.FullName, profile.Email, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", "", err
	}

	doctor, derr := s.repo.DoctorByUserID(ctx, userID)
	if derr != nil {
		return "", "", fmt.Errorf("directory: no contact for user %s: %w", userID, ErrNotFound)
	}
	return doctor.FullName, doctor.Email, nil
}
