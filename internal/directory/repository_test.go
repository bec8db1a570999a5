package directory

import (
	"context"
	"errors"
	"testing"
)

func seedDirectory(t *testing.T) *InMemoryRepository {
	t.Helper()
	repo := NewInMemoryRepository()
	ctx := context.Background()

	hospitals := []*Hospital{
		{ID: "hosp-1", Name: "Muhimbili National Hospital", City: "Dar es Salaam"},
		{ID: "hosp-2", Name: "Bugando Medical Centre", City: "Mwanza"},
	}
	for _, h := range hospitals {
		if err := repo.UpsertHospital(ctx, h); err != nil {
			t.Fatalf("UpsertHospital: %v", err)
		}
	}

	doctors := []*Doctor{
		{ID: "doc-1", UserID: "user-d1", FullName: "Amani Mushi", Specialty: "Cardiology", HospitalID: "hosp-1", Email: "amani@example.org"},
		{ID: "doc-2", UserID: "user-d2", FullName: "Neema Kessy", Specialty: "Pediatrics", HospitalID: "hosp-1"},
		{ID: "doc-3", UserID: "user-d3", FullName: "Baraka Mwita", Specialty: "Cardiology", HospitalID: "hosp-2"},
	}
	for _, d := range doctors {
		if err := repo.UpsertDoctor(ctx, d); err != nil {
			t.Fatalf("UpsertDoctor: %v", err)
		}
	}

	if err := repo.UpsertPharmacy(ctx, &Pharmacy{ID: "ph-1", Name: "City Pharmacy", City: "Dar es Salaam"}); err != nil {
		t.Fatalf("UpsertPharmacy: %v", err)
	}
	if err := repo.UpsertLab(ctx, &Lab{ID: "lab-1", Name: "Lancet Labs", City: "Dar es Salaam", Services: "blood tests, imaging"}); err != nil {
		t.Fatalf("UpsertLab: %v", err)
	}
	return repo
}

func TestSearchDoctorsBySpecialty(t *testing.T) {
	repo := seedDirectory(t)

	docs, err := repo.SearchDoctors(context.Background(), DoctorQuery{Specialty: "cardiology"})
	if err != nil {
		t.Fatalf("SearchDoctors: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 cardiologists, got %d", len(docs))
	}
	// Sorted by name.
	if docs[0].FullName != "Amani Mushi" || docs[1].FullName != "Baraka Mwita" {
		t.Errorf("unexpected ordering: %s, %s", docs[0].FullName, docs[1].FullName)
	}
}

func TestSearchDoctorsByFreeText(t *testing.T) {
	repo := seedDirectory(t)

	docs, err := repo.SearchDoctors(context.Background(), DoctorQuery{Text: "neema"})
	if err != nil {
		t.Fatalf("SearchDoctors: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-2" {
		t.Fatalf("expected doc-2, got %+v", docs)
	}

	// Free text also matches the specialty column.
	docs, _ = repo.SearchDoctors(context.Background(), DoctorQuery{Text: "pediat"})
	if len(docs) != 1 || docs[0].ID != "doc-2" {
		t.Fatalf("specialty text match failed: %+v", docs)
	}
}

func TestSearchDoctorsByHospital(t *testing.T) {
	repo := seedDirectory(t)

	docs, err := repo.SearchDoctors(context.Background(), DoctorQuery{HospitalID: "hosp-2"})
	if err != nil {
		t.Fatalf("SearchDoctors: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-3" {
		t.Fatalf("expected doc-3, got %+v", docs)
	}
}

func TestSearchDoctorsLimit(t *testing.T) {
	repo := seedDirectory(t)

	docs, err := repo.SearchDoctors(context.Background(), DoctorQuery{Limit: 2})
	if err != nil {
		t.Fatalf("SearchDoctors: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(docs))
	}
}

func TestDoctorLookups(t *testing.T) {
	repo := seedDirectory(t)

	d, err := repo.DoctorByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("DoctorByID: %v", err)
	}
	if d.FullName != "Amani Mushi" {
		t.Errorf("unexpected doctor: %+v", d)
	}

	d, err = repo.DoctorByUserID(context.Background(), "user-d3")
	if err != nil {
		t.Fatalf("DoctorByUserID: %v", err)
	}
	if d.ID != "doc-3" {
		t.Errorf("expected doc-3, got %s", d.ID)
	}

	if _, err := repo.DoctorByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchPlacesByCity(t *testing.T) {
	repo := seedDirectory(t)

	hospitals, err := repo.SearchHospitals(context.Background(), PlaceQuery{City: "mwanza"})
	if err != nil {
		t.Fatalf("SearchHospitals: %v", err)
	}
	if len(hospitals) != 1 || hospitals[0].ID != "hosp-2" {
		t.Fatalf("expected hosp-2, got %+v", hospitals)
	}

	pharmacies, _ := repo.SearchPharmacies(context.Background(), PlaceQuery{City: "Dar es Salaam"})
	if len(pharmacies) != 1 {
		t.Fatalf("expected 1 pharmacy, got %d", len(pharmacies))
	}

	labs, _ := repo.SearchLabs(context.Background(), PlaceQuery{Text: "lancet"})
	if len(labs) != 1 || labs[0].ID != "lab-1" {
		t.Fatalf("expected lab-1, got %+v", labs)
	}
}

func TestContactResolution(t *testing.T) {
	repo := seedDirectory(t)
	svc := NewService(repo)
	ctx := context.Background()

	if err := repo.UpsertProfile(ctx, &Profile{UserID: "user-p1", FullName: "Zawadi Juma", Email: "zawadi@example.org", Role: "patient"}); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}

	name, email, err := svc.ContactByUserID(ctx, "user-p1")
	if err != nil {
		t.Fatalf("ContactByUserID: %v", err)
	}
	if name != "Zawadi Juma" || email != "zawadi@example.org" {
		t.Errorf("unexpected contact: %s <%s>", name, email)
	}

	// No profile row, but the doctor listing carries an email.
	name, email, err = svc.ContactByUserID(ctx, "user-d1")
	if err != nil {
		t.Fatalf("ContactByUserID doctor fallback: %v", err)
	}
	if name != "Amani Mushi" || email != "amani@example.org" {
		t.Errorf("unexpected doctor contact: %s <%s>", name, email)
	}

	if _, _, err := svc.ContactByUserID(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}
