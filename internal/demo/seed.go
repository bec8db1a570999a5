// Package demo seeds the in-memory stores with a small Tanzanian data set
// so the API is explorable without a database.
package demo

import (
	"context"
	"fmt"

	"github.com/afyalink/afya-platform/internal/directory"
	"github.com/afyalink/afya-platform/internal/timetable"
	"github.com/afyalink/afya-platform/pkg/logging"
)

// Seed loads demo hospitals, doctors, pharmacies, labs, and weekly
// timetables. Intended for the in-memory storage mode only; running it
// against Postgres would upsert the demo rows into real data.
func Seed(ctx context.Context, dir directory.Repository, tt timetable.Repository, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Default()
	}

	hospitals := []*directory.Hospital{
		{ID: "hosp-muhimbili", Name: "Muhimbili National Hospital", City: "Dar es Salaam", Address: "United Nations Rd", Phone: "+255 22 215 1367"},
		{ID: "hosp-bugando", Name: "Bugando Medical Centre", City: "Mwanza", Address: "Wurzburg Rd", Phone: "+255 28 250 0513"},
		{ID: "hosp-kcmc", Name: "Kilimanjaro Christian Medical Centre", City: "Moshi", Address: "Sokoine Rd", Phone: "+255 27 275 4377"},
	}
	for _, h := range hospitals {
		if err := dir.UpsertHospital(ctx, h); err != nil {
			return fmt.Errorf("demo: seed hospital %s: %w", h.ID, err)
		}
	}

	doctors := []*directory.Doctor{
		{ID: "doc-amani", UserID: "user-amani", FullName: "Amani Mushi", Specialty: "Cardiology", HospitalID: "hosp-muhimbili", Bio: "Consultant cardiologist with 12 years of practice.", ConsultationFeeCents: 2500000, Email: "amani.mushi@example.com"},
		{ID: "doc-neema", UserID: "user-neema", FullName: "Neema Kessy", Specialty: "Pediatrics", HospitalID: "hosp-muhimbili", Bio: "Pediatrician focused on neonatal care.", ConsultationFeeCents: 2000000, Email: "neema.kessy@example.com"},
		{ID: "doc-baraka", UserID: "user-baraka", FullName: "Baraka Mwita", Specialty: "Dermatology", HospitalID: "hosp-bugando", Bio: "Dermatologist treating chronic skin conditions.", ConsultationFeeCents: 1800000, Email: "baraka.mwita@example.com"},
		{ID: "doc-zawadi", UserID: "user-zawadi", FullName: "Zawadi Komba", Specialty: "General Medicine", HospitalID: "hosp-kcmc", Bio: "General practitioner for everyday consultations.", ConsultationFeeCents: 1500000, Email: "zawadi.komba@example.com"},
	}
	for _, d := range doctors {
		if err := dir.UpsertDoctor(ctx, d); err != nil {
			return fmt.Errorf("demo: seed doctor %s: %w", d.ID, err)
		}
		if err := dir.UpsertProfile(ctx, &directory.Profile{
			UserID:   d.UserID,
			FullName: d.FullName,
			Email:    d.Email,
			Role:     "doctor",
		}); err != nil {
			return fmt.Errorf("demo: seed profile %s: %w", d.UserID, err)
		}
	}

	pharmacies := []*directory.Pharmacy{
		{ID: "ph-kariakoo", Name: "Kariakoo Pharmacy", City: "Dar es Salaam", Address: "Msimbazi St", Phone: "+255 713 000 111"},
		{ID: "ph-mwanza", Name: "Lakeside Pharmacy", City: "Mwanza", Address: "Kenyatta Rd", Phone: "+255 754 222 333"},
	}
	for _, p := range pharmacies {
		if err := dir.UpsertPharmacy(ctx, p); err != nil {
			return fmt.Errorf("demo: seed pharmacy %s: %w", p.ID, err)
		}
	}

	labs := []*directory.Lab{
		{ID: "lab-lancet", Name: "Lancet Laboratories", City: "Dar es Salaam", Address: "Ali Hassan Mwinyi Rd", Phone: "+255 22 211 0000", Services: "Hematology, chemistry, microbiology"},
		{ID: "lab-moshi", Name: "Moshi Diagnostic Centre", City: "Moshi", Address: "Market St", Phone: "+255 27 275 0000", Services: "Imaging, pathology"},
	}
	for _, l := range labs {
		if err := dir.UpsertLab(ctx, l); err != nil {
			return fmt.Errorf("demo: seed lab %s: %w", l.ID, err)
		}
	}

	// Weekday morning and afternoon windows for every demo doctor.
	for _, d := range doctors {
		for day := 1; day <= 5; day++ {
			for _, window := range [][2]string{{"09:00", "12:00"}, {"14:00", "17:00"}} {
				if _, err := tt.Create(ctx, &timetable.CreateEntryRequest{
					DoctorID:  d.UserID,
					DayOfWeek: day,
					StartTime: window[0],
					EndTime:   window[1],
					Location:  "Telemedicine",
				}); err != nil {
					return fmt.Errorf("demo: seed timetable for %s: %w", d.UserID, err)
				}
			}
		}
	}

	logger.Info("demo data seeded",
		"hospitals", len(hospitals),
		"doctors", len(doctors),
		"pharmacies", len(pharmacies),
		"labs", len(labs),
	)
	return nil
}
