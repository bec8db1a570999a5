package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database. The
// appointments table carries a partial unique index on
// (doctor_id, starts_at) WHERE status IN ('pending','approved'), so the
// slot-uniqueness invariant holds even when two commits race past the
// application-level conflict check.
type PostgresRepository struct {
	db dbConn
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithConn allows injecting mocks for tests.
func NewPostgresRepositoryWithConn(conn dbConn) *PostgresRepository {
	if conn == nil {
		panic("appointments: db conn required")
	}
	return &PostgresRepository{db: conn}
}

const appointmentColumns = `id, patient_id, doctor_id, starts_at, duration_minutes,
		consultation_type, status, symptoms, notes, suggested_time, fee_cents,
		created_at, updated_at`

// Insert stores a new appointment row. A unique-index violation on the
// active-slot index is surfaced as ErrSlotTaken.
func (r *PostgresRepository) Insert(ctx context.Context, appt *Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, starts_at, duration_minutes,
			consultation_type, status, symptoms, fee_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		appt.ID,
		appt.PatientID,
		appt.DoctorID,
		appt.StartsAt,
		appt.DurationMinutes,
		string(appt.ConsultationType),
		string(appt.Status),
		appt.Symptoms,
		appt.FeeCents,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// ActiveForDoctorDay returns active appointments on the given calendar day.
func (r *PostgresRepository) ActiveForDoctorDay(ctx context.Context, doctorID string, day time.Time) ([]*Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		  AND status IN ('pending', 'approved')
		  AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at
	`
	rows, err := r.db.Query(ctx, query, doctorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("appointments: day query failed: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListForUser returns appointments for the patient or doctor, newest first.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID string, role string, limit, offset int) ([]*Appointment, error) {
	column := "patient_id"
	if role == "doctor" {
		column = "doctor_id"
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE ` + column + ` = $1
		ORDER BY starts_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("appointments: list query failed: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// UpdateStatus mutates status, notes and suggested time in one statement.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status, notes string, suggestedTime *time.Time) (*Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $2,
		    notes = COALESCE(NULLIF($3, ''), notes),
		    suggested_time = COALESCE($4, suggested_time),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + appointmentColumns + `
	`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id, string(status), notes, suggestedTime))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: update failed: %w", err)
	}
	return appt, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var consultationType, status string
	if err := row.Scan(
		&appt.ID,
		&appt.PatientID,
		&appt.DoctorID,
		&appt.StartsAt,
		&appt.DurationMinutes,
		&consultationType,
		&status,
		&appt.Symptoms,
		&appt.Notes,
		&appt.SuggestedTime,
		&appt.FeeCents,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	appt.ConsultationType = ConsultationType(consultationType)
	appt.Status = Status(status)
	return &appt, nil
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var result []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		result = append(result, appt)
	}
	return result, rows.Err()
}
