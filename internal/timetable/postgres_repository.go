package timetable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afyalink/afya-platform/internal/scheduling"
)

// PostgresRepository stores timetable entries in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("timetable: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new availability window.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateEntryRequest) (*scheduling.TimetableEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	query := `
		INSERT INTO doctor_timetables (id, doctor_id, day_of_week, start_time, end_time, location, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.pool.Exec(ctx, query,
		id,
		req.DoctorID,
		req.DayOfWeek,
		req.StartTime,
		req.EndTime,
		req.Location,
		req.available(),
	); err != nil {
		return nil, fmt.Errorf("timetable: insert failed: %w", err)
	}

	return &scheduling.TimetableEntry{
		ID:          id,
		DoctorID:    req.DoctorID,
		DayOfWeek:   time.Weekday(req.DayOfWeek),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		IsAvailable: req.available(),
	}, nil
}

// EntriesForDoctor lists a doctor's windows ordered by day then start time.
func (r *PostgresRepository) EntriesForDoctor(ctx context.Context, doctorID string) ([]scheduling.TimetableEntry, error) {
	query := `
		SELECT id, doctor_id, day_of_week, start_time, end_time, location, is_available
		FROM doctor_timetables
		WHERE doctor_id = $1
		ORDER BY day_of_week, start_time, id
	`
	rows, err := r.pool.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("timetable: select failed: %w", err)
	}
	defer rows.Close()

	var entries []scheduling.TimetableEntry
	for rows.Next() {
		var entry scheduling.TimetableEntry
		var day int
		if err := rows.Scan(&entry.ID, &entry.DoctorID, &day, &entry.StartTime, &entry.EndTime, &entry.Location, &entry.IsAvailable); err != nil {
			return nil, fmt.Errorf("timetable: scan failed: %w", err)
		}
		entry.DayOfWeek = time.Weekday(day)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Update replaces an entry's fields, scoped to the doctor.
func (r *PostgresRepository) Update(ctx context.Context, doctorID, entryID string, req *CreateEntryRequest) (*scheduling.TimetableEntry, error) {
	req.DoctorID = doctorID
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE doctor_timetables
		SET day_of_week = $3, start_time = $4, end_time = $5, location = $6, is_available = $7
		WHERE id = $1 AND doctor_id = $2
		RETURNING id
	`
	var id string
	err := r.pool.QueryRow(ctx, query,
		entryID,
		doctorID,
		req.DayOfWeek,
		req.StartTime,
		req.EndTime,
		req.Location,
		req.available(),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("timetable: update failed: %w", err)
	}

	return &scheduling.TimetableEntry{
		ID:          id,
		DoctorID:    doctorID,
		DayOfWeek:   time.Weekday(req.DayOfWeek),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		IsAvailable: req.available(),
	}, nil
}

// Delete removes an entry, scoped to the doctor.
func (r *PostgresRepository) Delete(ctx context.Context, doctorID, entryID string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM doctor_timetables WHERE id = $1 AND doctor_id = $2`, entryID, doctorID)
	if err != nil {
		return fmt.Errorf("timetable: delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
