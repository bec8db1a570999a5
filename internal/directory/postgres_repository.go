package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores the directory in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a directory repo over the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) UpsertDoctor(ctx context.Context, d *Doctor) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	query := `
		INSERT INTO doctors (id, user_id, full_name, specialty, hospital_id, bio, consultation_fee_cents, email)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			specialty = EXCLUDED.specialty,
			hospital_id = EXCLUDED.hospital_id,
			bio = EXCLUDED.bio,
			consultation_fee_cents = EXCLUDED.consultation_fee_cents,
			email = EXCLUDED.email
	`
	if _, err := r.pool.Exec(ctx, query,
		d.ID, d.UserID, d.FullName, d.Specialty, d.HospitalID, d.Bio, d.ConsultationFeeCents, d.Email,
	); err != nil {
		return fmt.Errorf("directory: upsert doctor: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DoctorByID(ctx context.Context, id string) (*Doctor, error) {
	return r.scanDoctor(r.pool.QueryRow(ctx, doctorSelect+` WHERE id = $1`, id))
}

func (r *PostgresRepository) DoctorByUserID(ctx context.Context, userID string) (*Doctor, error) {
	return r.scanDoctor(r.pool.QueryRow(ctx, doctorSelect+` WHERE user_id = $1`, userID))
}

const doctorSelect = `
	SELECT id, user_id, full_name, specialty, COALESCE(hospital_id::text, ''), bio, consultation_fee_cents, email
	FROM doctors
`

func (r *PostgresRepository) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.FullName, &d.Specialty, &d.HospitalID, &d.Bio, &d.ConsultationFeeCents, &d.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("directory: scan doctor: %w", err)
	}
	return &d, nil
}

func (r *PostgresRepository) SearchDoctors(ctx context.Context, q DoctorQuery) ([]*Doctor, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	query := doctorSelect + `
		WHERE ($1 = '' OR full_name ILIKE '%' || $1 || '%' OR specialty ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR lower(specialty) = lower($2))
		  AND ($3 = '' OR hospital_id::text = $3)
		ORDER BY full_name
		LIMIT $4
	`
	rows, err := r.pool.Query(ctx, query, q.Text, q.Specialty, q.HospitalID, limit)
	if err != nil {
		return nil, fmt.Errorf("directory: search doctors: %w", err)
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.UserID, &d.FullName, &d.Specialty, &d.HospitalID, &d.Bio, &d.ConsultationFeeCents, &d.Email); err != nil {
			return nil, fmt.Errorf("directory: scan doctor: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpsertHospital(ctx context.Context, h *Hospital) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	query := `
		INSERT INTO hospitals (id, name, city, address, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, city = EXCLUDED.city,
			address = EXCLUDED.address, phone = EXCLUDED.phone
	`
	if _, err := r.pool.Exec(ctx, query, h.ID, h.Name, h.City, h.Address, h.Phone); err != nil {
		return fmt.Errorf("directory: upsert hospital: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SearchHospitals(ctx context.Context, q PlaceQuery) ([]*Hospital, error) {
	rows, err := r.placeRows(ctx, "hospitals", q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Hospital
	for rows.Next() {
		var h Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.City, &h.Address, &h.Phone); err != nil {
			return nil, fmt.Errorf("directory: scan hospital: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpsertPharmacy(ctx context.Context, p *Pharmacy) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `
		INSERT INTO pharmacies (id, name, city, address, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, city = EXCLUDED.city,
			address = EXCLUDED.address, phone = EXCLUDED.phone
	`
	if _, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.City, p.Address, p.Phone); err != nil {
		return fmt.Errorf("directory: upsert pharmacy: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SearchPharmacies(ctx context.Context, q PlaceQuery) ([]*Pharmacy, error) {
	rows, err := r.placeRows(ctx, "pharmacies", q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Pharmacy
	for rows.Next() {
		var p Pharmacy
		if err := rows.Scan(&p.ID, &p.Name, &p.City, &p.Address, &p.Phone); err != nil {
			return nil, fmt.Errorf("directory: scan pharmacy: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpsertLab(ctx context.Context, l *Lab) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	query := `
		INSERT INTO labs (id, name, city, address, phone, services)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, city = EXCLUDED.city, address = EXCLUDED.address,
			phone = EXCLUDED.phone, services = EXCLUDED.services
	`
	if _, err := r.pool.Exec(ctx, query, l.ID, l.Name, l.City, l.Address, l.Phone, l.Services); err != nil {
		return fmt.Errorf("directory: upsert lab: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SearchLabs(ctx context.Context, q PlaceQuery) ([]*Lab, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	query := `
		SELECT id, name, city, address, phone, services
		FROM labs
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR city ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR lower(city) = lower($2))
		ORDER BY name
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, q.Text, q.City, limit)
	if err != nil {
		return nil, fmt.Errorf("directory: search labs: %w", err)
	}
	defer rows.Close()

	var out []*Lab
	for rows.Next() {
		var l Lab
		if err := rows.Scan(&l.ID, &l.Name, &l.City, &l.Address, &l.Phone, &l.Services); err != nil {
			return nil, fmt.Errorf("directory: scan lab: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) placeRows(ctx context.Context, table string, q PlaceQuery) (pgx.Rows, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	query := fmt.Sprintf(`
		SELECT id, name, city, address, phone
		FROM %s
		WHERE ($1 = '' OR name ILIKE '%%' || $1 || '%%' OR city ILIKE '%%' || $1 || '%%')
		  AND ($2 = '' OR lower(city) = lower($2))
		ORDER BY name
		LIMIT $3
	`, table)
	rows, err := r.pool.Query(ctx, query, q.Text, q.City, limit)
	if err != nil {
		return nil, fmt.Errorf("directory: search %s: %w", table, err)
	}
	return rows, nil
}

func (r *PostgresRepository) UpsertProfile(ctx context.Context, p *Profile) error {
	if p.UserID == "" {
		return errors.New("directory: profile user id required")
	}
	query := `
		INSERT INTO profiles (user_id, full_name, email, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name, email = EXCLUDED.email, role = EXCLUDED.role
	`
	if _, err := r.pool.Exec(ctx, query, p.UserID, p.FullName, p.Email, p.Role); err != nil {
		return fmt.Errorf("directory: upsert profile: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ProfileByUserID(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, full_name, email, role FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.FullName, &p.Email, &p.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("directory: load profile: %w", err)
	}
	return &p, nil
}
