package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, first_name, last_name, parent_name, phone_number, date_of_birth,
	email, address, medical_notes, profile_image, last_visit,
	created_at, updated_at`

func scanRow(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.ParentName, &p.PhoneNumber, &p.DateOfBirth,
		&p.Email, &p.Address, &p.MedicalNotes, &p.ProfileImage, &p.LastVisit,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	// created_at and updated_at come from the same statement timestamp.
	return r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, first_name, last_name, parent_name, phone_number, date_of_birth,
			email, address, medical_notes, profile_image, last_visit)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.ParentName, p.PhoneNumber, p.DateOfBirth,
		p.Email, p.Address, p.MedicalNotes, p.ProfileImage, p.LastVisit).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanRow(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE patients SET first_name=$2, last_name=$3, parent_name=$4, phone_number=$5,
			date_of_birth=$6, email=$7, address=$8, medical_notes=$9, profile_image=$10,
			last_visit=$11, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.FirstName, p.LastName, p.ParentName, p.PhoneNumber,
		p.DateOfBirth, p.Email, p.Address, p.MedicalNotes, p.ProfileImage,
		p.LastVisit).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*Patient{}
	for rows.Next() {
		p, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
