package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const profileColumns = `owner_id, full_name, license_number, specialty, phone, email, letterhead_url, updated_at`

type RepositoryInterface interface {
	GetProfile(ctx context.Context, ownerID string) (*Profile, error)
	UpsertProfile(ctx context.Context, p Profile) (*Profile, error)
}

var _ RepositoryInterface = (*Repository)(nil)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanProfile(row *sql.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.OwnerID, &p.FullName, &p.LicenseNumber, &p.Specialty, &p.Phone, &p.Email, &p.LetterheadURL, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetProfile(ctx context.Context, ownerID string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE owner_id = $1`, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return p, nil
}

func (r *Repository) UpsertProfile(ctx context.Context, p Profile) (*Profile, error) {
	saved, err := scanProfile(r.db.QueryRowContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			license_number = EXCLUDED.license_number,
			specialty = EXCLUDED.specialty,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			letterhead_url = EXCLUDED.letterhead_url,
			updated_at = EXCLUDED.updated_at
		RETURNING `+profileColumns,
		p.OwnerID, p.FullName, p.LicenseNumber, p.Specialty, p.Phone, p.Email, p.LetterheadURL, time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return saved, nil
}
