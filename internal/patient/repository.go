package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agendapp/office-service/internal/pagination"
	"github.com/google/uuid"
)

const patientColumns = `id, name, birth_date, cpf, phone, email, guardian, patient_type,
	insurer_name, insurer_plan, postal_code, street, street_number, complement,
	district, city, state, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*PatientResponse, error) {
	var (
		p         PatientResponse
		birthDate sql.NullTime
		nullable  [14]sql.NullString
		updatedAt sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.Name, &birthDate,
		&nullable[0], &nullable[1], &nullable[2], &nullable[3], &nullable[4],
		&nullable[5], &nullable[6], &nullable[7], &nullable[8], &nullable[9],
		&nullable[10], &nullable[11], &nullable[12], &nullable[13],
		&p.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CPF = nullable[0].String
	p.Phone = nullable[1].String
	p.Email = nullable[2].String
	p.Guardian = nullable[3].String
	p.PatientType = nullable[4].String
	p.InsurerName = nullable[5].String
	p.InsurerPlan = nullable[6].String
	p.Address = Address{
		PostalCode: nullable[7].String,
		Street:     nullable[8].String,
		Number:     nullable[9].String,
		Complement: nullable[10].String,
		District:   nullable[11].String,
		City:       nullable[12].String,
		State:      nullable[13].String,
	}
	if birthDate.Valid {
		s := birthDate.Time.Format("2006-01-02")
		p.BirthDate = &s
	}
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	return &p, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (r *Repository) CreatePatient(ctx context.Context, ownerID string, req CreatePatientRequest) (*PatientResponse, error) {
	query := `
		INSERT INTO patients (id, owner_id, name, birth_date, cpf, phone, email, guardian, patient_type,
			insurer_name, insurer_plan, postal_code, street, street_number, complement, district, city, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING ` + patientColumns

	a := req.Address
	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), ownerID, req.Name, nullIfEmpty(req.BirthDate),
		nullIfEmpty(req.CPF), nullIfEmpty(req.Phone), nullIfEmpty(req.Email), nullIfEmpty(req.Guardian),
		req.PatientType, nullIfEmpty(req.InsurerName), nullIfEmpty(req.InsurerPlan),
		nullIfEmpty(a.PostalCode), nullIfEmpty(a.Street), nullIfEmpty(a.Number), nullIfEmpty(a.Complement),
		nullIfEmpty(a.District), nullIfEmpty(a.City), nullIfEmpty(a.State),
		time.Now().UTC(),
	)
	p, err := scanPatient(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert patient: %w", err)
	}
	return p, nil
}

// ListPatients returns one page of live patients, newest first. Search
// matches name or CPF.
func (r *Repository) ListPatients(ctx context.Context, ownerID string, params pagination.Params) ([]PatientResponse, int, error) {
	where := "owner_id = $1 AND deleted_at IS NULL"
	args := []interface{}{ownerID}
	if params.Search != "" {
		args = append(args, params.SearchPattern())
		where += fmt.Sprintf(" AND (name ILIKE $%d OR cpf ILIKE $%d)", len(args), len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM patients WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM patients WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		patientColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, params.Limit, params.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	patients := []PatientResponse{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating patients: %w", err)
	}
	return patients, total, nil
}

func (r *Repository) GetPatient(ctx context.Context, ownerID, id string) (*PatientResponse, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	p, err := scanPatient(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query patient: %w", err)
	}
	return p, nil
}

// CountPatients counts live patients for the dashboard.
func (r *Repository) CountPatients(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM patients WHERE owner_id = $1 AND deleted_at IS NULL`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return n, nil
}

func (r *Repository) UpdatePatient(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*PatientResponse, error) {
	var (
		updates []string
		args    []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		updates = append(updates, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.BirthDate != nil {
		set("birth_date", nullIfEmpty(*req.BirthDate))
	}
	if req.CPF != nil {
		set("cpf", nullIfEmpty(*req.CPF))
	}
	if req.Phone != nil {
		set("phone", nullIfEmpty(*req.Phone))
	}
	if req.Email != nil {
		set("email", nullIfEmpty(*req.Email))
	}
	if req.Guardian != nil {
		set("guardian", nullIfEmpty(*req.Guardian))
	}
	if req.PatientType != nil {
		set("patient_type", *req.PatientType)
	}
	if req.InsurerName != nil {
		set("insurer_name", nullIfEmpty(*req.InsurerName))
	}
	if req.InsurerPlan != nil {
		set("insurer_plan", nullIfEmpty(*req.InsurerPlan))
	}
	if a := req.Address; a != nil {
		set("postal_code", nullIfEmpty(a.PostalCode))
		set("street", nullIfEmpty(a.Street))
		set("street_number", nullIfEmpty(a.Number))
		set("complement", nullIfEmpty(a.Complement))
		set("district", nullIfEmpty(a.District))
		set("city", nullIfEmpty(a.City))
		set("state", nullIfEmpty(a.State))
	}
	if len(updates) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`
		UPDATE patients SET %s
		WHERE id = $%d AND owner_id = $%d AND deleted_at IS NULL
		RETURNING %s`, strings.Join(updates, ", "), len(args)-1, len(args), patientColumns)

	p, err := scanPatient(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return p, nil
}

// DeletePatient soft deletes; cmd/cleanup purges the row after the
// retention period.
func (r *Repository) DeletePatient(ctx context.Context, ownerID, id string) (time.Time, error) {
	deletedAt := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE patients SET deleted_at = $1 WHERE id = $2 AND owner_id = $3 AND deleted_at IS NULL`,
		deletedAt, id, ownerID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to delete patient: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return time.Time{}, ErrPatientNotFound
	}
	return deletedAt, nil
}
