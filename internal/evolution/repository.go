package evolution

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

const evolutionColumns = `e.id, e.patient_id, p.id, p.name, e.note_date, e.description, e.created_at, e.updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvolution(row rowScanner) (*Evolution, error) {
	var (
		e           Evolution
		patientID   sql.NullString
		patientName sql.NullString
		date        time.Time
		updatedAt   sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.PatientID, &patientID, &patientName, &date, &e.Description,
		&e.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	if patientID.Valid {
		e.Patient = &PatientRef{ID: patientID.String, Name: patientName.String}
	}
	e.Date = date.Format("2006-01-02")
	if updatedAt.Valid {
		e.UpdatedAt = &updatedAt.Time
	}
	return &e, nil
}

// CreateEvolution inserts only when the patient exists for ownerID.
func (r *Repository) CreateEvolution(ctx context.Context, ownerID string, req CreateEvolutionRequest) (*Evolution, error) {
	query := `
		WITH e AS (
			INSERT INTO evolutions (id, owner_id, patient_id, note_date, description, created_at)
			SELECT $1, $2, p.id, $4, $5, $6
			FROM patients p
			WHERE p.id = $3 AND p.owner_id = $2 AND p.deleted_at IS NULL
			RETURNING *
		)
		SELECT ` + evolutionColumns + `
		FROM e LEFT JOIN patients p ON p.id = e.patient_id`

	e, err := scanEvolution(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), ownerID, req.PatientID, req.Date, req.Description, time.Now().UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create evolution: %w", err)
	}
	return e, nil
}

func (r *Repository) GetEvolution(ctx context.Context, ownerID, id string) (*Evolution, error) {
	e, err := scanEvolution(r.db.QueryRowContext(ctx, `SELECT `+evolutionColumns+`
		FROM evolutions e LEFT JOIN patients p ON p.id = e.patient_id
		WHERE e.id = $1 AND e.owner_id = $2`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEvolutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query evolution: %w", err)
	}
	return e, nil
}

// ListEvolutions returns the newest notes first.
func (r *Repository) ListEvolutions(ctx context.Context, ownerID string, f ListFilter) ([]Evolution, error) {
	conds := []string{"e.owner_id = $1"}
	args := []interface{}{ownerID}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}
	if f.PatientID != "" {
		add("e.patient_id = ?", f.PatientID)
	}
	if f.From != "" {
		add("e.note_date >= ?", f.From)
	}
	if f.To != "" {
		add("e.note_date <= ?", f.To)
	}
	if f.Search != "" {
		add("(p.name ILIKE ? OR e.description ILIKE ?)", pagination.Params{Search: f.Search}.SearchPattern())
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+evolutionColumns+`
		FROM evolutions e LEFT JOIN patients p ON p.id = e.patient_id
		WHERE `+strings.Join(conds, " AND ")+`
		ORDER BY e.note_date DESC, e.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query evolutions: %w", err)
	}
	defer rows.Close()

	evolutions := []Evolution{}
	for rows.Next() {
		e, err := scanEvolution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evolution: %w", err)
		}
		evolutions = append(evolutions, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evolutions: %w", err)
	}
	return evolutions, nil
}

// UpdateEvolution moves a note to another patient only when that patient
// belongs to ownerID.
func (r *Repository) UpdateEvolution(ctx context.Context, ownerID, id string, req UpdateEvolutionRequest) (*Evolution, error) {
	setClauses := []string{}
	args := []interface{}{}
	set := func(column string, v interface{}) {
		args = append(args, v)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.PatientID != nil {
		var exists bool
		err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM patients
			WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL)`, *req.PatientID, ownerID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check patient: %w", err)
		}
		if !exists {
			return nil, ErrPatientNotFound
		}
		set("patient_id", *req.PatientID)
	}
	if req.Date != nil {
		set("note_date", *req.Date)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if len(setClauses) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`UPDATE evolutions SET %s WHERE id = $%d AND owner_id = $%d`,
		strings.Join(setClauses, ", "), len(args)-1, len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update evolution: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrEvolutionNotFound
	}
	return r.GetEvolution(ctx, ownerID, id)
}

func (r *Repository) DeleteEvolution(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM evolutions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete evolution: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrEvolutionNotFound
	}
	return nil
}
