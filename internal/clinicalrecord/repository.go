package clinicalrecord

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const recordColumns = `r.id, r.patient_id, p.id, p.name, r.visit_date, r.chief_complaint,
	r.diagnosis, r.treatment, r.notes, r.created_at, r.updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*ClinicalRecord, error) {
	var (
		rec         ClinicalRecord
		patientID   sql.NullString
		patientName sql.NullString
		visitDate   time.Time
		complaint   sql.NullString
		diagnosis   sql.NullString
		treatment   sql.NullString
		notes       sql.NullString
		updatedAt   sql.NullTime
	)
	if err := row.Scan(&rec.ID, &rec.PatientID, &patientID, &patientName, &visitDate, &complaint,
		&diagnosis, &treatment, &notes, &rec.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	if patientID.Valid {
		rec.Patient = &PatientRef{ID: patientID.String, Name: patientName.String}
	}
	rec.VisitDate = visitDate.Format("2006-01-02")
	rec.ChiefComplaint = complaint.String
	rec.Diagnosis = diagnosis.String
	rec.Treatment = treatment.String
	rec.Notes = notes.String
	if updatedAt.Valid {
		rec.UpdatedAt = &updatedAt.Time
	}
	return &rec, nil
}

// CreateRecord inserts only when the patient exists for ownerID.
func (r *Repository) CreateRecord(ctx context.Context, ownerID string, req CreateRecordRequest) (*ClinicalRecord, error) {
	query := `
		WITH r AS (
			INSERT INTO clinical_records (id, owner_id, patient_id, visit_date, chief_complaint,
				diagnosis, treatment, notes, created_at)
			SELECT $1, $2, p.id, $4, $5, $6, $7, $8, $9
			FROM patients p
			WHERE p.id = $3 AND p.owner_id = $2 AND p.deleted_at IS NULL
			RETURNING *
		)
		SELECT ` + recordColumns + `
		FROM r LEFT JOIN patients p ON p.id = r.patient_id`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), ownerID, req.PatientID, req.VisitDate, req.ChiefComplaint,
		req.Diagnosis, req.Treatment, req.Notes, time.Now().UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create clinical record: %w", err)
	}
	return rec, nil
}

func (r *Repository) GetRecord(ctx context.Context, ownerID, id string) (*ClinicalRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM clinical_records r LEFT JOIN patients p ON p.id = r.patient_id
		WHERE r.id = $1 AND r.owner_id = $2`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query clinical record: %w", err)
	}
	return rec, nil
}

// ListRecords returns the newest visits first. An empty patientID lists
// every record of the owner.
func (r *Repository) ListRecords(ctx context.Context, ownerID, patientID string) ([]ClinicalRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM clinical_records r LEFT JOIN patients p ON p.id = r.patient_id
		WHERE r.owner_id = $1`
	args := []interface{}{ownerID}
	if patientID != "" {
		query += ` AND r.patient_id = $2`
		args = append(args, patientID)
	}
	query += ` ORDER BY r.visit_date DESC, r.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clinical records: %w", err)
	}
	defer rows.Close()

	records := []ClinicalRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clinical record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clinical records: %w", err)
	}
	return records, nil
}

func (r *Repository) UpdateRecord(ctx context.Context, ownerID, id string, req UpdateRecordRequest) (*ClinicalRecord, error) {
	setClauses := []string{}
	args := []interface{}{}
	set := func(column string, v interface{}) {
		args = append(args, v)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.VisitDate != nil {
		set("visit_date", *req.VisitDate)
	}
	if req.ChiefComplaint != nil {
		set("chief_complaint", *req.ChiefComplaint)
	}
	if req.Diagnosis != nil {
		set("diagnosis", *req.Diagnosis)
	}
	if req.Treatment != nil {
		set("treatment", *req.Treatment)
	}
	if req.Notes != nil {
		set("notes", *req.Notes)
	}
	if len(setClauses) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`UPDATE clinical_records SET %s WHERE id = $%d AND owner_id = $%d`,
		strings.Join(setClauses, ", "), len(args)-1, len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update clinical record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrRecordNotFound
	}
	return r.GetRecord(ctx, ownerID, id)
}

func (r *Repository) DeleteRecord(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clinical_records WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete clinical record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}
