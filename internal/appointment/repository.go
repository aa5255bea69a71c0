package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agendapp/office-service/internal/recurrence"
	"github.com/google/uuid"
)

const selectAppointment = `
	SELECT a.id, a.series_id, a.patient_id, p.id, p.name, a.starts_at, a.duration_minutes,
		a.fee, a.payer_type, a.insurer_name, a.insurer_plan, a.notes, a.status,
		a.created_at, a.updated_at
	FROM appointments a
	LEFT JOIN patients p ON p.id = a.patient_id`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var (
		a           Appointment
		patientID   sql.NullString
		patientName sql.NullString
		insurerName sql.NullString
		insurerPlan sql.NullString
		notes       sql.NullString
		updatedAt   sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.SeriesID, &a.PatientID, &patientID, &patientName, &a.StartTime, &a.DurationMinutes,
		&a.Fee, &a.PayerType, &insurerName, &insurerPlan, &notes, &a.Status,
		&a.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if patientID.Valid {
		a.Patient = &PatientRef{ID: patientID.String, Name: patientName.String}
	}
	a.StartTime = wallClock(a.StartTime)
	a.Start = a.StartTime.Format(StartLayout)
	if insurerName.Valid {
		a.InsurerName = &insurerName.String
	}
	if insurerPlan.Valid {
		a.InsurerPlan = &insurerPlan.String
	}
	a.Notes = notes.String
	if updatedAt.Valid {
		a.UpdatedAt = &updatedAt.Time
	}
	return &a, nil
}

// wallClock re-labels t as UTC without shifting the clock reading.
func wallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), time.UTC)
}

// InsertSeries stores every generated occurrence under seriesID in one
// transaction. The patient must exist and belong to ownerID.
func (r *Repository) InsertSeries(ctx context.Context, ownerID, seriesID string, series []recurrence.GeneratedAppointment) ([]Appointment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	patientIDs := map[string]bool{}
	for _, g := range series {
		patientIDs[g.PatientID] = true
	}
	patientNames := map[string]string{}
	for id := range patientIDs {
		var name string
		err := tx.QueryRowContext(ctx,
			`SELECT name FROM patients WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL FOR SHARE`,
			id, ownerID).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up patient: %w", err)
		}
		patientNames[id] = name
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO appointments (id, owner_id, patient_id, series_id, starts_at, duration_minutes,
			fee, payer_type, insurer_name, insurer_plan, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC()
	out := make([]Appointment, 0, len(series))
	for _, g := range series {
		a := Appointment{
			ID:              uuid.NewString(),
			SeriesID:        seriesID,
			PatientID:       g.PatientID,
			Patient:         &PatientRef{ID: g.PatientID, Name: patientNames[g.PatientID]},
			StartTime:       g.Start,
			Start:           g.Start.Format(StartLayout),
			DurationMinutes: g.DurationMinutes,
			Fee:             g.Fee,
			PayerType:       string(g.PayerType),
			InsurerName:     g.InsurerName,
			InsurerPlan:     g.InsurerPlan,
			Notes:           g.Notes,
			Status:          g.Status,
			CreatedAt:       createdAt,
		}
		_, err := stmt.ExecContext(ctx,
			a.ID, ownerID, a.PatientID, seriesID, a.StartTime, a.DurationMinutes,
			a.Fee, a.PayerType, a.InsurerName, a.InsurerPlan, a.Notes, a.Status, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert appointment: %w", err)
		}
		out = append(out, a)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit series: %w", err)
	}
	return out, nil
}

func (r *Repository) ListAppointments(ctx context.Context, ownerID string, f ListFilter) ([]Appointment, error) {
	conds := []string{"a.owner_id = $1"}
	args := []interface{}{ownerID}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.From.IsZero() {
		add("a.starts_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("a.starts_at < $%d", f.To)
	}
	if f.PatientID != "" {
		add("a.patient_id = $%d", f.PatientID)
	}
	if f.Status != "" {
		add("a.status = $%d", f.Status)
	}

	query := selectAppointment + " WHERE " + strings.Join(conds, " AND ") + " ORDER BY a.starts_at ASC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	list := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}
	return list, nil
}

func (r *Repository) GetAppointment(ctx context.Context, ownerID, id string) (*Appointment, error) {
	a, err := scanAppointment(r.db.QueryRowContext(ctx, selectAppointment+" WHERE a.id = $1 AND a.owner_id = $2", id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query appointment: %w", err)
	}
	return a, nil
}

// UpdateAppointment overwrites the schedulable fields with g. Status and
// series are left alone.
func (r *Repository) UpdateAppointment(ctx context.Context, ownerID, id string, g recurrence.GeneratedAppointment) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET starts_at = $1, duration_minutes = $2, fee = $3, payer_type = $4,
			insurer_name = $5, insurer_plan = $6, notes = $7, updated_at = $8
		WHERE id = $9 AND owner_id = $10`,
		g.Start, g.DurationMinutes, g.Fee, string(g.PayerType),
		g.InsurerName, g.InsurerPlan, g.Notes, time.Now().UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return requireOneRow(result)
}

// UpdateStatus sets the status and returns the previous one.
func (r *Repository) UpdateStatus(ctx context.Context, ownerID, id, status string) (string, error) {
	var old string
	err := r.db.QueryRowContext(ctx, `
		UPDATE appointments a
		SET status = $1, updated_at = $2
		FROM (SELECT id, status FROM appointments WHERE id = $3 AND owner_id = $4 FOR UPDATE) prev
		WHERE a.id = prev.id
		RETURNING prev.status`,
		status, time.Now().UTC(), id, ownerID).Scan(&old)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrAppointmentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to update status: %w", err)
	}
	return old, nil
}

func (r *Repository) DeleteAppointment(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
