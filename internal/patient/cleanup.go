package patient

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CleanupService permanently removes patients whose soft delete is older
// than the retention period.
type CleanupService struct {
	db        *sql.DB
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewCleanupService(db *sql.DB, retentionYears int, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		db:        db,
		retention: time.Duration(retentionYears) * 365 * 24 * time.Hour,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *CleanupService) cutoff() time.Time {
	return s.now().UTC().Add(-s.retention)
}

// ExpiredCount returns how many patients are eligible for purge.
func (s *CleanupService) ExpiredCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM patients WHERE deleted_at IS NOT NULL AND deleted_at < $1`,
		s.cutoff()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count expired patients: %w", err)
	}
	return count, nil
}

// CleanupExpiredPatients purges every expired patient, one transaction each.
// A failed patient is logged and skipped; the count of purged patients is
// returned.
func (s *CleanupService) CleanupExpiredPatients(ctx context.Context) (int, error) {
	cutoff := s.cutoff()
	s.logger.Info("starting patient cleanup", zap.Time("deleted_before", cutoff))

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM patients WHERE deleted_at IS NOT NULL AND deleted_at < $1 ORDER BY deleted_at ASC`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to query expired patients: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan patient: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating patients: %w", err)
	}

	purged := 0
	for _, id := range ids {
		if err := s.purge(ctx, id); err != nil {
			s.logger.Error("failed to purge patient", zap.String("patient_id", id), zap.Error(err))
			continue
		}
		purged++
	}
	s.logger.Info("✓ Patient cleanup finished", zap.Int("purged", purged), zap.Int("eligible", len(ids)))
	return purged, nil
}

// purge deletes everything recorded about the patient and then the patient
// row. Incomes keep their amounts for the books and lose the patient link.
func (s *CleanupService) purge(ctx context.Context, patientID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		name  string
		query string
	}{
		{"appointments", `DELETE FROM appointments WHERE patient_id = $1`},
		{"clinical records", `DELETE FROM clinical_records WHERE patient_id = $1`},
		{"evolutions", `DELETE FROM evolutions WHERE patient_id = $1`},
		{"document history", `DELETE FROM document_history WHERE patient_id = $1`},
		{"incomes", `UPDATE incomes SET patient_id = NULL WHERE patient_id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, patientID); err != nil {
			return fmt.Errorf("failed to purge %s: %w", step.name, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM patients WHERE id = $1 AND deleted_at IS NOT NULL`, patientID)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return ErrPatientNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
