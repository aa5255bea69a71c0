package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one generated document as it was handed to the user.
type HistoryEntry struct {
	ID          string            `json:"id"`
	TemplateID  *string           `json:"template_id"`
	PatientID   *string           `json:"patient_id"`
	PatientName string            `json:"patient_name,omitempty"`
	Kind        string            `json:"kind"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	FieldValues map[string]string `json:"field_values"`
	CreatedAt   time.Time         `json:"created_at"`
}

type HistoryRepository interface {
	SaveHistory(ctx context.Context, ownerID string, entry *HistoryEntry) error
	ListHistory(ctx context.Context, ownerID, patientID string) ([]HistoryEntry, error)
}

var _ HistoryRepository = (*HistoryStore)(nil)

type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// SaveHistory fills in ID and CreatedAt before inserting.
func (r *HistoryStore) SaveHistory(ctx context.Context, ownerID string, entry *HistoryEntry) error {
	values := entry.FieldValues
	if values == nil {
		values = map[string]string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode field values: %w", err)
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO document_history (id, owner_id, template_id, patient_id, kind, title, content, field_values, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.db.ExecContext(ctx, query,
		entry.ID, ownerID, nullable(entry.TemplateID), nullable(entry.PatientID),
		entry.Kind, entry.Title, entry.Content, raw, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save document history: %w", err)
	}
	return nil
}

// ListHistory returns the newest documents first. An empty patientID lists
// every document of the owner.
func (r *HistoryStore) ListHistory(ctx context.Context, ownerID, patientID string) ([]HistoryEntry, error) {
	query := `
		SELECT h.id, h.template_id, h.patient_id, p.name, h.kind, h.title, h.content, h.field_values, h.created_at
		FROM document_history h LEFT JOIN patients p ON p.id = h.patient_id
		WHERE h.owner_id = $1`
	args := []interface{}{ownerID}
	if patientID != "" {
		query += ` AND h.patient_id = $2`
		args = append(args, patientID)
	}
	query += ` ORDER BY h.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query document history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var (
			e           HistoryEntry
			templateID  sql.NullString
			patientID   sql.NullString
			patientName sql.NullString
			raw         []byte
		)
		if err := rows.Scan(&e.ID, &templateID, &patientID, &patientName, &e.Kind, &e.Title,
			&e.Content, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document history: %w", err)
		}
		if templateID.Valid {
			e.TemplateID = &templateID.String
		}
		if patientID.Valid {
			e.PatientID = &patientID.String
		}
		e.PatientName = patientName.String
		e.FieldValues = map[string]string{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.FieldValues); err != nil {
				return nil, fmt.Errorf("failed to decode field values: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document history: %w", err)
	}
	return entries, nil
}

func nullable(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
