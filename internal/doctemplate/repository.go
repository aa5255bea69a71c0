package doctemplate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agendapp/office-service/internal/pagination"
)

const templateColumns = `id, name, kind, body, file_reference, content_type, created_at, updated_at`

type RepositoryInterface interface {
	CreateTemplate(ctx context.Context, ownerID string, t Template) (*Template, error)
	GetTemplate(ctx context.Context, ownerID, id string) (*Template, error)
	ListTemplates(ctx context.Context, ownerID, search string) ([]Template, error)
	UpdateTemplate(ctx context.Context, ownerID, id string, req UpdateTemplateRequest) (*Template, error)
	DeleteTemplate(ctx context.Context, ownerID, id string) (*Template, error)
}

var _ RepositoryInterface = (*Repository)(nil)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row rowScanner) (*Template, error) {
	var (
		t           Template
		body        sql.NullString
		fileRef     sql.NullString
		contentType sql.NullString
		updatedAt   sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Kind, &body, &fileRef, &contentType, &t.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Body = body.String
	t.FileReference = fileRef.String
	t.ContentType = contentType.String
	if updatedAt.Valid {
		t.UpdatedAt = &updatedAt.Time
	}
	return &t, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (r *Repository) CreateTemplate(ctx context.Context, ownerID string, t Template) (*Template, error) {
	saved, err := scanTemplate(r.db.QueryRowContext(ctx, `
		INSERT INTO templates (id, owner_id, name, kind, body, file_reference, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+templateColumns,
		t.ID, ownerID, t.Name, t.Kind, nullIfEmpty(t.Body), nullIfEmpty(t.FileReference),
		nullIfEmpty(t.ContentType), time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to insert template: %w", err)
	}
	return saved, nil
}

func (r *Repository) GetTemplate(ctx context.Context, ownerID, id string) (*Template, error) {
	t, err := scanTemplate(r.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query template: %w", err)
	}
	return t, nil
}

// ListTemplates returns templates by name. search matches the name.
func (r *Repository) ListTemplates(ctx context.Context, ownerID, search string) ([]Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if search != "" {
		query += ` AND name ILIKE $2`
		args = append(args, pagination.Params{Search: search}.SearchPattern())
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	templates := []Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}
	return templates, nil
}

func (r *Repository) UpdateTemplate(ctx context.Context, ownerID, id string, req UpdateTemplateRequest) (*Template, error) {
	updates := []string{}
	args := []interface{}{}
	set := func(column string, v interface{}) {
		args = append(args, v)
		updates = append(updates, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Body != nil {
		set("body", *req.Body)
	}
	if len(updates) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`UPDATE templates SET %s WHERE id = $%d AND owner_id = $%d RETURNING %s`,
		strings.Join(updates, ", "), len(args)-1, len(args), templateColumns)

	t, err := scanTemplate(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return t, nil
}

// DeleteTemplate removes the row and returns it so a stored file can be
// cleaned up.
func (r *Repository) DeleteTemplate(ctx context.Context, ownerID, id string) (*Template, error) {
	t, err := scanTemplate(r.db.QueryRowContext(ctx,
		`DELETE FROM templates WHERE id = $1 AND owner_id = $2 RETURNING `+templateColumns, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete template: %w", err)
	}
	return t, nil
}
