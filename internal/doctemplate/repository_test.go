package doctemplate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/agendapp/office-service/internal/testutil"
)

var templateCols = []string{"id", "name", "kind", "body", "file_reference", "content_type", "created_at", "updated_at"}

var created = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

func TestRepository_CreateTextTemplate(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`INSERT INTO templates`).
		WithArgs("tpl-1", "owner-1", "Atestado", KindText, "corpo", nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(templateCols).
			AddRow("tpl-1", "Atestado", KindText, "corpo", nil, nil, created, nil))

	tpl, err := repo.CreateTemplate(context.Background(), "owner-1", Template{ID: "tpl-1", Name: "Atestado", Kind: KindText, Body: "corpo"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tpl.FileReference != "" || tpl.UpdatedAt != nil || tpl.Body != "corpo" {
		t.Errorf("Unexpected template %+v", tpl)
	}
}

func TestRepository_ListTemplates_Search(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`FROM templates WHERE owner_id = \$1 AND name ILIKE \$2 ORDER BY name ASC`).
		WithArgs("owner-1", `%50\%%`).
		WillReturnRows(sqlmock.NewRows(templateCols).
			AddRow("tpl-1", "Desconto 50%", KindFile, nil, "owner-1/tpl-1.pdf", "application/pdf", created, created))

	templates, err := repo.ListTemplates(context.Background(), "owner-1", "50%")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(templates) != 1 || templates[0].UpdatedAt == nil || templates[0].FileReference != "owner-1/tpl-1.pdf" {
		t.Errorf("Unexpected templates %+v", templates)
	}
}

func TestRepository_UpdateTemplate(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db)

	name := "Novo nome"
	mock.ExpectQuery(`UPDATE templates SET name = \$1, updated_at = \$2 WHERE id = \$3 AND owner_id = \$4 RETURNING`).
		WithArgs(name, sqlmock.AnyArg(), "tpl-1", "owner-1").
		WillReturnRows(sqlmock.NewRows(templateCols))

	_, err := repo.UpdateTemplate(context.Background(), "owner-1", "tpl-1", UpdateTemplateRequest{Name: &name})
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Expected ErrTemplateNotFound, got %v", err)
	}
}

func TestRepository_UpdateTemplate_NoFields(t *testing.T) {
	db, _ := testutil.NewMockDB(t)

	if _, err := NewRepository(db).UpdateTemplate(context.Background(), "owner-1", "tpl-1", UpdateTemplateRequest{}); !errors.Is(err, ErrNoFieldsToUpdate) {
		t.Errorf("Expected ErrNoFieldsToUpdate, got %v", err)
	}
}

func TestRepository_DeleteTemplate(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`DELETE FROM templates WHERE id = \$1 AND owner_id = \$2 RETURNING`).
		WithArgs("tpl-1", "owner-1").
		WillReturnRows(sqlmock.NewRows(templateCols).
			AddRow("tpl-1", "Laudo", KindFile, nil, "owner-1/tpl-1.docx", "application/msword", created, nil))

	tpl, err := repo.DeleteTemplate(context.Background(), "owner-1", "tpl-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tpl.FileReference != "owner-1/tpl-1.docx" {
		t.Errorf("Unexpected template %+v", tpl)
	}
}
