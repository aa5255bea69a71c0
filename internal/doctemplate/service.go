package doctemplate

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/agendapp/office-service/internal/filestore"
	"github.com/agendapp/office-service/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ServiceInterface interface {
	CreateTextTemplate(ctx context.Context, ownerID string, req CreateTemplateRequest) (*Template, error)
	UploadFileTemplate(ctx context.Context, ownerID string, up Upload, r io.Reader) (*Template, error)
	GetTemplate(ctx context.Context, ownerID, id string) (*Template, error)
	ListTemplates(ctx context.Context, ownerID, search string) ([]Template, error)
	UpdateTemplate(ctx context.Context, ownerID, id string, req UpdateTemplateRequest) (*Template, error)
	DeleteTemplate(ctx context.Context, ownerID, id string) error
	DownloadURL(ctx context.Context, ownerID, id string) (string, error)
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	repo      RepositoryInterface
	store     filestore.Store
	urlExpiry time.Duration
	logger    *zap.Logger
}

// NewService wires the template service. store may be nil, in which case
// file templates are rejected.
func NewService(repo RepositoryInterface, store filestore.Store, urlExpiry time.Duration, logger *zap.Logger) *Service {
	if urlExpiry <= 0 {
		urlExpiry = 15 * time.Minute
	}
	return &Service{repo: repo, store: store, urlExpiry: urlExpiry, logger: logger}
}

func (s *Service) CreateTextTemplate(ctx context.Context, ownerID string, req CreateTemplateRequest) (*Template, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}

	t, err := s.repo.CreateTemplate(ctx, ownerID, Template{
		ID:   uuid.NewString(),
		Name: req.Name,
		Kind: KindText,
		Body: req.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	s.logger.Info("✓ Template created", zap.String("template_id", t.ID), zap.String("kind", t.Kind))
	return t, nil
}

// UploadFileTemplate stores the file under <owner>/<template id><ext> and
// then records the template. The object is removed again if the row
// cannot be written.
func (s *Service) UploadFileTemplate(ctx context.Context, ownerID string, up Upload, r io.Reader) (*Template, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	name := strings.TrimSpace(up.Name)
	if name == "" {
		name = strings.TrimSuffix(up.Filename, filepath.Ext(up.Filename))
	}
	if name == "" || len(name) > 200 {
		return nil, fmt.Errorf("%w: name is required and must be at most 200 characters", ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(up.Filename))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: only .doc, .docx and .pdf files are accepted", ErrInvalidInput)
	}
	if up.Size <= 0 || up.Size > MaxFileSize {
		return nil, fmt.Errorf("%w: file must be between 1 byte and %d MB", ErrInvalidInput, MaxFileSize>>20)
	}

	id := uuid.NewString()
	key := ownerID + "/" + id + ext
	if err := s.store.Put(ctx, key, r, up.Size, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload template file: %w", err)
	}

	t, err := s.repo.CreateTemplate(ctx, ownerID, Template{
		ID:            id,
		Name:          name,
		Kind:          KindFile,
		FileReference: key,
		ContentType:   contentType,
	})
	if err != nil {
		if rmErr := s.store.Remove(ctx, key); rmErr != nil {
			s.logger.Warn("failed to remove orphaned template file", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	s.logger.Info("✓ Template file uploaded", zap.String("template_id", t.ID), zap.Int64("size", up.Size))
	return t, nil
}

func (s *Service) GetTemplate(ctx context.Context, ownerID, id string) (*Template, error) {
	t, err := s.repo.GetTemplate(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

func (s *Service) ListTemplates(ctx context.Context, ownerID, search string) ([]Template, error) {
	templates, err := s.repo.ListTemplates(ctx, ownerID, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// UpdateTemplate renames any template. Only text templates accept a body.
func (s *Service) UpdateTemplate(ctx context.Context, ownerID, id string, req UpdateTemplateRequest) (*Template, error) {
	if req.Name != nil {
		n := strings.TrimSpace(*req.Name)
		req.Name = &n
	}
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	if req.Body != nil {
		current, err := s.repo.GetTemplate(ctx, ownerID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get template: %w", err)
		}
		if current.Kind != KindText {
			return nil, fmt.Errorf("%w: file templates have no editable body", ErrInvalidInput)
		}
	}

	t, err := s.repo.UpdateTemplate(ctx, ownerID, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return t, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, ownerID, id string) error {
	t, err := s.repo.DeleteTemplate(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if t.Kind == KindFile && t.FileReference != "" && s.store != nil {
		if err := s.store.Remove(ctx, t.FileReference); err != nil {
			s.logger.Warn("failed to remove template file", zap.String("key", t.FileReference), zap.Error(err))
		}
	}
	s.logger.Info("✓ Template deleted", zap.String("template_id", id))
	return nil
}

// DownloadURL returns a time-limited link to a file template.
func (s *Service) DownloadURL(ctx context.Context, ownerID, id string) (string, error) {
	t, err := s.GetTemplate(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	if t.Kind != KindFile || t.FileReference == "" {
		return "", ErrNotFileTemplate
	}
	if s.store == nil {
		return "", ErrStorageDisabled
	}
	u, err := s.store.PresignedURL(ctx, t.FileReference, s.urlExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign download url: %w", err)
	}
	return u, nil
}
