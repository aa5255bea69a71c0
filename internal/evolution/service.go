package evolution

import (
	"context"
	"fmt"
	"strings"

	"github.com/agendapp/office-service/internal/validation"
	"go.uber.org/zap"
)

type ServiceInterface interface {
	CreateEvolution(ctx context.Context, ownerID string, req CreateEvolutionRequest) (*Evolution, error)
	GetEvolution(ctx context.Context, ownerID, id string) (*Evolution, error)
	ListEvolutions(ctx context.Context, ownerID string, f ListFilter) ([]Evolution, error)
	UpdateEvolution(ctx context.Context, ownerID, id string, req UpdateEvolutionRequest) (*Evolution, error)
	DeleteEvolution(ctx context.Context, ownerID, id string) error
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	repo   RepositoryInterface
	logger *zap.Logger
}

func NewService(repo RepositoryInterface, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreateEvolution(ctx context.Context, ownerID string, req CreateEvolutionRequest) (*Evolution, error) {
	req.PatientID = strings.TrimSpace(req.PatientID)
	req.Description = strings.TrimSpace(req.Description)
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	e, err := s.repo.CreateEvolution(ctx, ownerID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create evolution: %w", err)
	}
	s.logger.Info("✓ Evolution created", zap.String("evolution_id", e.ID), zap.String("patient_id", e.PatientID))
	return e, nil
}

func (s *Service) GetEvolution(ctx context.Context, ownerID, id string) (*Evolution, error) {
	e, err := s.repo.GetEvolution(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get evolution: %w", err)
	}
	return e, nil
}

func (s *Service) ListEvolutions(ctx context.Context, ownerID string, f ListFilter) ([]Evolution, error) {
	f.PatientID = strings.TrimSpace(f.PatientID)
	f.Search = strings.TrimSpace(f.Search)
	if err := validation.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return nil, fmt.Errorf("%w: from must not be after to", ErrInvalidInput)
	}
	evolutions, err := s.repo.ListEvolutions(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list evolutions: %w", err)
	}
	return evolutions, nil
}

func (s *Service) UpdateEvolution(ctx context.Context, ownerID, id string, req UpdateEvolutionRequest) (*Evolution, error) {
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		req.Description = &trimmed
	}
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	e, err := s.repo.UpdateEvolution(ctx, ownerID, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update evolution: %w", err)
	}
	return e, nil
}

func (s *Service) DeleteEvolution(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteEvolution(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete evolution: %w", err)
	}
	s.logger.Info("✓ Evolution deleted", zap.String("evolution_id", id))
	return nil
}
