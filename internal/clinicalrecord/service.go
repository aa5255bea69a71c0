package clinicalrecord

import (
	"context"
	"fmt"

	"github.com/agendapp/office-service/internal/validation"
	"go.uber.org/zap"
)

type ServiceInterface interface {
	CreateRecord(ctx context.Context, ownerID string, req CreateRecordRequest) (*ClinicalRecord, error)
	GetRecord(ctx context.Context, ownerID, id string) (*ClinicalRecord, error)
	ListRecords(ctx context.Context, ownerID, patientID string) ([]ClinicalRecord, error)
	UpdateRecord(ctx context.Context, ownerID, id string, req UpdateRecordRequest) (*ClinicalRecord, error)
	DeleteRecord(ctx context.Context, ownerID, id string) error
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	repo   RepositoryInterface
	logger *zap.Logger
}

func NewService(repo RepositoryInterface, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreateRecord(ctx context.Context, ownerID string, req CreateRecordRequest) (*ClinicalRecord, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	rec, err := s.repo.CreateRecord(ctx, ownerID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create clinical record: %w", err)
	}
	s.logger.Info("✓ Clinical record created", zap.String("record_id", rec.ID), zap.String("patient_id", rec.PatientID))
	return rec, nil
}

func (s *Service) GetRecord(ctx context.Context, ownerID, id string) (*ClinicalRecord, error) {
	rec, err := s.repo.GetRecord(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get clinical record: %w", err)
	}
	return rec, nil
}

func (s *Service) ListRecords(ctx context.Context, ownerID, patientID string) ([]ClinicalRecord, error) {
	records, err := s.repo.ListRecords(ctx, ownerID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinical records: %w", err)
	}
	return records, nil
}

func (s *Service) UpdateRecord(ctx context.Context, ownerID, id string, req UpdateRecordRequest) (*ClinicalRecord, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	rec, err := s.repo.UpdateRecord(ctx, ownerID, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update clinical record: %w", err)
	}
	return rec, nil
}

func (s *Service) DeleteRecord(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteRecord(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete clinical record: %w", err)
	}
	s.logger.Info("✓ Clinical record deleted", zap.String("record_id", id))
	return nil
}
