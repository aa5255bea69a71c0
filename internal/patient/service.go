package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/agendapp/office-service/internal/messaging"
	"github.com/agendapp/office-service/internal/pagination"
	"github.com/agendapp/office-service/internal/recurrence"
	"github.com/agendapp/office-service/internal/validation"
	"go.uber.org/zap"
)

type Service struct {
	repo      RepositoryInterface
	publisher messaging.PublisherInterface
	metrics   MetricsRecorder
	logger    *zap.Logger
}

// NewService wires the patient service. publisher and metrics may be nil.
func NewService(repo RepositoryInterface, publisher messaging.PublisherInterface, metrics MetricsRecorder, logger *zap.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, metrics: metrics, logger: logger}
}

// normalizeType resolves the payer aliases and drops insurer data for
// individual patients.
func normalizeType(raw string, insurerName, insurerPlan *string) (string, error) {
	if raw == "" {
		raw = string(recurrence.PayerIndividual)
	}
	pt, ok := recurrence.ParsePayerType(raw)
	if !ok {
		return "", fmt.Errorf("%w: patient_type must be individual or insurance", ErrInvalidInput)
	}
	if pt == recurrence.PayerIndividual {
		*insurerName, *insurerPlan = "", ""
	}
	return string(pt), nil
}

func (s *Service) CreatePatient(ctx context.Context, ownerID string, req CreatePatientRequest) (*PatientResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Address.State = strings.ToUpper(req.Address.State)
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	pt, err := normalizeType(req.PatientType, &req.InsurerName, &req.InsurerPlan)
	if err != nil {
		return nil, err
	}
	req.PatientType = pt

	p, err := s.repo.CreatePatient(ctx, ownerID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	s.record(ctx, "create")

	s.publish(ctx, messaging.EventPatientCreated, messaging.PatientCreatedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventPatientCreated, ownerID),
		Data: messaging.PatientCreatedData{
			PatientID:   p.ID,
			Name:        p.Name,
			PatientType: p.PatientType,
			CreatedAt:   p.CreatedAt,
		},
	})
	s.logger.Info("✓ Patient created", zap.String("patient_id", p.ID), zap.String("owner_id", ownerID))
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, ownerID, id string) (*PatientResponse, error) {
	p, err := s.repo.GetPatient(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, ownerID string, params pagination.Params) (*PaginatedPatientListResponse, error) {
	params.Validate()
	patients, total, err := s.repo.ListPatients(ctx, ownerID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return &PaginatedPatientListResponse{
		Success:    true,
		Patients:   patients,
		Pagination: params.Meta(total),
	}, nil
}

func (s *Service) UpdatePatient(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*PatientResponse, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if req.Address != nil {
		req.Address.State = strings.ToUpper(req.Address.State)
	}
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	if req.PatientType != nil {
		var name, plan string
		if req.InsurerName != nil {
			name = *req.InsurerName
		}
		if req.InsurerPlan != nil {
			plan = *req.InsurerPlan
		}
		pt, err := normalizeType(*req.PatientType, &name, &plan)
		if err != nil {
			return nil, err
		}
		req.PatientType = &pt
		if pt == string(recurrence.PayerIndividual) {
			req.InsurerName, req.InsurerPlan = &name, &plan
		}
	}

	p, err := s.repo.UpdatePatient(ctx, ownerID, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	s.record(ctx, "update")
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, ownerID, id string) error {
	deletedAt, err := s.repo.DeletePatient(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	s.record(ctx, "delete")

	s.publish(ctx, messaging.EventPatientDeleted, messaging.PatientDeletedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventPatientDeleted, ownerID),
		Data:      messaging.PatientDeletedData{PatientID: id, DeletedAt: deletedAt},
	})
	return nil
}

func (s *Service) record(ctx context.Context, op string) {
	if s.metrics != nil {
		s.metrics.RecordPatientOperation(ctx, op)
	}
}

// publish never fails the caller; a lost event is logged.
func (s *Service) publish(ctx context.Context, key string, event interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("routing_key", key), zap.Error(err))
	}
}
