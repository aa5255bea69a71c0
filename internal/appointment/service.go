package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agendapp/office-service/internal/messaging"
	"github.com/agendapp/office-service/internal/recurrence"
	"github.com/agendapp/office-service/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	repo      RepositoryInterface
	publisher messaging.PublisherInterface
	metrics   MetricsRecorder
	logger    *zap.Logger
}

// NewService wires the appointment service. publisher and metrics may be nil.
func NewService(repo RepositoryInterface, publisher messaging.PublisherInterface, metrics MetricsRecorder, logger *zap.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, metrics: metrics, logger: logger}
}

func (s *Service) CreateAppointments(ctx context.Context, ownerID string, req CreateAppointmentRequest) (*CreateAppointmentsResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}

	start := strings.TrimSpace(req.Start)
	if start == "" && req.Date != "" && req.Time != "" {
		start = req.Date + "T" + req.Time
	}
	payer := req.PayerType
	if payer == "" {
		payer = string(recurrence.PayerIndividual)
	}
	pt, ok := recurrence.ParsePayerType(payer)
	if !ok {
		return nil, fmt.Errorf("%w: payer_type must be individual or insurance", ErrInvalidInput)
	}

	draft := recurrence.AppointmentDraft{
		PatientID:       req.PatientID,
		Start:           start,
		DurationMinutes: req.DurationMinutes,
		Fee:             req.Fee,
		PayerType:       pt,
		InsurerName:     trimmed(req.InsurerName),
		InsurerPlan:     trimmed(req.InsurerPlan),
		Notes:           req.Notes,
	}
	var rule recurrence.RecurrenceRule
	if req.Recurrence != nil && req.Recurrence.Enabled {
		rule = recurrence.RecurrenceRule{
			Enabled:         true,
			Frequency:       recurrence.Frequency(req.Recurrence.Frequency),
			OccurrenceCount: req.Recurrence.Count,
		}
	}

	series, err := expand(draft, rule)
	if err != nil {
		return nil, err
	}

	seriesID := uuid.NewString()
	created, err := s.repo.InsertSeries(ctx, ownerID, seriesID, series)
	if err != nil {
		return nil, fmt.Errorf("failed to create appointments: %w", err)
	}

	frequency := "none"
	if rule.Enabled {
		frequency = string(rule.Frequency)
	}
	if s.metrics != nil {
		s.metrics.RecordAppointmentsGenerated(ctx, frequency, len(created))
	}

	ids := make([]string, len(created))
	for i, a := range created {
		ids[i] = a.ID
	}
	s.publish(ctx, messaging.EventAppointmentSeriesCreated, messaging.AppointmentSeriesCreatedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventAppointmentSeriesCreated, ownerID),
		Data: messaging.AppointmentSeriesCreatedData{
			SeriesID:       seriesID,
			PatientID:      req.PatientID,
			AppointmentIDs: ids,
			Frequency:      frequency,
			FirstStart:     created[0].StartTime,
			LastStart:      created[len(created)-1].StartTime,
		},
	})
	s.logger.Info("✓ Appointments created",
		zap.String("series_id", seriesID),
		zap.String("owner_id", ownerID),
		zap.Int("count", len(created)),
		zap.String("frequency", frequency))

	message := "Appointment created successfully"
	if len(created) > 1 {
		message = fmt.Sprintf("%d appointments created successfully", len(created))
	}
	return &CreateAppointmentsResponse{
		Success:      true,
		Message:      message,
		SeriesID:     seriesID,
		Appointments: created,
	}, nil
}

func (s *Service) ListAppointments(ctx context.Context, ownerID string, f ListFilter) ([]Appointment, error) {
	if f.Status != "" && !validStatuses[f.Status] {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	list, err := s.repo.ListAppointments(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return list, nil
}

func (s *Service) GetAppointment(ctx context.Context, ownerID, id string) (*Appointment, error) {
	a, err := s.repo.GetAppointment(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// UpdateAppointment merges req over the stored appointment and validates the
// result with the same rules used on creation.
func (s *Service) UpdateAppointment(ctx context.Context, ownerID, id string, req UpdateAppointmentRequest) (*Appointment, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	fieldsChanged := req.Start != nil || req.DurationMinutes != nil || req.Fee != nil ||
		req.PayerType != nil || req.InsurerName != nil || req.InsurerPlan != nil || req.Notes != nil
	if !fieldsChanged && req.Status == nil {
		return nil, ErrNoFieldsToUpdate
	}

	current, err := s.repo.GetAppointment(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if fieldsChanged {
		draft := recurrence.AppointmentDraft{
			PatientID:       current.PatientID,
			Start:           current.Start,
			DurationMinutes: current.DurationMinutes,
			Fee:             current.Fee,
			PayerType:       recurrence.PayerType(current.PayerType),
			InsurerName:     current.InsurerName,
			InsurerPlan:     current.InsurerPlan,
			Notes:           current.Notes,
		}
		if req.Start != nil {
			draft.Start = strings.TrimSpace(*req.Start)
		}
		if req.DurationMinutes != nil {
			draft.DurationMinutes = *req.DurationMinutes
		}
		if req.Fee != nil {
			draft.Fee = *req.Fee
		}
		if req.PayerType != nil {
			pt, ok := recurrence.ParsePayerType(*req.PayerType)
			if !ok {
				return nil, fmt.Errorf("%w: payer_type must be individual or insurance", ErrInvalidInput)
			}
			draft.PayerType = pt
		}
		if req.InsurerName != nil {
			draft.InsurerName = trimmed(req.InsurerName)
		}
		if req.InsurerPlan != nil {
			draft.InsurerPlan = trimmed(req.InsurerPlan)
		}
		if req.Notes != nil {
			draft.Notes = *req.Notes
		}

		merged, err := expand(draft, recurrence.RecurrenceRule{})
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdateAppointment(ctx, ownerID, id, merged[0]); err != nil {
			return nil, fmt.Errorf("failed to update appointment: %w", err)
		}
	}

	if req.Status != nil {
		if _, err := s.UpdateStatus(ctx, ownerID, id, *req.Status); err != nil {
			return nil, err
		}
	}

	return s.GetAppointment(ctx, ownerID, id)
}

// UpdateStatus moves an appointment to status. Setting the current status
// again is accepted and publishes nothing.
func (s *Service) UpdateStatus(ctx context.Context, ownerID, id, status string) (*Appointment, error) {
	status = strings.TrimSpace(status)
	if !validStatuses[status] {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	old, err := s.repo.UpdateStatus(ctx, ownerID, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	a, err := s.GetAppointment(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if old == status {
		return a, nil
	}

	s.publish(ctx, messaging.EventAppointmentStatusChanged, messaging.AppointmentStatusChangedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventAppointmentStatusChanged, ownerID),
		Data: messaging.AppointmentStatusChangedData{
			AppointmentID: id,
			PatientID:     a.PatientID,
			OldStatus:     old,
			NewStatus:     status,
			ChangedAt:     time.Now().UTC(),
		},
	})
	s.logger.Info("✓ Appointment status changed",
		zap.String("appointment_id", id),
		zap.String("old_status", old),
		zap.String("new_status", status))
	return a, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteAppointment(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	s.logger.Info("✓ Appointment deleted", zap.String("appointment_id", id), zap.String("owner_id", ownerID))
	return nil
}

// expand runs the recurrence expander and maps its validation failures onto
// ErrInvalidInput.
func expand(draft recurrence.AppointmentDraft, rule recurrence.RecurrenceRule) ([]recurrence.GeneratedAppointment, error) {
	if draft.PayerType == recurrence.PayerInsurance && draft.InsurerName == nil {
		return nil, fmt.Errorf("%w: insurer_name is required for insurance appointments", ErrInvalidInput)
	}
	series, err := recurrence.Expand(draft, rule)
	if errors.Is(err, recurrence.ErrInvalidInput) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, strings.TrimPrefix(err.Error(), recurrence.ErrInvalidInput.Error()+": "))
	}
	if err != nil {
		return nil, err
	}
	return series, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
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
