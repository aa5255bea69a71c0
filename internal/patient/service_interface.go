package patient

import (
	"context"

	"github.com/agendapp/office-service/internal/pagination"
)

type ServiceInterface interface {
	CreatePatient(ctx context.Context, ownerID string, req CreatePatientRequest) (*PatientResponse, error)
	GetPatient(ctx context.Context, ownerID, id string) (*PatientResponse, error)
	ListPatients(ctx context.Context, ownerID string, params pagination.Params) (*PaginatedPatientListResponse, error)
	UpdatePatient(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*PatientResponse, error)
	DeletePatient(ctx context.Context, ownerID, id string) error
}

// MetricsRecorder is satisfied by *telemetry.Metrics.
type MetricsRecorder interface {
	RecordPatientOperation(ctx context.Context, operation string)
}

var _ ServiceInterface = (*Service)(nil)
