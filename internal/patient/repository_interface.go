package patient

import (
	"context"
	"time"

	"github.com/agendapp/office-service/internal/pagination"
)

type RepositoryInterface interface {
	CreatePatient(ctx context.Context, ownerID string, req CreatePatientRequest) (*PatientResponse, error)
	ListPatients(ctx context.Context, ownerID string, params pagination.Params) ([]PatientResponse, int, error)
	GetPatient(ctx context.Context, ownerID, id string) (*PatientResponse, error)
	CountPatients(ctx context.Context, ownerID string) (int, error)
	UpdatePatient(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*PatientResponse, error)
	DeletePatient(ctx context.Context, ownerID, id string) (time.Time, error)
}

var _ RepositoryInterface = (*Repository)(nil)
