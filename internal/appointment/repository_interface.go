package appointment

import (
	"context"

	"github.com/agendapp/office-service/internal/recurrence"
)

type RepositoryInterface interface {
	InsertSeries(ctx context.Context, ownerID, seriesID string, series []recurrence.GeneratedAppointment) ([]Appointment, error)
	ListAppointments(ctx context.Context, ownerID string, f ListFilter) ([]Appointment, error)
	GetAppointment(ctx context.Context, ownerID, id string) (*Appointment, error)
	UpdateAppointment(ctx context.Context, ownerID, id string, g recurrence.GeneratedAppointment) error
	UpdateStatus(ctx context.Context, ownerID, id, status string) (string, error)
	DeleteAppointment(ctx context.Context, ownerID, id string) error
}

var _ RepositoryInterface = (*Repository)(nil)
