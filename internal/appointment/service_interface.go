package appointment

import "context"

type ServiceInterface interface {
	CreateAppointments(ctx context.Context, ownerID string, req CreateAppointmentRequest) (*CreateAppointmentsResponse, error)
	ListAppointments(ctx context.Context, ownerID string, f ListFilter) ([]Appointment, error)
	GetAppointment(ctx context.Context, ownerID, id string) (*Appointment, error)
	UpdateAppointment(ctx context.Context, ownerID, id string, req UpdateAppointmentRequest) (*Appointment, error)
	UpdateStatus(ctx context.Context, ownerID, id, status string) (*Appointment, error)
	DeleteAppointment(ctx context.Context, ownerID, id string) error
}

// MetricsRecorder is satisfied by *telemetry.Metrics.
type MetricsRecorder interface {
	RecordAppointmentsGenerated(ctx context.Context, frequency string, count int)
}

var _ ServiceInterface = (*Service)(nil)
