package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys on the events exchange.
const (
	EventPatientCreated = "patient.created"
	EventPatientDeleted = "patient.deleted"

	EventAppointmentSeriesCreated = "appointment.series_created"
	EventAppointmentStatusChanged = "appointment.status_changed"

	EventDocumentRendered = "document.rendered"
)

const ServiceName = "office-service"

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
	OwnerID     string    `json:"owner_id"`
}

func NewBaseEvent(eventType, ownerID string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		ServiceName: ServiceName,
		OwnerID:     ownerID,
	}
}

type PatientCreatedEvent struct {
	BaseEvent
	Data PatientCreatedData `json:"data"`
}

type PatientCreatedData struct {
	PatientID   string    `json:"patient_id"`
	Name        string    `json:"name"`
	PatientType string    `json:"patient_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type PatientDeletedEvent struct {
	BaseEvent
	Data PatientDeletedData `json:"data"`
}

type PatientDeletedData struct {
	PatientID string    `json:"patient_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// AppointmentSeriesCreatedEvent is published once per CreateAppointments
// call, for a single appointment as well as for a recurring series.
type AppointmentSeriesCreatedEvent struct {
	BaseEvent
	Data AppointmentSeriesCreatedData `json:"data"`
}

type AppointmentSeriesCreatedData struct {
	SeriesID       string    `json:"series_id"`
	PatientID      string    `json:"patient_id"`
	AppointmentIDs []string  `json:"appointment_ids"`
	Frequency      string    `json:"frequency,omitempty"`
	FirstStart     time.Time `json:"first_start"`
	LastStart      time.Time `json:"last_start"`
}

type AppointmentStatusChangedEvent struct {
	BaseEvent
	Data AppointmentStatusChangedData `json:"data"`
}

type AppointmentStatusChangedData struct {
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	ChangedAt     time.Time `json:"changed_at"`
}

type DocumentRenderedEvent struct {
	BaseEvent
	Data DocumentRenderedData `json:"data"`
}

type DocumentRenderedData struct {
	TemplateID string   `json:"template_id,omitempty"`
	Kind       string   `json:"kind"`
	PatientID  string   `json:"patient_id,omitempty"`
	Unresolved []string `json:"unresolved,omitempty"`
}
