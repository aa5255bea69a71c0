package appointment

import (
	"time"

	"github.com/agendapp/office-service/internal/recurrence"
	"github.com/shopspring/decimal"
)

const (
	StatusScheduled = recurrence.StatusScheduled
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

// StartLayout is how appointment starts are written in responses.
const StartLayout = "2006-01-02T15:04:05"

// PatientRef is the patient embedded in joined rows. It is nil when the
// patient row no longer exists.
type PatientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Appointment struct {
	ID              string          `json:"id"`
	SeriesID        string          `json:"series_id"`
	PatientID       string          `json:"patient_id"`
	Patient         *PatientRef     `json:"patient"`
	Start           string          `json:"start"`
	StartTime       time.Time       `json:"-"`
	DurationMinutes int             `json:"duration_minutes"`
	Fee             decimal.Decimal `json:"fee"`
	PayerType       string          `json:"payer_type"`
	InsurerName     *string         `json:"insurer_name"`
	InsurerPlan     *string         `json:"insurer_plan"`
	Notes           string          `json:"notes"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

// PatientName is the display name used by lists and the dashboard.
func (a Appointment) PatientName() string {
	if a.Patient == nil {
		return "Paciente não encontrado"
	}
	return a.Patient.Name
}

// RecurrenceRequest is the optional repeat block of a create request.
type RecurrenceRequest struct {
	Enabled   bool   `json:"enabled"`
	Frequency string `json:"frequency"`
	Count     int    `json:"count"`
}

// CreateAppointmentRequest accepts either Start ("2024-01-31T10:00") or the
// separate Date and Time fields the booking form sends.
type CreateAppointmentRequest struct {
	PatientID       string             `json:"patient_id" validate:"required"`
	Start           string             `json:"start"`
	Date            string             `json:"date"`
	Time            string             `json:"time"`
	DurationMinutes int                `json:"duration_minutes"`
	Fee             decimal.Decimal    `json:"fee"`
	PayerType       string             `json:"payer_type"`
	InsurerName     *string            `json:"insurer_name"`
	InsurerPlan     *string            `json:"insurer_plan"`
	Notes           string             `json:"notes" validate:"max=2000"`
	Recurrence      *RecurrenceRequest `json:"recurrence,omitempty"`
}

type CreateAppointmentsResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	SeriesID     string        `json:"series_id"`
	Appointments []Appointment `json:"appointments"`
}

type UpdateAppointmentRequest struct {
	Start           *string          `json:"start,omitempty"`
	DurationMinutes *int             `json:"duration_minutes,omitempty"`
	Fee             *decimal.Decimal `json:"fee,omitempty"`
	PayerType       *string          `json:"payer_type,omitempty"`
	InsurerName     *string          `json:"insurer_name,omitempty"`
	InsurerPlan     *string          `json:"insurer_plan,omitempty"`
	Notes           *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Status          *string          `json:"status,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ListFilter bounds a listing to [From, To) on the start time. Zero values
// leave that side open.
type ListFilter struct {
	From      time.Time
	To        time.Time
	PatientID string
	Status    string
}

type AppointmentListResponse struct {
	Success      bool          `json:"success"`
	Appointments []Appointment `json:"appointments"`
	Total        int           `json:"total"`
}
