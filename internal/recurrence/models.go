package recurrence

import (
	"time"

	"github.com/shopspring/decimal"
)

// StartLayout is the wall-clock format of AppointmentDraft.Start.
const StartLayout = "2006-01-02T15:04"

// MaxOccurrences bounds a single recurring series.
const MaxOccurrences = 52

type PayerType string

const (
	PayerIndividual PayerType = "individual"
	PayerInsurance  PayerType = "insurance"
)

// ParsePayerType accepts the canonical values and the Portuguese aliases
// used by older clients ("particular", "convenio").
func ParsePayerType(s string) (PayerType, bool) {
	switch s {
	case "individual", "particular":
		return PayerIndividual, true
	case "insurance", "convenio":
		return PayerInsurance, true
	}
	return "", false
}

type Frequency string

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

const StatusScheduled = "scheduled"

// AppointmentDraft is an unsaved appointment request as submitted by the user.
// Start is a local wall-clock value with no timezone, e.g. "2024-01-31T10:00".
type AppointmentDraft struct {
	PatientID       string
	Start           string
	DurationMinutes int
	Fee             decimal.Decimal
	PayerType       PayerType
	InsurerName     *string
	InsurerPlan     *string
	Notes           string
}

type RecurrenceRule struct {
	Enabled         bool
	Frequency       Frequency
	OccurrenceCount int
}

// GeneratedAppointment is one concrete occurrence ready to be persisted.
// Start carries the wall clock in UTC; no zone conversion is ever applied.
type GeneratedAppointment struct {
	PatientID       string
	Start           time.Time
	DurationMinutes int
	Fee             decimal.Decimal
	PayerType       PayerType
	InsurerName     *string
	InsurerPlan     *string
	Notes           string
	Status          string
}
