package clinicalrecord

import "time"

// PatientRef is nil when the record's patient row is gone.
type PatientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ClinicalRecord struct {
	ID             string      `json:"id"`
	PatientID      string      `json:"patient_id"`
	Patient        *PatientRef `json:"patient"`
	VisitDate      string      `json:"visit_date"`
	ChiefComplaint string      `json:"chief_complaint"`
	Diagnosis      string      `json:"diagnosis"`
	Treatment      string      `json:"treatment"`
	Notes          string      `json:"notes"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      *time.Time  `json:"updated_at,omitempty"`
}

type CreateRecordRequest struct {
	PatientID      string `json:"patient_id" validate:"required"`
	VisitDate      string `json:"visit_date" validate:"required,date"`
	ChiefComplaint string `json:"chief_complaint" validate:"max=5000"`
	Diagnosis      string `json:"diagnosis" validate:"max=5000"`
	Treatment      string `json:"treatment" validate:"max=5000"`
	Notes          string `json:"notes" validate:"max=5000"`
}

type UpdateRecordRequest struct {
	VisitDate      *string `json:"visit_date,omitempty" validate:"omitempty,date"`
	ChiefComplaint *string `json:"chief_complaint,omitempty" validate:"omitempty,max=5000"`
	Diagnosis      *string `json:"diagnosis,omitempty" validate:"omitempty,max=5000"`
	Treatment      *string `json:"treatment,omitempty" validate:"omitempty,max=5000"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type RecordSuccessResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Record  *ClinicalRecord `json:"record,omitempty"`
}

type RecordListResponse struct {
	Success bool             `json:"success"`
	Records []ClinicalRecord `json:"records"`
	Total   int              `json:"total"`
}
