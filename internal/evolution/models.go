package evolution

import "time"

type PatientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Evolution is a dated progress note about a patient.
type Evolution struct {
	ID          string      `json:"id"`
	PatientID   string      `json:"patient_id"`
	Patient     *PatientRef `json:"patient"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

type CreateEvolutionRequest struct {
	PatientID   string `json:"patient_id" validate:"required"`
	Date        string `json:"date" validate:"required,date"`
	Description string `json:"description" validate:"required,max=20000"`
}

type UpdateEvolutionRequest struct {
	PatientID   *string `json:"patient_id,omitempty" validate:"omitempty,min=1"`
	Date        *string `json:"date,omitempty" validate:"omitempty,date"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=1,max=20000"`
}

// ListFilter narrows a listing. From and To are inclusive YYYY-MM-DD bounds;
// Search matches the description or the patient name.
type ListFilter struct {
	PatientID string `json:"patient_id"`
	From      string `json:"from" validate:"omitempty,date"`
	To        string `json:"to" validate:"omitempty,date"`
	Search    string `json:"search" validate:"max=200"`
}

type EvolutionSuccessResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Evolution *Evolution `json:"evolution,omitempty"`
}

type EvolutionListResponse struct {
	Success    bool        `json:"success"`
	Evolutions []Evolution `json:"evolutions"`
	Total      int         `json:"total"`
}
