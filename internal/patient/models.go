package patient

import (
	"time"

	"github.com/agendapp/office-service/internal/pagination"
)

type Address struct {
	PostalCode string `json:"postal_code" validate:"omitempty,max=9"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state" validate:"omitempty,uf"`
}

// CreatePatientRequest is the body of POST /patients. PatientType accepts
// "individual" / "insurance" and the legacy "particular" / "convenio".
type CreatePatientRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	BirthDate   string  `json:"birth_date" validate:"omitempty,date"`
	CPF         string  `json:"cpf" validate:"omitempty,cpf"`
	Phone       string  `json:"phone" validate:"max=30"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Guardian    string  `json:"guardian"`
	PatientType string  `json:"patient_type"`
	InsurerName string  `json:"insurer_name"`
	InsurerPlan string  `json:"insurer_plan"`
	Address     Address `json:"address"`
}

// UpdatePatientRequest only touches the fields that are set. Address is
// replaced as a whole.
type UpdatePatientRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	BirthDate   *string  `json:"birth_date,omitempty" validate:"omitempty,date"`
	CPF         *string  `json:"cpf,omitempty" validate:"omitempty,cpf"`
	Phone       *string  `json:"phone,omitempty"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Guardian    *string  `json:"guardian,omitempty"`
	PatientType *string  `json:"patient_type,omitempty"`
	InsurerName *string  `json:"insurer_name,omitempty"`
	InsurerPlan *string  `json:"insurer_plan,omitempty"`
	Address     *Address `json:"address,omitempty"`
}

type PatientResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	BirthDate   *string    `json:"birth_date,omitempty"`
	CPF         string     `json:"cpf"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	Guardian    string     `json:"guardian,omitempty"`
	PatientType string     `json:"patient_type"`
	InsurerName string     `json:"insurer_name,omitempty"`
	InsurerPlan string     `json:"insurer_plan,omitempty"`
	Address     Address    `json:"address"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type PaginatedPatientListResponse struct {
	Success    bool              `json:"success"`
	Patients   []PatientResponse `json:"patients"`
	Pagination pagination.Meta   `json:"pagination"`
}
