package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categories are the accepted expense categories.
var Categories = []string{
	"Material de Escritório",
	"Equipamentos",
	"Serviços",
	"Impostos",
	"Aluguel",
	"Água",
	"Luz",
	"Internet",
	"Telefone",
	"Outros",
}

// PaymentMethods are the accepted expense payment methods.
var PaymentMethods = []string{
	"Dinheiro",
	"Cartão de Débito",
	"Cartão de Crédito",
	"PIX",
	"Transferência",
	"Boleto",
}

const dateLayout = "2006-01-02"

// PatientRef is nil when the income has no patient or the patient is gone.
type PatientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Income struct {
	ID          string          `json:"id"`
	PatientID   *string         `json:"patient_id"`
	Patient     *PatientRef     `json:"patient"`
	Date        string          `json:"date"`
	PayerType   string          `json:"payer_type"`
	InsurerName *string         `json:"insurer_name"`
	InsurerPlan *string         `json:"insurer_plan"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
}

type CreateIncomeRequest struct {
	PatientID   *string         `json:"patient_id"`
	Date        string          `json:"date" validate:"required,date"`
	PayerType   string          `json:"payer_type"`
	InsurerName *string         `json:"insurer_name"`
	InsurerPlan *string         `json:"insurer_plan"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       string          `json:"notes" validate:"max=2000"`
}

// IncomeFilter narrows ListIncomes. Zero values match everything; To is
// exclusive.
type IncomeFilter struct {
	From        time.Time
	To          time.Time
	PayerType   string
	InsurerName string
	Search      string
}

type Expense struct {
	ID            string          `json:"id"`
	Description   string          `json:"description"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

type CreateExpenseRequest struct {
	Description   string          `json:"description" validate:"required,max=500"`
	Date          string          `json:"date" validate:"required,date"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	Notes         string          `json:"notes" validate:"max=2000"`
}

type UpdateExpenseRequest struct {
	Description   *string          `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	Date          *string          `json:"date,omitempty" validate:"omitempty,date"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Category      *string          `json:"category,omitempty"`
	PaymentMethod *string          `json:"payment_method,omitempty"`
	Notes         *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ExpenseFilter struct {
	From   time.Time
	To     time.Time
	Search string
}

// TodayAppointment is one row of the dashboard agenda.
type TodayAppointment struct {
	ID              string          `json:"id"`
	Time            string          `json:"time"`
	DurationMinutes int             `json:"duration_minutes"`
	Status          string          `json:"status"`
	Fee             decimal.Decimal `json:"fee"`
	PatientName     string          `json:"patient_name"`
}

type Summary struct {
	TotalPatients     int                `json:"total_patients"`
	TodayCount        int                `json:"today_count"`
	TodayAppointments []TodayAppointment `json:"today_appointments"`
	MonthRevenue      decimal.Decimal    `json:"month_revenue"`
	MonthExpenses     decimal.Decimal    `json:"month_expenses"`
	Balance           decimal.Decimal    `json:"balance"`
	Insurers          []string           `json:"insurers"`
}

type IncomeSuccessResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Income  *Income `json:"income,omitempty"`
}

type IncomeListResponse struct {
	Success bool            `json:"success"`
	Incomes []Income        `json:"incomes"`
	Total   decimal.Decimal `json:"total"`
}

type ExpenseSuccessResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Expense *Expense `json:"expense,omitempty"`
}

type ExpenseListResponse struct {
	Success  bool            `json:"success"`
	Expenses []Expense       `json:"expenses"`
	Total    decimal.Decimal `json:"total"`
}
