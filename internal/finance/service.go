package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/agendapp/office-service/internal/recurrence"
	"github.com/agendapp/office-service/internal/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ServiceInterface interface {
	CreateIncome(ctx context.Context, ownerID string, req CreateIncomeRequest) (*Income, error)
	GetIncome(ctx context.Context, ownerID, id string) (*Income, error)
	ListIncomes(ctx context.Context, ownerID string, f IncomeFilter) ([]Income, error)
	DeleteIncome(ctx context.Context, ownerID, id string) error

	CreateExpense(ctx context.Context, ownerID string, req CreateExpenseRequest) (*Expense, error)
	ListExpenses(ctx context.Context, ownerID string, f ExpenseFilter) ([]Expense, error)
	UpdateExpense(ctx context.Context, ownerID, id string, req UpdateExpenseRequest) (*Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id string) error
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	repo   RepositoryInterface
	logger *zap.Logger
}

func NewService(repo RepositoryInterface, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreateIncome(ctx context.Context, ownerID string, req CreateIncomeRequest) (*Income, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}

	payer := req.PayerType
	if payer == "" {
		payer = string(recurrence.PayerIndividual)
	}
	pt, ok := recurrence.ParsePayerType(payer)
	if !ok {
		return nil, fmt.Errorf("%w: payer_type must be individual or insurance", ErrInvalidInput)
	}
	req.PayerType = string(pt)
	req.PatientID = trimmed(req.PatientID)
	req.InsurerName = trimmed(req.InsurerName)
	req.InsurerPlan = trimmed(req.InsurerPlan)

	if pt == recurrence.PayerInsurance {
		if req.InsurerName == nil || req.InsurerPlan == nil {
			return nil, fmt.Errorf("%w: insurer_name and insurer_plan are required for insurance", ErrInvalidInput)
		}
	} else {
		req.InsurerName, req.InsurerPlan = nil, nil
	}

	in, err := s.repo.CreateIncome(ctx, ownerID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create income: %w", err)
	}
	s.logger.Info("✓ Income recorded", zap.String("income_id", in.ID), zap.String("amount", in.Amount.StringFixed(2)))
	return in, nil
}

func (s *Service) GetIncome(ctx context.Context, ownerID, id string) (*Income, error) {
	in, err := s.repo.GetIncome(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get income: %w", err)
	}
	return in, nil
}

func (s *Service) ListIncomes(ctx context.Context, ownerID string, f IncomeFilter) ([]Income, error) {
	if f.PayerType != "" {
		pt, ok := recurrence.ParsePayerType(f.PayerType)
		if !ok {
			return nil, fmt.Errorf("%w: payer_type must be individual or insurance", ErrInvalidInput)
		}
		f.PayerType = string(pt)
	}
	f.Search = strings.TrimSpace(f.Search)

	incomes, err := s.repo.ListIncomes(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list incomes: %w", err)
	}
	return incomes, nil
}

func (s *Service) DeleteIncome(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteIncome(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete income: %w", err)
	}
	return nil
}

func (s *Service) CreateExpense(ctx context.Context, ownerID string, req CreateExpenseRequest) (*Expense, error) {
	req.Description = strings.TrimSpace(req.Description)
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	if err := checkExpense(&req.Amount, &req.Category, &req.PaymentMethod); err != nil {
		return nil, err
	}

	e, err := s.repo.CreateExpense(ctx, ownerID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	s.logger.Info("✓ Expense recorded", zap.String("expense_id", e.ID), zap.String("category", e.Category))
	return e, nil
}

func (s *Service) ListExpenses(ctx context.Context, ownerID string, f ExpenseFilter) ([]Expense, error) {
	f.Search = strings.TrimSpace(f.Search)
	expenses, err := s.repo.ListExpenses(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

func (s *Service) UpdateExpense(ctx context.Context, ownerID, id string, req UpdateExpenseRequest) (*Expense, error) {
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		req.Description = &d
	}
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}
	if err := checkExpense(req.Amount, req.Category, req.PaymentMethod); err != nil {
		return nil, err
	}

	e, err := s.repo.UpdateExpense(ctx, ownerID, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return e, nil
}

func (s *Service) DeleteExpense(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteExpense(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// checkExpense validates the fields that validator tags cannot express.
// nil pointers are skipped.
func checkExpense(amount *decimal.Decimal, category, method *string) error {
	if amount != nil && !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}
	if category != nil && !contains(Categories, *category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, *category)
	}
	if method != nil && !contains(PaymentMethods, *method) {
		return fmt.Errorf("%w: unknown payment_method %q", ErrInvalidInput, *method)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
