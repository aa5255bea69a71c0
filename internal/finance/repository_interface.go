package finance

import "context"

type RepositoryInterface interface {
	CreateIncome(ctx context.Context, ownerID string, req CreateIncomeRequest) (*Income, error)
	GetIncome(ctx context.Context, ownerID, id string) (*Income, error)
	ListIncomes(ctx context.Context, ownerID string, f IncomeFilter) ([]Income, error)
	DeleteIncome(ctx context.Context, ownerID, id string) error

	CreateExpense(ctx context.Context, ownerID string, req CreateExpenseRequest) (*Expense, error)
	ListExpenses(ctx context.Context, ownerID string, f ExpenseFilter) ([]Expense, error)
	UpdateExpense(ctx context.Context, ownerID, id string, req UpdateExpenseRequest) (*Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id string) error
}

var _ RepositoryInterface = (*Repository)(nil)
