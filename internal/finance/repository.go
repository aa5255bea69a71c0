package finance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agendapp/office-service/internal/pagination"
	"github.com/google/uuid"
)

const (
	incomeColumns = `i.id, i.patient_id, p.id, p.name, i.income_date, i.payer_type,
		i.insurer_name, i.insurer_plan, i.amount, i.notes, i.created_at`
	expenseColumns = `id, description, expense_date, amount, category, payment_method,
		notes, created_at, updated_at`
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// where collects AND-ed conditions with numbered placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, v interface{}) {
	w.args = append(w.args, v)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) String() string {
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func scanIncome(row rowScanner) (*Income, error) {
	var (
		in          Income
		patientID   sql.NullString
		refID       sql.NullString
		refName     sql.NullString
		date        time.Time
		insurerName sql.NullString
		insurerPlan sql.NullString
		notes       sql.NullString
	)
	if err := row.Scan(&in.ID, &patientID, &refID, &refName, &date, &in.PayerType,
		&insurerName, &insurerPlan, &in.Amount, &notes, &in.CreatedAt); err != nil {
		return nil, err
	}
	if patientID.Valid {
		in.PatientID = &patientID.String
	}
	if refID.Valid {
		in.Patient = &PatientRef{ID: refID.String, Name: refName.String}
	}
	in.Date = date.Format(dateLayout)
	if insurerName.Valid {
		in.InsurerName = &insurerName.String
	}
	if insurerPlan.Valid {
		in.InsurerPlan = &insurerPlan.String
	}
	in.Notes = notes.String
	return &in, nil
}

func (r *Repository) CreateIncome(ctx context.Context, ownerID string, req CreateIncomeRequest) (*Income, error) {
	if req.PatientID != nil {
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL)`,
			*req.PatientID, ownerID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to look up patient: %w", err)
		}
		if !exists {
			return nil, ErrPatientNotFound
		}
	}

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO incomes (id, owner_id, patient_id, income_date, payer_type, insurer_name,
			insurer_plan, amount, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, ownerID, req.PatientID, req.Date, req.PayerType, req.InsurerName,
		req.InsurerPlan, req.Amount, req.Notes, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert income: %w", err)
	}
	return r.GetIncome(ctx, ownerID, id)
}

func (r *Repository) GetIncome(ctx context.Context, ownerID, id string) (*Income, error) {
	in, err := scanIncome(r.db.QueryRowContext(ctx, `SELECT `+incomeColumns+`
		FROM incomes i LEFT JOIN patients p ON p.id = i.patient_id
		WHERE i.id = $1 AND i.owner_id = $2`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIncomeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query income: %w", err)
	}
	return in, nil
}

// ListIncomes returns the newest incomes first. Search matches the patient
// name or the insurer name.
func (r *Repository) ListIncomes(ctx context.Context, ownerID string, f IncomeFilter) ([]Income, error) {
	w := &where{}
	w.add("i.owner_id = ?", ownerID)
	if !f.From.IsZero() {
		w.add("i.income_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		w.add("i.income_date < ?", f.To)
	}
	if f.PayerType != "" {
		w.add("i.payer_type = ?", f.PayerType)
	}
	if f.InsurerName != "" {
		w.add("i.insurer_name = ?", f.InsurerName)
	}
	if f.Search != "" {
		w.add("(p.name ILIKE ? OR i.insurer_name ILIKE ?)", pagination.Params{Search: f.Search}.SearchPattern())
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+incomeColumns+`
		FROM incomes i LEFT JOIN patients p ON p.id = i.patient_id`+w.String()+`
		ORDER BY i.income_date DESC, i.created_at DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query incomes: %w", err)
	}
	defer rows.Close()

	incomes := []Income{}
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan income: %w", err)
		}
		incomes = append(incomes, *in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incomes: %w", err)
	}
	return incomes, nil
}

func (r *Repository) DeleteIncome(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete income: %w", err)
	}
	return requireRow(result, ErrIncomeNotFound)
}

func scanExpense(row rowScanner) (*Expense, error) {
	var (
		e         Expense
		date      time.Time
		notes     sql.NullString
		updatedAt sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.Description, &date, &e.Amount, &e.Category, &e.PaymentMethod,
		&notes, &e.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Date = date.Format(dateLayout)
	e.Notes = notes.String
	if updatedAt.Valid {
		e.UpdatedAt = &updatedAt.Time
	}
	return &e, nil
}

func (r *Repository) CreateExpense(ctx context.Context, ownerID string, req CreateExpenseRequest) (*Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, `
		INSERT INTO expenses (id, owner_id, description, expense_date, amount, category,
			payment_method, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+expenseColumns,
		uuid.NewString(), ownerID, req.Description, req.Date, req.Amount, req.Category,
		req.PaymentMethod, req.Notes, time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}
	return e, nil
}

func (r *Repository) ListExpenses(ctx context.Context, ownerID string, f ExpenseFilter) ([]Expense, error) {
	w := &where{}
	w.add("owner_id = ?", ownerID)
	if !f.From.IsZero() {
		w.add("expense_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		w.add("expense_date < ?", f.To)
	}
	if f.Search != "" {
		w.add("(description ILIKE ? OR category ILIKE ?)", pagination.Params{Search: f.Search}.SearchPattern())
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses`+w.String()+`
		ORDER BY expense_date DESC, created_at DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, ownerID, id string, req UpdateExpenseRequest) (*Expense, error) {
	updates := []string{}
	args := []interface{}{}
	set := func(column string, v interface{}) {
		args = append(args, v)
		updates = append(updates, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.Date != nil {
		set("expense_date", *req.Date)
	}
	if req.Amount != nil {
		set("amount", *req.Amount)
	}
	if req.Category != nil {
		set("category", *req.Category)
	}
	if req.PaymentMethod != nil {
		set("payment_method", *req.PaymentMethod)
	}
	if req.Notes != nil {
		set("notes", *req.Notes)
	}
	if len(updates) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`
		UPDATE expenses SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING %s`, strings.Join(updates, ", "), len(args)-1, len(args), expenseColumns)

	e, err := scanExpense(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExpenseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return e, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return requireRow(result, ErrExpenseNotFound)
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
