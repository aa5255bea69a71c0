package finance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/agendapp/office-service/internal/auth"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// SummaryProvider is satisfied by *Dashboard.
type SummaryProvider interface {
	Summary(ctx context.Context, ownerID string) (*Summary, error)
}

type Handler struct {
	service   ServiceInterface
	dashboard SummaryProvider
}

func NewHandler(service ServiceInterface, dashboard SummaryProvider) *Handler {
	return &Handler{service: service, dashboard: dashboard}
}

func (h *Handler) CreateIncome(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req CreateIncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	in, err := h.service.CreateIncome(r.Context(), principal.UserID, req)
	if err != nil {
		respondServiceError(w, err, "creation_failed")
		return
	}
	respondJSON(w, http.StatusCreated, IncomeSuccessResponse{Success: true, Message: "Income recorded successfully", Income: in})
}

// ListIncomes accepts payer_type, insurer, search and an inclusive from/to
// date range.
func (h *Handler) ListIncomes(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	q := r.URL.Query()
	from, to, err := dateRange(q.Get("from"), q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	f := IncomeFilter{From: from, To: to, PayerType: q.Get("payer_type"), InsurerName: q.Get("insurer"), Search: q.Get("search")}

	incomes, err := h.service.ListIncomes(r.Context(), principal.UserID, f)
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	total := decimal.Zero
	for _, in := range incomes {
		total = total.Add(in.Amount)
	}
	respondJSON(w, http.StatusOK, IncomeListResponse{Success: true, Incomes: incomes, Total: total})
}

func (h *Handler) GetIncome(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	in, err := h.service.GetIncome(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	respondJSON(w, http.StatusOK, IncomeSuccessResponse{Success: true, Message: "Income retrieved successfully", Income: in})
}

func (h *Handler) DeleteIncome(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	if err := h.service.DeleteIncome(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err, "delete_failed")
		return
	}
	respondJSON(w, http.StatusOK, IncomeSuccessResponse{Success: true, Message: "Income deleted successfully"})
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	e, err := h.service.CreateExpense(r.Context(), principal.UserID, req)
	if err != nil {
		respondServiceError(w, err, "creation_failed")
		return
	}
	respondJSON(w, http.StatusCreated, ExpenseSuccessResponse{Success: true, Message: "Expense recorded successfully", Expense: e})
}

// ListExpenses accepts month=YYYY-MM and search.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	q := r.URL.Query()
	f := ExpenseFilter{Search: q.Get("search")}
	if month := q.Get("month"); month != "" {
		start, err := time.Parse("2006-01", month)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "month must be YYYY-MM")
			return
		}
		f.From, f.To = start, start.AddDate(0, 1, 0)
	}

	expenses, err := h.service.ListExpenses(r.Context(), principal.UserID, f)
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	respondJSON(w, http.StatusOK, ExpenseListResponse{Success: true, Expenses: expenses, Total: total})
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req UpdateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	e, err := h.service.UpdateExpense(r.Context(), principal.UserID, mux.Vars(r)["id"], req)
	if err != nil {
		respondServiceError(w, err, "update_failed")
		return
	}
	respondJSON(w, http.StatusOK, ExpenseSuccessResponse{Success: true, Message: "Expense updated successfully", Expense: e})
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	if err := h.service.DeleteExpense(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err, "delete_failed")
		return
	}
	respondJSON(w, http.StatusOK, ExpenseSuccessResponse{Success: true, Message: "Expense deleted successfully"})
}

// ExpenseOptions lists the accepted categories and payment methods.
func (h *Handler) ExpenseOptions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"categories":      Categories,
		"payment_methods": PaymentMethods,
	})
}

func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	s, err := h.dashboard.Summary(r.Context(), principal.UserID)
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "summary": s})
}

// dateRange parses inclusive YYYY-MM-DD bounds into [from, to).
func dateRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = time.Parse(dateLayout, from); err != nil {
			return start, end, errors.New("from must be YYYY-MM-DD")
		}
	}
	if to != "" {
		if end, err = time.Parse(dateLayout, to); err != nil {
			return start, end, errors.New("to must be YYYY-MM-DD")
		}
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrIncomeNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Income not found")
	case errors.Is(err, ErrExpenseNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Expense not found")
	case errors.Is(err, ErrPatientNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Patient not found")
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNoFieldsToUpdate):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, statusCode int, errorType, message string) {
	respondJSON(w, statusCode, map[string]interface{}{
		"error":   errorType,
		"message": message,
	})
}
