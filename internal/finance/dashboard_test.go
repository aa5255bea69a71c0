package finance

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/agendapp/office-service/internal/appointment"
	"github.com/shopspring/decimal"
)

func fee(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func strPtr(s string) *string { return &s }

func TestSummarize(t *testing.T) {
	today := []appointment.Appointment{
		{ID: "a2", StartTime: time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC), Fee: fee(200), Status: "scheduled",
			Patient: &appointment.PatientRef{ID: "p2", Name: "João"}},
		{ID: "a1", StartTime: time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), Fee: fee(150), Status: "confirmed"},
	}
	month := append([]appointment.Appointment{{ID: "a0", Fee: fee(100), Status: "cancelled"}}, today...)

	s := Summarize(SummaryInput{
		PatientCount:      12,
		TodayAppointments: today,
		MonthAppointments: month,
		MonthExpenses:     []Expense{{Amount: decimal.RequireFromString("120.50")}, {Amount: fee(80)}},
		InsuranceIncomes: []Income{
			{PayerType: "insurance", InsurerName: strPtr("Unimed")},
			{PayerType: "insurance", InsurerName: strPtr("Amil")},
			{PayerType: "insurance", InsurerName: strPtr("Unimed")},
			{PayerType: "individual"},
		},
	})

	if s.TotalPatients != 12 || s.TodayCount != 2 {
		t.Errorf("Unexpected counts %+v", s)
	}
	if s.TodayAppointments[0].ID != "a1" || s.TodayAppointments[0].Time != "09:30" {
		t.Errorf("Expected agenda sorted by time, got %+v", s.TodayAppointments)
	}
	if s.TodayAppointments[0].PatientName != "Paciente não encontrado" || s.TodayAppointments[1].PatientName != "João" {
		t.Errorf("Unexpected patient names %+v", s.TodayAppointments)
	}
	if !s.MonthRevenue.Equal(fee(450)) {
		t.Errorf("Expected revenue 450, got %s", s.MonthRevenue)
	}
	if !s.MonthExpenses.Equal(decimal.RequireFromString("200.50")) {
		t.Errorf("Expected expenses 200.50, got %s", s.MonthExpenses)
	}
	if !s.Balance.Equal(decimal.RequireFromString("249.50")) {
		t.Errorf("Expected balance 249.50, got %s", s.Balance)
	}
	if !reflect.DeepEqual(s.Insurers, []string{"Amil", "Unimed"}) {
		t.Errorf("Unexpected insurers %v", s.Insurers)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(SummaryInput{})

	if !s.MonthRevenue.IsZero() || !s.Balance.IsZero() || s.TodayAppointments == nil || s.Insurers == nil {
		t.Errorf("Expected zero summary with empty lists, got %+v", s)
	}
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) CountPatients(ctx context.Context, ownerID string) (int, error) {
	return f.n, f.err
}

type fakeLister struct {
	filters chan appointment.ListFilter
}

func (f fakeLister) ListAppointments(ctx context.Context, ownerID string, lf appointment.ListFilter) ([]appointment.Appointment, error) {
	f.filters <- lf
	if lf.To.Sub(lf.From) == 24*time.Hour {
		return []appointment.Appointment{{ID: "today", Fee: fee(150)}}, nil
	}
	return []appointment.Appointment{{ID: "today", Fee: fee(150)}, {ID: "earlier", Fee: fee(50)}}, nil
}

type fakeFinanceRepo struct {
	RepositoryInterface
	expenseFilter chan ExpenseFilter
}

func (f fakeFinanceRepo) ListExpenses(ctx context.Context, ownerID string, ef ExpenseFilter) ([]Expense, error) {
	f.expenseFilter <- ef
	return []Expense{{Amount: fee(30)}}, nil
}

func (f fakeFinanceRepo) ListIncomes(ctx context.Context, ownerID string, inf IncomeFilter) ([]Income, error) {
	if inf.PayerType != "insurance" {
		return nil, errors.New("expected insurance filter")
	}
	return []Income{{PayerType: "insurance", InsurerName: strPtr("Unimed")}}, nil
}

func TestDashboard_Summary(t *testing.T) {
	lister := fakeLister{filters: make(chan appointment.ListFilter, 2)}
	repo := fakeFinanceRepo{expenseFilter: make(chan ExpenseFilter, 1)}
	loc := time.FixedZone("BRT", -3*60*60)

	d := NewDashboard(fakeCounter{n: 7}, lister, repo, loc)
	// 01:30 UTC on Mar 1 is still Feb 29 in the clinic.
	d.now = func() time.Time { return time.Date(2024, 3, 1, 1, 30, 0, 0, time.UTC) }

	s, err := d.Summary(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if s.TotalPatients != 7 || s.TodayCount != 1 || !s.MonthRevenue.Equal(fee(200)) || !s.Balance.Equal(fee(170)) {
		t.Errorf("Unexpected summary %+v", s)
	}

	ef := <-repo.expenseFilter
	if !ef.From.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) || !ef.To.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected February range, got [%v, %v)", ef.From, ef.To)
	}
	close(lister.filters)
	for lf := range lister.filters {
		if lf.To.Sub(lf.From) == 24*time.Hour && !lf.From.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("Expected today to be Feb 29, got %v", lf.From)
		}
	}
}

func TestDashboard_SummaryPropagatesErrors(t *testing.T) {
	lister := fakeLister{filters: make(chan appointment.ListFilter, 2)}
	repo := fakeFinanceRepo{expenseFilter: make(chan ExpenseFilter, 1)}

	d := NewDashboard(fakeCounter{err: errors.New("db down")}, lister, repo, time.UTC)
	if _, err := d.Summary(context.Background(), "owner-1"); err == nil {
		t.Error("Expected an error")
	}
}
