package finance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/agendapp/office-service/internal/appointment"
	"github.com/agendapp/office-service/internal/recurrence"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// PatientCounter is satisfied by the patient repository.
type PatientCounter interface {
	CountPatients(ctx context.Context, ownerID string) (int, error)
}

// AppointmentLister is satisfied by the appointment service.
type AppointmentLister interface {
	ListAppointments(ctx context.Context, ownerID string, f appointment.ListFilter) ([]appointment.Appointment, error)
}

// SummaryInput is everything Summarize needs, already fetched.
type SummaryInput struct {
	PatientCount      int
	TodayAppointments []appointment.Appointment
	MonthAppointments []appointment.Appointment
	MonthExpenses     []Expense
	InsuranceIncomes  []Income
}

// Summarize builds the dashboard figures. Month revenue is the sum of the
// fees of every appointment in the month, whatever its status.
func Summarize(in SummaryInput) Summary {
	s := Summary{
		TotalPatients:     in.PatientCount,
		TodayCount:        len(in.TodayAppointments),
		TodayAppointments: make([]TodayAppointment, 0, len(in.TodayAppointments)),
		MonthRevenue:      decimal.Zero,
		MonthExpenses:     decimal.Zero,
		Insurers:          []string{},
	}

	for _, a := range in.TodayAppointments {
		s.TodayAppointments = append(s.TodayAppointments, TodayAppointment{
			ID:              a.ID,
			Time:            a.StartTime.Format("15:04"),
			DurationMinutes: a.DurationMinutes,
			Status:          a.Status,
			Fee:             a.Fee,
			PatientName:     a.PatientName(),
		})
	}
	sort.SliceStable(s.TodayAppointments, func(i, j int) bool {
		return s.TodayAppointments[i].Time < s.TodayAppointments[j].Time
	})

	for _, a := range in.MonthAppointments {
		s.MonthRevenue = s.MonthRevenue.Add(a.Fee)
	}
	for _, e := range in.MonthExpenses {
		s.MonthExpenses = s.MonthExpenses.Add(e.Amount)
	}
	s.Balance = s.MonthRevenue.Sub(s.MonthExpenses)

	seen := map[string]bool{}
	for _, inc := range in.InsuranceIncomes {
		if inc.PayerType != string(recurrence.PayerInsurance) || inc.InsurerName == nil || seen[*inc.InsurerName] {
			continue
		}
		seen[*inc.InsurerName] = true
		s.Insurers = append(s.Insurers, *inc.InsurerName)
	}
	sort.Strings(s.Insurers)
	return s
}

type Dashboard struct {
	patients     PatientCounter
	appointments AppointmentLister
	repo         RepositoryInterface
	now          func() time.Time
	loc          *time.Location
}

// NewDashboard computes "today" and "this month" on the clinic's calendar
// in loc.
func NewDashboard(patients PatientCounter, appointments AppointmentLister, repo RepositoryInterface, loc *time.Location) *Dashboard {
	if loc == nil {
		loc = time.Local
	}
	return &Dashboard{patients: patients, appointments: appointments, repo: repo, now: time.Now, loc: loc}
}

func (d *Dashboard) Summary(ctx context.Context, ownerID string) (*Summary, error) {
	y, m, day := d.now().In(d.loc).Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var in SummaryInput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.PatientCount, err = d.patients.CountPatients(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		in.TodayAppointments, err = d.appointments.ListAppointments(gctx, ownerID,
			appointment.ListFilter{From: today, To: today.AddDate(0, 0, 1)})
		return err
	})
	g.Go(func() (err error) {
		in.MonthAppointments, err = d.appointments.ListAppointments(gctx, ownerID,
			appointment.ListFilter{From: monthStart, To: monthEnd})
		return err
	})
	g.Go(func() (err error) {
		in.MonthExpenses, err = d.repo.ListExpenses(gctx, ownerID, ExpenseFilter{From: monthStart, To: monthEnd})
		return err
	})
	g.Go(func() (err error) {
		in.InsuranceIncomes, err = d.repo.ListIncomes(gctx, ownerID, IncomeFilter{PayerType: string(recurrence.PayerInsurance)})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard summary: %w", err)
	}

	s := Summarize(in)
	return &s, nil
}
