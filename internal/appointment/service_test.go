package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agendapp/office-service/internal/messaging"
	"github.com/agendapp/office-service/internal/recurrence"
	"github.com/agendapp/office-service/internal/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type mockRepository struct {
	insertSeriesFunc      func(ctx context.Context, ownerID, seriesID string, series []recurrence.GeneratedAppointment) ([]Appointment, error)
	listAppointmentsFunc  func(ctx context.Context, ownerID string, f ListFilter) ([]Appointment, error)
	getAppointmentFunc    func(ctx context.Context, ownerID, id string) (*Appointment, error)
	updateAppointmentFunc func(ctx context.Context, ownerID, id string, g recurrence.GeneratedAppointment) error
	updateStatusFunc      func(ctx context.Context, ownerID, id, status string) (string, error)
	deleteAppointmentFunc func(ctx context.Context, ownerID, id string) error
}

func (m *mockRepository) InsertSeries(ctx context.Context, ownerID, seriesID string, series []recurrence.GeneratedAppointment) ([]Appointment, error) {
	if m.insertSeriesFunc != nil {
		return m.insertSeriesFunc(ctx, ownerID, seriesID, series)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) ListAppointments(ctx context.Context, ownerID string, f ListFilter) ([]Appointment, error) {
	if m.listAppointmentsFunc != nil {
		return m.listAppointmentsFunc(ctx, ownerID, f)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) GetAppointment(ctx context.Context, ownerID, id string) (*Appointment, error) {
	if m.getAppointmentFunc != nil {
		return m.getAppointmentFunc(ctx, ownerID, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) UpdateAppointment(ctx context.Context, ownerID, id string, g recurrence.GeneratedAppointment) error {
	if m.updateAppointmentFunc != nil {
		return m.updateAppointmentFunc(ctx, ownerID, id, g)
	}
	return errors.New("not implemented")
}

func (m *mockRepository) UpdateStatus(ctx context.Context, ownerID, id, status string) (string, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, ownerID, id, status)
	}
	return "", errors.New("not implemented")
}

func (m *mockRepository) DeleteAppointment(ctx context.Context, ownerID, id string) error {
	if m.deleteAppointmentFunc != nil {
		return m.deleteAppointmentFunc(ctx, ownerID, id)
	}
	return errors.New("not implemented")
}

type mockMetrics struct {
	frequency string
	count     int
}

func (m *mockMetrics) RecordAppointmentsGenerated(ctx context.Context, frequency string, count int) {
	m.frequency, m.count = frequency, count
}

// storeSeries mimics the repository by assigning sequential ids.
func storeSeries(ctx context.Context, ownerID, seriesID string, series []recurrence.GeneratedAppointment) ([]Appointment, error) {
	out := make([]Appointment, len(series))
	for i, g := range series {
		out[i] = Appointment{
			ID:        "a" + string(rune('1'+i)),
			SeriesID:  seriesID,
			PatientID: g.PatientID,
			StartTime: g.Start,
			Start:     g.Start.Format(StartLayout),
			Status:    g.Status,
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func TestCreateAppointments_Single(t *testing.T) {
	var got []recurrence.GeneratedAppointment
	repo := &mockRepository{
		insertSeriesFunc: func(ctx context.Context, ownerID, seriesID string, series []recurrence.GeneratedAppointment) ([]Appointment, error) {
			got = series
			if seriesID == "" {
				t.Error("Expected a series id")
			}
			return storeSeries(ctx, ownerID, seriesID, series)
		},
	}
	pub := testutil.NewMockPublisher()
	metrics := &mockMetrics{}
	svc := NewService(repo, pub, metrics, zap.NewNop())

	resp, err := svc.CreateAppointments(context.Background(), "owner-1", CreateAppointmentRequest{
		PatientID:       "p1",
		Date:            "2024-03-04",
		Time:            "09:30",
		DurationMinutes: 50,
		Fee:             decimal.NewFromInt(150),
		PayerType:       "particular",
		InsurerName:     strPtr("Unimed"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(got) != 1 || len(resp.Appointments) != 1 {
		t.Fatalf("Expected one appointment, got %d", len(got))
	}
	if want := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC); !got[0].Start.Equal(want) {
		t.Errorf("Expected start %v, got %v", want, got[0].Start)
	}
	if got[0].PayerType != recurrence.PayerIndividual || got[0].InsurerName != nil {
		t.Errorf("Expected individual payer without insurer, got %+v", got[0])
	}
	if resp.Message != "Appointment created successfully" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	if metrics.frequency != "none" || metrics.count != 1 {
		t.Errorf("Unexpected metric %+v", metrics)
	}

	pub.AssertEventCount(t, messaging.EventAppointmentSeriesCreated, 1)
	var event messaging.AppointmentSeriesCreatedEvent
	pub.DecodeLast(t, messaging.EventAppointmentSeriesCreated, &event)
	if event.OwnerID != "owner-1" || event.Data.SeriesID != resp.SeriesID || len(event.Data.AppointmentIDs) != 1 {
		t.Errorf("Unexpected event %+v", event)
	}
}

func TestCreateAppointments_MonthlySeries(t *testing.T) {
	repo := &mockRepository{insertSeriesFunc: storeSeries}
	metrics := &mockMetrics{}
	pub := testutil.NewMockPublisher()
	svc := NewService(repo, pub, metrics, zap.NewNop())

	resp, err := svc.CreateAppointments(context.Background(), "owner-1", CreateAppointmentRequest{
		PatientID:       "p1",
		Start:           "2024-01-31T10:00",
		DurationMinutes: 30,
		PayerType:       "insurance",
		InsurerName:     strPtr(" Unimed "),
		InsurerPlan:     strPtr("Nacional"),
		Recurrence:      &RecurrenceRequest{Enabled: true, Frequency: "monthly", Count: 3},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []string{"2024-01-31T10:00:00", "2024-02-29T10:00:00", "2024-03-31T10:00:00"}
	if len(resp.Appointments) != len(want) {
		t.Fatalf("Expected %d appointments, got %d", len(want), len(resp.Appointments))
	}
	for i, a := range resp.Appointments {
		if a.Start != want[i] {
			t.Errorf("Occurrence %d: expected %s, got %s", i, want[i], a.Start)
		}
		if a.SeriesID != resp.SeriesID {
			t.Errorf("Occurrence %d has series %s, want %s", i, a.SeriesID, resp.SeriesID)
		}
	}
	if resp.Message != "3 appointments created successfully" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	if metrics.frequency != "monthly" || metrics.count != 3 {
		t.Errorf("Unexpected metric %+v", metrics)
	}

	var event messaging.AppointmentSeriesCreatedEvent
	pub.DecodeLast(t, messaging.EventAppointmentSeriesCreated, &event)
	if !event.Data.LastStart.Equal(time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected last start %v", event.Data.LastStart)
	}
}

func TestCreateAppointments_InvalidInput(t *testing.T) {
	base := func() CreateAppointmentRequest {
		return CreateAppointmentRequest{PatientID: "p1", Start: "2024-03-04T09:00", DurationMinutes: 50}
	}
	testCases := []struct {
		name   string
		mutate func(r *CreateAppointmentRequest)
	}{
		{"missing patient", func(r *CreateAppointmentRequest) { r.PatientID = "" }},
		{"zero duration", func(r *CreateAppointmentRequest) { r.DurationMinutes = 0 }},
		{"bad start", func(r *CreateAppointmentRequest) { r.Start = "04/03/2024" }},
		{"missing start", func(r *CreateAppointmentRequest) { r.Start = "" }},
		{"negative fee", func(r *CreateAppointmentRequest) { r.Fee = decimal.NewFromInt(-1) }},
		{"unknown payer", func(r *CreateAppointmentRequest) { r.PayerType = "pix" }},
		{"insurance without insurer", func(r *CreateAppointmentRequest) { r.PayerType = "insurance" }},
		{"count too high", func(r *CreateAppointmentRequest) {
			r.Recurrence = &RecurrenceRequest{Enabled: true, Frequency: "weekly", Count: 53}
		}},
		{"unknown frequency", func(r *CreateAppointmentRequest) {
			r.Recurrence = &RecurrenceRequest{Enabled: true, Frequency: "daily", Count: 2}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepository{
				insertSeriesFunc: func(ctx context.Context, ownerID, seriesID string, series []recurrence.GeneratedAppointment) ([]Appointment, error) {
					t.Error("Expected nothing to be stored")
					return nil, nil
				},
			}
			pub := testutil.NewMockPublisher()
			svc := NewService(repo, pub, nil, zap.NewNop())

			req := base()
			tc.mutate(&req)
			_, err := svc.CreateAppointments(context.Background(), "owner-1", req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
			pub.AssertEventCount(t, messaging.EventAppointmentSeriesCreated, 0)
		})
	}
}

func TestCreateAppointments_DisabledRuleIgnoresCount(t *testing.T) {
	svc := NewService(&mockRepository{insertSeriesFunc: storeSeries}, nil, nil, zap.NewNop())

	resp, err := svc.CreateAppointments(context.Background(), "owner-1", CreateAppointmentRequest{
		PatientID: "p1", Start: "2024-03-04T09:00", DurationMinutes: 50,
		Recurrence: &RecurrenceRequest{Enabled: false, Frequency: "weekly", Count: 500},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(resp.Appointments) != 1 {
		t.Errorf("Expected a single appointment, got %d", len(resp.Appointments))
	}
}

func TestCreateAppointments_PatientNotFound(t *testing.T) {
	repo := &mockRepository{
		insertSeriesFunc: func(ctx context.Context, ownerID, seriesID string, series []recurrence.GeneratedAppointment) ([]Appointment, error) {
			return nil, ErrPatientNotFound
		},
	}
	pub := testutil.NewMockPublisher()
	svc := NewService(repo, pub, nil, zap.NewNop())

	_, err := svc.CreateAppointments(context.Background(), "owner-1", CreateAppointmentRequest{
		PatientID: "p404", Start: "2024-03-04T09:00", DurationMinutes: 50,
	})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Expected ErrPatientNotFound, got %v", err)
	}
	pub.AssertEventCount(t, messaging.EventAppointmentSeriesCreated, 0)
}

func TestCreateAppointments_PublishFailureIsNotFatal(t *testing.T) {
	pub := testutil.NewMockPublisher()
	pub.PublishErr = errors.New("broker down")
	svc := NewService(&mockRepository{insertSeriesFunc: storeSeries}, pub, nil, zap.NewNop())

	_, err := svc.CreateAppointments(context.Background(), "owner-1", CreateAppointmentRequest{
		PatientID: "p1", Start: "2024-03-04T09:00", DurationMinutes: 50,
	})
	if err != nil {
		t.Errorf("Expected publish failure to be swallowed, got %v", err)
	}
}

func existing() *Appointment {
	return &Appointment{
		ID:              "a1",
		PatientID:       "p1",
		Start:           "2024-03-04T09:00:00",
		DurationMinutes: 50,
		Fee:             decimal.NewFromInt(150),
		PayerType:       "insurance",
		InsurerName:     strPtr("Unimed"),
		InsurerPlan:     strPtr("Nacional"),
		Notes:           "primeira consulta",
		Status:          StatusScheduled,
	}
}

func TestUpdateAppointment_MergesFields(t *testing.T) {
	var stored recurrence.GeneratedAppointment
	repo := &mockRepository{
		getAppointmentFunc: func(ctx context.Context, ownerID, id string) (*Appointment, error) {
			return existing(), nil
		},
		updateAppointmentFunc: func(ctx context.Context, ownerID, id string, g recurrence.GeneratedAppointment) error {
			stored = g
			return nil
		},
	}
	svc := NewService(repo, nil, nil, zap.NewNop())

	newStart := "2024-03-05T14:00"
	individual := "individual"
	_, err := svc.UpdateAppointment(context.Background(), "owner-1", "a1", UpdateAppointmentRequest{
		Start:     &newStart,
		PayerType: &individual,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !stored.Start.Equal(time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected start %v", stored.Start)
	}
	if stored.DurationMinutes != 50 || !stored.Fee.Equal(decimal.NewFromInt(150)) || stored.Notes != "primeira consulta" {
		t.Errorf("Expected untouched fields kept, got %+v", stored)
	}
	if stored.InsurerName != nil || stored.InsurerPlan != nil {
		t.Errorf("Expected insurer cleared for individual payer, got %+v", stored)
	}
}

func TestUpdateAppointment_Errors(t *testing.T) {
	repo := &mockRepository{
		getAppointmentFunc: func(ctx context.Context, ownerID, id string) (*Appointment, error) {
			if id == "missing" {
				return nil, ErrAppointmentNotFound
			}
			return existing(), nil
		},
		updateAppointmentFunc: func(ctx context.Context, ownerID, id string, g recurrence.GeneratedAppointment) error {
			t.Error("Expected no update")
			return nil
		},
	}
	svc := NewService(repo, nil, nil, zap.NewNop())
	zero := 0

	if _, err := svc.UpdateAppointment(context.Background(), "owner-1", "a1", UpdateAppointmentRequest{}); !errors.Is(err, ErrNoFieldsToUpdate) {
		t.Errorf("Expected ErrNoFieldsToUpdate, got %v", err)
	}
	if _, err := svc.UpdateAppointment(context.Background(), "owner-1", "a1", UpdateAppointmentRequest{DurationMinutes: &zero}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.UpdateAppointment(context.Background(), "owner-1", "missing", UpdateAppointmentRequest{DurationMinutes: &zero}); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("Expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestUpdateStatus_PublishesChange(t *testing.T) {
	repo := &mockRepository{
		updateStatusFunc: func(ctx context.Context, ownerID, id, status string) (string, error) {
			return StatusScheduled, nil
		},
		getAppointmentFunc: func(ctx context.Context, ownerID, id string) (*Appointment, error) {
			a := existing()
			a.Status = StatusCompleted
			return a, nil
		},
	}
	pub := testutil.NewMockPublisher()
	svc := NewService(repo, pub, nil, zap.NewNop())

	a, err := svc.UpdateStatus(context.Background(), "owner-1", "a1", StatusCompleted)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if a.Status != StatusCompleted {
		t.Errorf("Expected completed, got %s", a.Status)
	}

	var event messaging.AppointmentStatusChangedEvent
	pub.DecodeLast(t, messaging.EventAppointmentStatusChanged, &event)
	if event.Data.OldStatus != StatusScheduled || event.Data.NewStatus != StatusCompleted || event.Data.PatientID != "p1" {
		t.Errorf("Unexpected event %+v", event.Data)
	}
}

func TestUpdateStatus_SameStatusPublishesNothing(t *testing.T) {
	repo := &mockRepository{
		updateStatusFunc: func(ctx context.Context, ownerID, id, status string) (string, error) {
			return status, nil
		},
		getAppointmentFunc: func(ctx context.Context, ownerID, id string) (*Appointment, error) {
			return existing(), nil
		},
	}
	pub := testutil.NewMockPublisher()
	svc := NewService(repo, pub, nil, zap.NewNop())

	if _, err := svc.UpdateStatus(context.Background(), "owner-1", "a1", StatusScheduled); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	pub.AssertEventCount(t, messaging.EventAppointmentStatusChanged, 0)
}

func TestUpdateStatus_Unknown(t *testing.T) {
	svc := NewService(&mockRepository{}, nil, nil, zap.NewNop())

	if _, err := svc.UpdateStatus(context.Background(), "owner-1", "a1", "rescheduled"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestListAppointments_RejectsUnknownStatus(t *testing.T) {
	svc := NewService(&mockRepository{}, nil, nil, zap.NewNop())

	if _, err := svc.ListAppointments(context.Background(), "owner-1", ListFilter{Status: "bogus"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteAppointment_NotFound(t *testing.T) {
	repo := &mockRepository{
		deleteAppointmentFunc: func(ctx context.Context, ownerID, id string) error {
			return ErrAppointmentNotFound
		},
	}
	svc := NewService(repo, nil, nil, zap.NewNop())

	if err := svc.DeleteAppointment(context.Background(), "owner-1", "a404"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("Expected ErrAppointmentNotFound, got %v", err)
	}
}
