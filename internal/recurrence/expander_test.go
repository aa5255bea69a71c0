package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func baseDraft() AppointmentDraft {
	return AppointmentDraft{
		PatientID:       "patient-123",
		Start:           "2024-01-01T10:00",
		DurationMinutes: 50,
		Fee:             decimal.RequireFromString("250.00"),
		PayerType:       PayerIndividual,
		Notes:           "first session",
	}
}

func dates(t *testing.T, got []GeneratedAppointment) []string {
	t.Helper()
	out := make([]string, len(got))
	for i, g := range got {
		out[i] = g.Start.Format("2006-01-02 15:04")
	}
	return out
}

func assertDates(t *testing.T, got []GeneratedAppointment, want ...string) {
	t.Helper()
	gotDates := dates(t, got)
	if len(gotDates) != len(want) {
		t.Fatalf("Expected %d occurrences, got %d (%v)", len(want), len(gotDates), gotDates)
	}
	for i := range want {
		if gotDates[i] != want[i] {
			t.Errorf("Occurrence %d: expected %s, got %s", i, want[i], gotDates[i])
		}
	}
}

func TestExpand_DisabledRuleReturnsSingleOccurrence(t *testing.T) {
	draft := baseDraft()

	got, err := Expand(draft, RecurrenceRule{Enabled: false, Frequency: Weekly, OccurrenceCount: 10})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	assertDates(t, got, "2024-01-01 10:00")
	g := got[0]
	if g.Status != StatusScheduled {
		t.Errorf("Expected status scheduled, got %s", g.Status)
	}
	if g.PatientID != draft.PatientID || g.DurationMinutes != draft.DurationMinutes || !g.Fee.Equal(draft.Fee) || g.Notes != draft.Notes {
		t.Errorf("Expected draft fields to be copied, got %+v", g)
	}
}

func TestExpand_DisabledRuleIgnoresCount(t *testing.T) {
	got, err := Expand(baseDraft(), RecurrenceRule{Enabled: false, OccurrenceCount: 0})
	if err != nil {
		t.Fatalf("Expected no error for disabled rule with zero count, got: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 occurrence, got %d", len(got))
	}
}

func TestExpand_Weekly(t *testing.T) {
	got, err := Expand(baseDraft(), RecurrenceRule{Enabled: true, Frequency: Weekly, OccurrenceCount: 3})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	assertDates(t, got, "2024-01-01 10:00", "2024-01-08 10:00", "2024-01-15 10:00")
}

func TestExpand_Biweekly(t *testing.T) {
	got, err := Expand(baseDraft(), RecurrenceRule{Enabled: true, Frequency: Biweekly, OccurrenceCount: 2})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	assertDates(t, got, "2024-01-01 10:00", "2024-01-15 10:00")
}

func TestExpand_MonthlyClampsToLastDay(t *testing.T) {
	draft := baseDraft()
	draft.Start = "2024-01-31T10:00"

	got, err := Expand(draft, RecurrenceRule{Enabled: true, Frequency: Monthly, OccurrenceCount: 4})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	assertDates(t, got, "2024-01-31 10:00", "2024-02-29 10:00", "2024-03-31 10:00", "2024-04-30 10:00")
}

func TestExpand_MonthlyCrossesYear(t *testing.T) {
	draft := baseDraft()
	draft.Start = "2023-11-15T08:30"

	got, err := Expand(draft, RecurrenceRule{Enabled: true, Frequency: Monthly, OccurrenceCount: 3})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	assertDates(t, got, "2023-11-15 08:30", "2023-12-15 08:30", "2024-01-15 08:30")
}

func TestExpand_SeriesSharesNonDateFields(t *testing.T) {
	draft := baseDraft()
	draft.PayerType = PayerInsurance
	draft.InsurerName = strPtr("Unimed")
	draft.InsurerPlan = strPtr("Ouro")

	got, err := Expand(draft, RecurrenceRule{Enabled: true, Frequency: Weekly, OccurrenceCount: MaxOccurrences})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(got) != MaxOccurrences {
		t.Fatalf("Expected %d occurrences, got %d", MaxOccurrences, len(got))
	}

	for i, g := range got {
		if i > 0 && !g.Start.After(got[i-1].Start) {
			t.Errorf("Occurrence %d is not after occurrence %d", i, i-1)
		}
		if g.PatientID != draft.PatientID || g.DurationMinutes != draft.DurationMinutes ||
			!g.Fee.Equal(draft.Fee) || g.PayerType != draft.PayerType || g.Notes != draft.Notes ||
			g.Status != StatusScheduled {
			t.Errorf("Occurrence %d differs from draft: %+v", i, g)
		}
		if g.InsurerName == nil || *g.InsurerName != "Unimed" || g.InsurerPlan == nil || *g.InsurerPlan != "Ouro" {
			t.Errorf("Occurrence %d lost insurer data", i)
		}
	}
}

func TestExpand_IndividualDropsInsurerFields(t *testing.T) {
	draft := baseDraft()
	draft.InsurerName = strPtr("Unimed")
	draft.InsurerPlan = strPtr("Ouro")

	got, err := Expand(draft, RecurrenceRule{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got[0].InsurerName != nil || got[0].InsurerPlan != nil {
		t.Error("Expected insurer fields to be cleared for individual payer")
	}
}

func TestExpand_AcceptsAlternativeLayouts(t *testing.T) {
	for _, start := range []string{"2024-01-01T10:00:00", "2024-01-01 10:00", "2024-01-01 10:00:00"} {
		draft := baseDraft()
		draft.Start = start
		got, err := Expand(draft, RecurrenceRule{})
		if err != nil {
			t.Errorf("Start %q: expected no error, got %v", start, err)
			continue
		}
		if !got[0].Start.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)) {
			t.Errorf("Start %q: unexpected time %v", start, got[0].Start)
		}
	}
}

func TestExpand_InvalidInput(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*AppointmentDraft, *RecurrenceRule)
	}{
		{"Zero count", func(d *AppointmentDraft, r *RecurrenceRule) { r.OccurrenceCount = 0 }},
		{"Count above limit", func(d *AppointmentDraft, r *RecurrenceRule) { r.OccurrenceCount = 53 }},
		{"Zero duration", func(d *AppointmentDraft, r *RecurrenceRule) { d.DurationMinutes = 0 }},
		{"Negative duration", func(d *AppointmentDraft, r *RecurrenceRule) { d.DurationMinutes = -30 }},
		{"Unparseable start", func(d *AppointmentDraft, r *RecurrenceRule) { d.Start = "31/01/2024 10:00" }},
		{"Impossible date", func(d *AppointmentDraft, r *RecurrenceRule) { d.Start = "2024-02-30T10:00" }},
		{"Empty start", func(d *AppointmentDraft, r *RecurrenceRule) { d.Start = "" }},
		{"Negative fee", func(d *AppointmentDraft, r *RecurrenceRule) { d.Fee = decimal.NewFromInt(-1) }},
		{"Unknown payer", func(d *AppointmentDraft, r *RecurrenceRule) { d.PayerType = "cash" }},
		{"Unknown frequency", func(d *AppointmentDraft, r *RecurrenceRule) { r.Frequency = "daily" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			draft := baseDraft()
			rule := RecurrenceRule{Enabled: true, Frequency: Weekly, OccurrenceCount: 4}
			tc.mutate(&draft, &rule)

			got, err := Expand(draft, rule)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got: %v", err)
			}
			if got != nil {
				t.Errorf("Expected no partial output, got %d occurrences", len(got))
			}
		})
	}
}

func TestParsePayerType(t *testing.T) {
	testCases := map[string]PayerType{
		"individual": PayerIndividual,
		"particular": PayerIndividual,
		"insurance":  PayerInsurance,
		"convenio":   PayerInsurance,
	}
	for in, want := range testCases {
		got, ok := ParsePayerType(in)
		if !ok || got != want {
			t.Errorf("ParsePayerType(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParsePayerType("cash"); ok {
		t.Error("Expected unknown payer type to be rejected")
	}
}
