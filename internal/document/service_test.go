package document

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/agendapp/office-service/internal/appointment"
	"github.com/agendapp/office-service/internal/clinicalrecord"
	"github.com/agendapp/office-service/internal/doctemplate"
	"github.com/agendapp/office-service/internal/finance"
	"github.com/agendapp/office-service/internal/messaging"
	"github.com/agendapp/office-service/internal/patient"
	"github.com/agendapp/office-service/internal/profile"
	"github.com/agendapp/office-service/internal/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var brt = time.FixedZone("BRT", -3*60*60)

type fakeSources struct {
	templates    map[string]*doctemplate.Template
	patients     map[string]*patient.PatientResponse
	appointments map[string]*appointment.Appointment
	records      map[string]*clinicalrecord.ClinicalRecord
	incomes      map[string]*finance.Income
	profile      *profile.Profile
	profileErr   error
}

func (f *fakeSources) GetTemplate(ctx context.Context, ownerID, id string) (*doctemplate.Template, error) {
	if t, ok := f.templates[id]; ok {
		return t, nil
	}
	return nil, doctemplate.ErrTemplateNotFound
}

func (f *fakeSources) GetPatient(ctx context.Context, ownerID, id string) (*patient.PatientResponse, error) {
	if p, ok := f.patients[id]; ok {
		return p, nil
	}
	return nil, patient.ErrPatientNotFound
}

func (f *fakeSources) GetAppointment(ctx context.Context, ownerID, id string) (*appointment.Appointment, error) {
	if a, ok := f.appointments[id]; ok {
		return a, nil
	}
	return nil, appointment.ErrAppointmentNotFound
}

func (f *fakeSources) GetRecord(ctx context.Context, ownerID, id string) (*clinicalrecord.ClinicalRecord, error) {
	if r, ok := f.records[id]; ok {
		return r, nil
	}
	return nil, clinicalrecord.ErrRecordNotFound
}

func (f *fakeSources) GetIncome(ctx context.Context, ownerID, id string) (*finance.Income, error) {
	if in, ok := f.incomes[id]; ok {
		return in, nil
	}
	return nil, finance.ErrIncomeNotFound
}

func (f *fakeSources) GetProfile(ctx context.Context, ownerID, email string) (*profile.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile != nil {
		return f.profile, nil
	}
	return &profile.Profile{OwnerID: ownerID, Email: email}, nil
}

type mockMetrics struct {
	kinds      []string
	unresolved []int
}

func (m *mockMetrics) RecordDocumentRendered(ctx context.Context, kind string, unresolved int) {
	m.kinds = append(m.kinds, kind)
	m.unresolved = append(m.unresolved, unresolved)
}

type fakeHistory struct {
	saved   []HistoryEntry
	saveErr error
}

func (f *fakeHistory) SaveHistory(ctx context.Context, ownerID string, entry *HistoryEntry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	entry.ID = fmt.Sprintf("h-%d", len(f.saved)+1)
	f.saved = append(f.saved, *entry)
	return nil
}

func (f *fakeHistory) ListHistory(ctx context.Context, ownerID, patientID string) ([]HistoryEntry, error) {
	var out []HistoryEntry
	for _, e := range f.saved {
		if patientID == "" || (e.PatientID != nil && *e.PatientID == patientID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func newFakeSources() *fakeSources {
	birth := "1990-07-14"
	insurer, plan := "Unimed", "Ouro"
	patientID := "p-1"
	return &fakeSources{
		templates: map[string]*doctemplate.Template{
			"tpl-text": {ID: "tpl-text", Name: "Declaração", Kind: doctemplate.KindText, Body: "Paciente: {{paciente.nome}}"},
			"tpl-file": {ID: "tpl-file", Kind: doctemplate.KindFile, FileReference: "owner-1/tpl-file.pdf"},
		},
		patients: map[string]*patient.PatientResponse{
			"p-1": {
				ID:        "p-1",
				Name:      "Ana & Bia Souza",
				BirthDate: &birth,
				CPF:       "529.982.247-25",
				Phone:     "(11) 99999-0000",
				Email:     "ana@example.com",
				Address: patient.Address{
					PostalCode: "01310-100",
					Street:     "Av. Paulista",
					Number:     "1000",
					District:   "Bela Vista",
					City:       "São Paulo",
					State:      "SP",
				},
			},
			"p-2": {ID: "p-2", Name: "Carlos"},
		},
		appointments: map[string]*appointment.Appointment{
			"a-1": {
				ID:              "a-1",
				PatientID:       "p-1",
				StartTime:       time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC),
				DurationMinutes: 50,
				Fee:             decimal.NewFromInt(1500),
				Status:          appointment.StatusCompleted,
				Notes:           "Retorno",
			},
		},
		records: map[string]*clinicalrecord.ClinicalRecord{
			"r-1": {ID: "r-1", PatientID: "p-1", VisitDate: "2024-03-05", Diagnosis: "Rinite", Treatment: "Repouso"},
		},
		incomes: map[string]*finance.Income{
			"i-1": {ID: "i-1", PatientID: &patientID, Date: "2024-03-05", PayerType: "insurance",
				InsurerName: &insurer, InsurerPlan: &plan, Amount: decimal.RequireFromString("150.5")},
		},
		profile: &profile.Profile{OwnerID: "owner-1", FullName: "Dra. Marta Lima", LicenseNumber: "CRM-SP 123456", Specialty: "Clínica Geral"},
	}
}

func newTestService(src *fakeSources, escape bool) (*Service, *testutil.MockPublisher, *mockMetrics) {
	svc, pub, metrics, _ := newTestServiceWithHistory(src, escape)
	return svc, pub, metrics
}

func newTestServiceWithHistory(src *fakeSources, escape bool) (*Service, *testutil.MockPublisher, *mockMetrics, *fakeHistory) {
	history := &fakeHistory{}
	pub := testutil.NewMockPublisher()
	metrics := &mockMetrics{}
	svc := NewService(Sources{
		Templates:    src,
		Patients:     src,
		Appointments: src,
		Records:      src,
		Incomes:      src,
		Profiles:     src,
	}, history, brt, escape, pub, metrics, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 6, 1, 0, 0, 0, time.UTC) }
	return svc, pub, metrics, history
}

func TestRender_InlineBodyWithRecords(t *testing.T) {
	svc, pub, metrics := newTestService(newFakeSources(), true)

	body := "{{paciente.nome}} | {{consulta.data}} | {{consulta.duracao}} | {{consulta.status}} | R$ {{consulta.valor}} | " +
		"{{ficha.diagnostico}} | {{profissional.crm}} | {{data_atual}} | {{foo.bar}}"
	res, err := svc.Render(context.Background(), "owner-1", "marta@example.com", RenderRequest{
		Body:             body,
		AppointmentID:    "a-1",
		ClinicalRecordID: "r-1",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := "Ana &amp; Bia Souza | 05/03/2024 09:30 | 50 minutos | Realizada | R$ 1.500,00 | " +
		"Rinite | CRM-SP 123456 | 05/03/2024 | {{foo.bar}}"
	if res.HTML != want {
		t.Errorf("Expected\n%q\ngot\n%q", want, res.HTML)
	}
	if !reflect.DeepEqual(res.Unresolved, []string{"{{foo.bar}}"}) {
		t.Errorf("Unexpected unresolved %v", res.Unresolved)
	}

	pub.AssertEventCount(t, messaging.EventDocumentRendered, 1)
	var event messaging.DocumentRenderedEvent
	pub.DecodeLast(t, messaging.EventDocumentRendered, &event)
	if event.Data.Kind != "inline" || event.Data.PatientID != "p-1" {
		t.Errorf("Unexpected event data %+v", event.Data)
	}
	if len(metrics.kinds) != 1 || metrics.unresolved[0] != 1 {
		t.Errorf("Unexpected metrics %+v", metrics)
	}
}

func TestRender_StoredTemplate(t *testing.T) {
	svc, _, _ := newTestService(newFakeSources(), false)

	res, err := svc.Render(context.Background(), "owner-1", "", RenderRequest{TemplateID: "tpl-text", PatientID: "p-2"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.HTML != "Paciente: Carlos" || len(res.Unresolved) != 0 || res.Unresolved == nil {
		t.Errorf("Unexpected result %+v", res)
	}
}

func TestRender_PatientAndIncomeFields(t *testing.T) {
	svc, _, _ := newTestService(newFakeSources(), false)

	res, err := svc.Render(context.Background(), "owner-1", "", RenderRequest{
		Body:     "{{paciente.endereco}}|{{paciente.data_nascimento}}|{{receita.tipo_pagamento}}|{{receita.operadora}}/{{receita.plano_saude}}|{{receita.valor}}",
		IncomeID: "i-1",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := "Av. Paulista, 1000 - Bela Vista - São Paulo/SP - CEP 01310-100|14/07/1990|Convênio|Unimed/Ouro|150,50"
	if res.HTML != want {
		t.Errorf("Expected %q, got %q", want, res.HTML)
	}
}

func TestRender_Errors(t *testing.T) {
	svc, pub, _ := newTestService(newFakeSources(), true)

	tests := []struct {
		name string
		req  RenderRequest
		want error
	}{
		{"neither body nor template", RenderRequest{}, ErrInvalidInput},
		{"both body and template", RenderRequest{TemplateID: "tpl-text", Body: "x"}, ErrInvalidInput},
		{"file template", RenderRequest{TemplateID: "tpl-file"}, ErrTemplateNotRenderable},
		{"missing template", RenderRequest{TemplateID: "nope"}, doctemplate.ErrTemplateNotFound},
		{"missing appointment", RenderRequest{Body: "x", AppointmentID: "nope"}, appointment.ErrAppointmentNotFound},
		{"missing patient", RenderRequest{Body: "x", PatientID: "nope"}, patient.ErrPatientNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Render(context.Background(), "owner-1", "", tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
	pub.AssertEventCount(t, messaging.EventDocumentRendered, 0)
}

func TestRender_PublishFailureDoesNotFail(t *testing.T) {
	svc, pub, _ := newTestService(newFakeSources(), true)
	pub.PublishErr = errors.New("broker down")

	if _, err := svc.Render(context.Background(), "owner-1", "", RenderRequest{Body: "ok"}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestRender_ValueContainingBracesIsNotUnresolved(t *testing.T) {
	src := newFakeSources()
	src.patients["p-2"].Name = "Ana {{x.y}}"
	svc, _, metrics := newTestService(src, false)

	res, err := svc.Render(context.Background(), "owner-1", "", RenderRequest{Body: "{{paciente.nome}}", PatientID: "p-2"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.HTML != "Ana {{x.y}}" {
		t.Errorf("Unexpected html %q", res.HTML)
	}
	if len(res.Unresolved) != 0 {
		t.Errorf("Expected no unresolved tokens, got %v", res.Unresolved)
	}
	if metrics.unresolved[0] != 0 {
		t.Errorf("Expected metric with 0 unresolved, got %d", metrics.unresolved[0])
	}
}

func TestRender_SavesHistory(t *testing.T) {
	svc, _, _, history := newTestServiceWithHistory(newFakeSources(), false)

	res, err := svc.Render(context.Background(), "owner-1", "", RenderRequest{TemplateID: "tpl-text", AppointmentID: "a-1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.HistoryID != "h-1" || len(history.saved) != 1 {
		t.Fatalf("Expected one history entry, got id %q and %d entries", res.HistoryID, len(history.saved))
	}

	entry := history.saved[0]
	if entry.Kind != "template" || entry.Title != "Declaração" || entry.Content != "Paciente: Ana & Bia Souza" {
		t.Errorf("Unexpected entry %+v", entry)
	}
	if entry.TemplateID == nil || *entry.TemplateID != "tpl-text" || entry.PatientID == nil || *entry.PatientID != "p-1" {
		t.Errorf("Unexpected references %+v", entry)
	}
	if !reflect.DeepEqual(entry.FieldValues, map[string]string{"paciente.nome": "Ana & Bia Souza"}) {
		t.Errorf("Unexpected field values %v", entry.FieldValues)
	}
}

func TestRender_HistoryFailureDoesNotFail(t *testing.T) {
	svc, _, _, history := newTestServiceWithHistory(newFakeSources(), false)
	history.saveErr = errors.New("db down")

	res, err := svc.Render(context.Background(), "owner-1", "", RenderRequest{Body: "ok"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.HistoryID != "" {
		t.Errorf("Expected no history id, got %q", res.HistoryID)
	}
}

func TestSimple_Atestado(t *testing.T) {
	svc, pub, _ := newTestService(newFakeSources(), true)

	doc, err := svc.Simple(context.Background(), "owner-1", "marta@example.com", SimpleDocumentRequest{
		Kind:      KindAtestado,
		PatientID: "p-1",
		Content:   "Atesto para os devidos fins.\n<Repouso> de 2 dias.",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if doc.Title != "ATESTADO MÉDICO" {
		t.Errorf("Unexpected title %q", doc.Title)
	}
	if doc.Filename != "atestado_médico_ana_05032024.pdf" {
		t.Errorf("Unexpected filename %q", doc.Filename)
	}
	for _, want := range []string{
		"<h2>Dra. Marta Lima</h2>",
		"Clínica Geral - CRM-SP 123456",
		"<strong>Paciente:</strong> Ana &amp; Bia Souza",
		"<strong>CPF:</strong> 529.982.247-25",
		"<strong>Data de Nascimento:</strong> 14/07/1990",
		"Atesto para os devidos fins.<br>&lt;Repouso&gt; de 2 dias.",
		"<p>5 de março de 2024</p>",
		"✉️ marta@example.com",
	} {
		if !strings.Contains(doc.HTML, want) {
			t.Errorf("Expected HTML to contain %q", want)
		}
	}
	if strings.Contains(doc.HTML, "{{") {
		t.Errorf("Expected every placeholder resolved, got %s", doc.HTML)
	}
	pub.AssertEventCount(t, messaging.EventDocumentRendered, 1)
}

func TestSimple_SavesHistory(t *testing.T) {
	svc, _, _, history := newTestServiceWithHistory(newFakeSources(), true)

	doc, err := svc.Simple(context.Background(), "owner-1", "", SimpleDocumentRequest{Kind: KindEncaminhamento, PatientID: "p-2", Content: "Ao cardiologista."})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.HistoryID != "h-1" || len(history.saved) != 1 {
		t.Fatalf("Expected one history entry, got id %q and %d entries", doc.HistoryID, len(history.saved))
	}

	entry := history.saved[0]
	if entry.TemplateID != nil || entry.PatientID == nil || *entry.PatientID != "p-2" {
		t.Errorf("Unexpected references %+v", entry)
	}
	if entry.Kind != KindEncaminhamento || entry.Title != "ENCAMINHAMENTO" || entry.Content != doc.HTML {
		t.Errorf("Unexpected entry %+v", entry)
	}
	if entry.FieldValues["content"] != "Ao cardiologista." {
		t.Errorf("Unexpected field values %v", entry.FieldValues)
	}

	listed, err := svc.ListHistory(context.Background(), "owner-1", " p-2 ")
	if err != nil || len(listed) != 1 {
		t.Errorf("Expected the entry listed for p-2, got %v %v", listed, err)
	}
}

func TestListHistory_NoStore(t *testing.T) {
	svc := NewService(Sources{}, nil, brt, true, nil, nil, zap.NewNop())

	entries, err := svc.ListHistory(context.Background(), "owner-1", "")
	if err != nil || entries == nil || len(entries) != 0 {
		t.Errorf("Expected empty list, got %v %v", entries, err)
	}
}

func TestSimple_CustomTitleAndLetterhead(t *testing.T) {
	src := newFakeSources()
	src.profile.LetterheadURL = "https://cdn.example.com/timbre.png"
	svc, _, _ := newTestService(src, true)

	doc, err := svc.Simple(context.Background(), "owner-1", "", SimpleDocumentRequest{
		Kind:        KindOutro,
		CustomTitle: "  Declaração de comparecimento ",
		PatientID:   "p-2",
		Content:     "Compareceu.",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.Title != "DECLARAÇÃO DE COMPARECIMENTO" {
		t.Errorf("Unexpected title %q", doc.Title)
	}
	if doc.Filename != "declaração_de_comparecimento_carlos_05032024.pdf" {
		t.Errorf("Unexpected filename %q", doc.Filename)
	}
	if !strings.Contains(doc.HTML, `<img src="https://cdn.example.com/timbre.png"`) {
		t.Error("Expected letterhead image")
	}
	if !strings.Contains(doc.HTML, "<strong>CPF:</strong> Não informado") {
		t.Error("Expected CPF fallback")
	}
	if strings.Contains(doc.HTML, "Data de Nascimento") {
		t.Error("Expected no birth date line")
	}
}

func TestSimple_Validation(t *testing.T) {
	svc, _, _ := newTestService(newFakeSources(), true)

	tests := []SimpleDocumentRequest{
		{Kind: "receita", PatientID: "p-1", Content: "x"},
		{Kind: KindAtestado, Content: "x"},
		{Kind: KindAtestado, PatientID: "p-1", Content: "   "},
	}
	for i, req := range tests {
		if _, err := svc.Simple(context.Background(), "owner-1", "", req); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := map[string]string{
		"0":        "0,00",
		"150":      "150,00",
		"1500.5":   "1.500,50",
		"1234567":  "1.234.567,00",
		"-1000.25": "-1.000,25",
	}
	for in, want := range tests {
		if got := formatMoney(decimal.RequireFromString(in)); got != want {
			t.Errorf("formatMoney(%s) = %s, want %s", in, got, want)
		}
	}
}
