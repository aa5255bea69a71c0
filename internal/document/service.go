package document

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/agendapp/office-service/internal/appointment"
	"github.com/agendapp/office-service/internal/clinicalrecord"
	"github.com/agendapp/office-service/internal/doctemplate"
	"github.com/agendapp/office-service/internal/finance"
	"github.com/agendapp/office-service/internal/messaging"
	"github.com/agendapp/office-service/internal/patient"
	"github.com/agendapp/office-service/internal/profile"
	"github.com/agendapp/office-service/internal/render"
	"github.com/agendapp/office-service/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type TemplateSource interface {
	GetTemplate(ctx context.Context, ownerID, id string) (*doctemplate.Template, error)
}

type PatientSource interface {
	GetPatient(ctx context.Context, ownerID, id string) (*patient.PatientResponse, error)
}

type AppointmentSource interface {
	GetAppointment(ctx context.Context, ownerID, id string) (*appointment.Appointment, error)
}

type RecordSource interface {
	GetRecord(ctx context.Context, ownerID, id string) (*clinicalrecord.ClinicalRecord, error)
}

type IncomeSource interface {
	GetIncome(ctx context.Context, ownerID, id string) (*finance.Income, error)
}

type ProfileSource interface {
	GetProfile(ctx context.Context, ownerID, email string) (*profile.Profile, error)
}

// Sources are the services a document pulls its values from.
type Sources struct {
	Templates    TemplateSource
	Patients     PatientSource
	Appointments AppointmentSource
	Records      RecordSource
	Incomes      IncomeSource
	Profiles     ProfileSource
}

type MetricsRecorder interface {
	RecordDocumentRendered(ctx context.Context, kind string, unresolved int)
}

type ServiceInterface interface {
	Render(ctx context.Context, ownerID, email string, req RenderRequest) (*RenderResult, error)
	Simple(ctx context.Context, ownerID, email string, req SimpleDocumentRequest) (*SimpleDocument, error)
	ListHistory(ctx context.Context, ownerID, patientID string) ([]HistoryEntry, error)
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	src       Sources
	history   HistoryRepository
	renderer  *render.Renderer
	now       func() time.Time
	loc       *time.Location
	publisher messaging.PublisherInterface
	metrics   MetricsRecorder
	logger    *zap.Logger
}

// NewService builds the document service. loc is the clinic zone used for
// data_atual, hora_atual and the signature date. A nil history keeps no
// record of generated documents.
func NewService(src Sources, history HistoryRepository, loc *time.Location, escapeHTML bool, publisher messaging.PublisherInterface, metrics MetricsRecorder, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{src: src, history: history, now: time.Now, loc: loc, publisher: publisher, metrics: metrics, logger: logger}

	opts := []render.Option{
		render.WithLocation(loc),
		render.WithClock(func() time.Time { return s.now() }),
	}
	if escapeHTML {
		opts = append(opts, render.WithHTMLEscaping())
	}
	s.renderer = render.New(opts...)
	return s
}

// Render fills a stored text template, or an inline body, with the
// referenced records and the owner's professional profile. When no patient
// is given it is taken from the appointment, clinical record or income.
func (s *Service) Render(ctx context.Context, ownerID, email string, req RenderRequest) (*RenderResult, error) {
	req.TemplateID = strings.TrimSpace(req.TemplateID)
	if (req.TemplateID == "") == (req.Body == "") {
		return nil, fmt.Errorf("%w: exactly one of template_id or body is required", ErrInvalidInput)
	}

	var (
		body  string
		title = "Documento"
		rc    = render.NewContext()
		appt  *appointment.Appointment
		rec   *clinicalrecord.ClinicalRecord
		inc   *finance.Income
		prof  *profile.Profile
	)
	body = req.Body

	g, gctx := errgroup.WithContext(ctx)
	if req.TemplateID != "" {
		g.Go(func() error {
			t, err := s.src.Templates.GetTemplate(gctx, ownerID, req.TemplateID)
			if err != nil {
				return err
			}
			if t.Kind != doctemplate.KindText {
				return ErrTemplateNotRenderable
			}
			body = t.Body
			title = t.Name
			return nil
		})
	}
	if req.AppointmentID != "" {
		g.Go(func() (err error) {
			appt, err = s.src.Appointments.GetAppointment(gctx, ownerID, req.AppointmentID)
			return err
		})
	}
	if req.ClinicalRecordID != "" {
		g.Go(func() (err error) {
			rec, err = s.src.Records.GetRecord(gctx, ownerID, req.ClinicalRecordID)
			return err
		})
	}
	if req.IncomeID != "" {
		g.Go(func() (err error) {
			inc, err = s.src.Incomes.GetIncome(gctx, ownerID, req.IncomeID)
			return err
		})
	}
	g.Go(func() (err error) {
		prof, err = s.src.Profiles.GetProfile(gctx, ownerID, email)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load document data: %w", err)
	}

	patientID := req.PatientID
	if appt != nil {
		rc.SetAll(render.NamespaceAppointment, appointmentFields(appt))
		patientID = firstNonEmpty(patientID, appt.PatientID)
	}
	if rec != nil {
		rc.SetAll(render.NamespaceClinicalRecord, recordFields(rec))
		patientID = firstNonEmpty(patientID, rec.PatientID)
	}
	if inc != nil {
		rc.SetAll(render.NamespaceIncome, incomeFields(inc))
		patientID = firstNonEmpty(patientID, deref(inc.PatientID))
	}
	rc.SetAll(render.NamespaceProfessional, professionalFields(prof))

	if patientID != "" {
		p, err := s.src.Patients.GetPatient(ctx, ownerID, patientID)
		if err != nil {
			return nil, fmt.Errorf("failed to load document data: %w", err)
		}
		rc.SetAll(render.NamespacePatient, patientFields(p))
	}

	out := s.renderer.Render(body, rc)
	result := &RenderResult{HTML: out, Unresolved: render.UnknownTokens(body)}
	if result.Unresolved == nil {
		result.Unresolved = []string{}
	}

	kind := "inline"
	if req.TemplateID != "" {
		kind = "template"
	}
	result.HistoryID = s.saveHistory(ctx, ownerID, &HistoryEntry{
		TemplateID:  optional(req.TemplateID),
		PatientID:   optional(patientID),
		Kind:        kind,
		Title:       title,
		Content:     out,
		FieldValues: usedValues(body, rc),
	})
	s.rendered(ctx, ownerID, messaging.DocumentRenderedData{
		TemplateID: req.TemplateID,
		Kind:       kind,
		PatientID:  patientID,
		Unresolved: result.Unresolved,
	})
	return result, nil
}

// Simple builds a one-off letterhead document for a patient.
func (s *Service) Simple(ctx context.Context, ownerID, email string, req SimpleDocumentRequest) (*SimpleDocument, error) {
	req.CustomTitle = strings.TrimSpace(req.CustomTitle)
	if strings.TrimSpace(req.Content) == "" {
		req.Content = ""
	}
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}

	var (
		p    *patient.PatientResponse
		prof *profile.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p, err = s.src.Patients.GetPatient(gctx, ownerID, req.PatientID)
		return err
	})
	g.Go(func() (err error) {
		prof, err = s.src.Profiles.GetProfile(gctx, ownerID, email)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load document data: %w", err)
	}

	now := s.now().In(s.loc)
	title := simpleTitle(req.Kind, req.CustomTitle)

	rc := render.NewContext().
		SetAll(render.NamespacePatient, patientFields(p)).
		SetAll(render.NamespaceProfessional, professionalFields(prof))
	if p.CPF == "" {
		rc.Set(render.NamespacePatient, "cpf", "Não informado")
	}
	if prof.Email == "" {
		rc.Set(render.NamespaceProfessional, "email", email)
	}

	body := simpleBody(title, req.Content, now, p, prof, email)
	out := s.renderer.Render(body, rc)
	doc := &SimpleDocument{
		Title:    title,
		HTML:     out,
		Filename: simpleFilename(title, p.Name, now),
	}
	doc.HistoryID = s.saveHistory(ctx, ownerID, &HistoryEntry{
		PatientID:   optional(p.ID),
		Kind:        req.Kind,
		Title:       title,
		Content:     out,
		FieldValues: map[string]string{"content": req.Content},
	})

	s.rendered(ctx, ownerID, messaging.DocumentRenderedData{
		Kind:       req.Kind,
		PatientID:  p.ID,
		Unresolved: render.UnknownTokens(body),
	})
	return doc, nil
}

// ListHistory lists generated documents, optionally for one patient.
func (s *Service) ListHistory(ctx context.Context, ownerID, patientID string) ([]HistoryEntry, error) {
	if s.history == nil {
		return []HistoryEntry{}, nil
	}
	entries, err := s.history.ListHistory(ctx, ownerID, strings.TrimSpace(patientID))
	if err != nil {
		return nil, fmt.Errorf("failed to list document history: %w", err)
	}
	return entries, nil
}

// saveHistory returns the new entry id, or "" when nothing was stored. A
// failed write does not fail the document.
func (s *Service) saveHistory(ctx context.Context, ownerID string, entry *HistoryEntry) string {
	if s.history == nil {
		return ""
	}
	if err := s.history.SaveHistory(ctx, ownerID, entry); err != nil {
		s.logger.Warn("failed to save document history", zap.String("kind", entry.Kind), zap.Error(err))
		return ""
	}
	return entry.ID
}

// usedValues maps every record placeholder of body, without braces, to the
// value it rendered as.
func usedValues(body string, rc render.Context) map[string]string {
	values := map[string]string{}
	for _, tok := range render.Tokens(body) {
		if tok.System != "" {
			continue
		}
		values[string(tok.Namespace)+"."+tok.Field] = rc.Lookup(tok.Namespace, tok.Field)
	}
	return values
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Service) rendered(ctx context.Context, ownerID string, data messaging.DocumentRenderedData) {
	if s.metrics != nil {
		s.metrics.RecordDocumentRendered(ctx, data.Kind, len(data.Unresolved))
	}
	if len(data.Unresolved) > 0 {
		s.logger.Debug("document rendered with unresolved placeholders",
			zap.String("kind", data.Kind), zap.Strings("unresolved", data.Unresolved))
	}
	if s.publisher == nil {
		return
	}
	event := messaging.DocumentRenderedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventDocumentRendered, ownerID),
		Data:      data,
	}
	if err := s.publisher.Publish(ctx, messaging.EventDocumentRendered, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("routing_key", messaging.EventDocumentRendered), zap.Error(err))
	}
}

func simpleTitle(kind, custom string) string {
	if kind == KindOutro && custom != "" {
		return strings.ToUpper(custom)
	}
	if t, ok := simpleTitles[kind]; ok {
		return t
	}
	return "DOCUMENTO"
}

// simpleFilename is <title>_<first name>_<ddMMyyyy>.pdf, lower case with
// whitespace runs turned into underscores.
func simpleFilename(title, patientName string, now time.Time) string {
	first := ""
	if fields := strings.Fields(patientName); len(fields) > 0 {
		first = strings.ToLower(fields[0])
	}
	return strings.Join(strings.Fields(strings.ToLower(title)), "_") + "_" + first + "_" + now.Format("02012006") + ".pdf"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// simpleBody lays out the letterhead document. Record values go through
// placeholders; only the title, content and layout decisions are written
// directly, escaped.
func simpleBody(title, content string, now time.Time, p *patient.PatientResponse, prof *profile.Profile, email string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; position: relative; padding-bottom: 80px;">`)

	if prof.LetterheadURL != "" {
		fmt.Fprintf(&b, `<div style="width: 100%%; margin-bottom: 30px;"><img src="%s" style="width: 100%%; max-height: 150px; object-fit: contain;" /></div>`,
			html.EscapeString(prof.LetterheadURL))
	} else {
		b.WriteString(`<div style="text-align: center; margin-bottom: 30px;"><h2>{{profissional.nome_completo}}</h2><p>{{profissional.especialidade}} - {{profissional.crm}}</p></div>`)
	}

	fmt.Fprintf(&b, `<h1 style="text-align: center; margin-bottom: 20px; font-size: 18px; font-weight: bold;">%s</h1>`, html.EscapeString(title))

	b.WriteString(`<div class="mb-4"><p><strong>Paciente:</strong> {{paciente.nome}}</p><p><strong>CPF:</strong> {{paciente.cpf}}</p>`)
	if p.BirthDate != nil && *p.BirthDate != "" {
		b.WriteString(`<p><strong>Data de Nascimento:</strong> {{paciente.data_nascimento}}</p>`)
	}
	b.WriteString(`</div>`)

	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for i := range lines {
		lines[i] = html.EscapeString(lines[i])
	}
	fmt.Fprintf(&b, `<div style="margin: 30px 0; text-align: justify; min-height: 200px; line-height: 1.5;">%s</div>`, strings.Join(lines, "<br>"))

	fmt.Fprintf(&b, `<div style="margin-top: 30px; text-align: center;"><p>%s</p></div>`, longDate(now))
	b.WriteString(`<div style="width: 100%; display: flex; justify-content: center; margin-top: 10px;"><div style="width: 300px; display: flex; flex-direction: column; align-items: center;">`)
	b.WriteString(`<div style="margin: 5px auto; border-top: 1px solid #000; width: 200px;"></div>`)
	b.WriteString(`<div style="text-align: center; width: 100%; margin-top: -5px;"><p style="margin: 0; font-size: 14px; line-height: 1.1;">{{profissional.nome_completo}}<br>{{profissional.especialidade}}<br>{{profissional.crm}}</p></div>`)
	b.WriteString(`</div></div>`)

	if prof.Phone != "" || prof.Email != "" || email != "" {
		b.WriteString(`<div style="position: absolute; bottom: 30px; left: 50px; font-size: 12px; color: #555;"><p style="margin: 0;">📞 {{profissional.telefone}}</p><p style="margin: 0;">✉️ {{profissional.email}}</p></div>`)
	}

	b.WriteString(`</div>`)
	return b.String()
}
