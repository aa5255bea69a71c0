package document

// RenderRequest renders either a stored template (TemplateID) or an inline
// Body against the referenced records. Every record reference is optional.
type RenderRequest struct {
	TemplateID       string `json:"template_id"`
	Body             string `json:"body"`
	PatientID        string `json:"patient_id"`
	AppointmentID    string `json:"appointment_id"`
	ClinicalRecordID string `json:"clinical_record_id"`
	IncomeID         string `json:"income_id"`
}

type RenderResult struct {
	HTML       string   `json:"html"`
	Unresolved []string `json:"unresolved"`
	HistoryID  string   `json:"history_id,omitempty"`
}

const (
	KindAtestado       = "atestado"
	KindEncaminhamento = "encaminhamento"
	KindExame          = "exame"
	KindOutro          = "outro"
)

var simpleTitles = map[string]string{
	KindAtestado:       "ATESTADO MÉDICO",
	KindEncaminhamento: "ENCAMINHAMENTO",
	KindExame:          "SOLICITAÇÃO DE EXAME",
}

type SimpleDocumentRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=atestado encaminhamento exame outro"`
	CustomTitle string `json:"custom_title" validate:"max=100"`
	PatientID   string `json:"patient_id" validate:"required"`
	Content     string `json:"content" validate:"required,max=20000"`
}

type SimpleDocument struct {
	Title     string `json:"title"`
	HTML      string `json:"html"`
	Filename  string `json:"filename"`
	HistoryID string `json:"history_id,omitempty"`
}

type RenderResponse struct {
	Success bool `json:"success"`
	RenderResult
}

type SimpleDocumentResponse struct {
	Success bool `json:"success"`
	SimpleDocument
}

type HistoryListResponse struct {
	Success bool           `json:"success"`
	Entries []HistoryEntry `json:"entries"`
	Total   int            `json:"total"`
}
