package document

import (
	"strconv"
	"strings"
	"time"

	"github.com/agendapp/office-service/internal/appointment"
	"github.com/agendapp/office-service/internal/clinicalrecord"
	"github.com/agendapp/office-service/internal/finance"
	"github.com/agendapp/office-service/internal/patient"
	"github.com/agendapp/office-service/internal/profile"
	"github.com/agendapp/office-service/internal/recurrence"
	"github.com/agendapp/office-service/internal/render"
	"github.com/shopspring/decimal"
)

const isoDate = "2006-01-02"

var statusLabels = map[string]string{
	appointment.StatusScheduled: "Agendada",
	appointment.StatusConfirmed: "Confirmada",
	appointment.StatusCompleted: "Realizada",
	appointment.StatusCancelled: "Cancelada",
	appointment.StatusNoShow:    "Faltou",
}

var payerLabels = map[string]string{
	string(recurrence.PayerIndividual): "Particular",
	string(recurrence.PayerInsurance):  "Convênio",
}

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// formatMoney writes v as Brazilian currency without the symbol: 1.500,00.
func formatMoney(v decimal.Decimal) string {
	s := v.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + "," + frac
}

// formatDate turns YYYY-MM-DD into dd/MM/yyyy. Anything else is returned
// unchanged.
func formatDate(iso string) string {
	t, err := time.Parse(isoDate, iso)
	if err != nil {
		return iso
	}
	return t.Format(render.DateLayout)
}

func longDate(t time.Time) string {
	return strconv.Itoa(t.Day()) + " de " + monthNames[t.Month()-1] + " de " + strconv.Itoa(t.Year())
}

func formatAddress(a patient.Address) string {
	street := joinNonEmpty(", ", a.Street, a.Number, a.Complement)
	city := joinNonEmpty("/", a.City, a.State)
	cep := ""
	if a.PostalCode != "" {
		cep = "CEP " + a.PostalCode
	}
	return joinNonEmpty(" - ", street, a.District, city, cep)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func patientFields(p *patient.PatientResponse) map[string]string {
	return map[string]string{
		"nome":            p.Name,
		"email":           p.Email,
		"telefone":        p.Phone,
		"cpf":             p.CPF,
		"data_nascimento": formatDate(deref(p.BirthDate)),
		"endereco":        formatAddress(p.Address),
	}
}

func appointmentFields(a *appointment.Appointment) map[string]string {
	status, ok := statusLabels[a.Status]
	if !ok {
		status = a.Status
	}
	return map[string]string{
		"data":        a.StartTime.Format(render.DateLayout + " 15:04"),
		"duracao":     strconv.Itoa(a.DurationMinutes) + " minutos",
		"status":      status,
		"observacoes": a.Notes,
		"valor":       formatMoney(a.Fee),
	}
}

func recordFields(r *clinicalrecord.ClinicalRecord) map[string]string {
	return map[string]string{
		"data_consulta":    formatDate(r.VisitDate),
		"queixa_principal": r.ChiefComplaint,
		"diagnostico":      r.Diagnosis,
		"conduta":          r.Treatment,
		"observacoes":      r.Notes,
	}
}

func incomeFields(in *finance.Income) map[string]string {
	payer, ok := payerLabels[in.PayerType]
	if !ok {
		payer = in.PayerType
	}
	return map[string]string{
		"data":           formatDate(in.Date),
		"tipo_pagamento": payer,
		"operadora":      deref(in.InsurerName),
		"plano_saude":    deref(in.InsurerPlan),
		"valor":          formatMoney(in.Amount),
		"observacoes":    in.Notes,
	}
}

func professionalFields(p *profile.Profile) map[string]string {
	return map[string]string{
		"nome_completo": p.FullName,
		"crm":           p.LicenseNumber,
		"especialidade": p.Specialty,
		"telefone":      p.Phone,
		"email":         p.Email,
	}
}
