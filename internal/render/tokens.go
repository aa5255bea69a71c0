package render

import (
	"regexp"
	"strings"
)

// Namespace groups the fields of one entity that a template can reference.
type Namespace string

const (
	NamespacePatient        Namespace = "paciente"
	NamespaceAppointment    Namespace = "consulta"
	NamespaceClinicalRecord Namespace = "ficha"
	NamespaceIncome         Namespace = "receita"
	NamespaceProfessional   Namespace = "profissional"
)

// System tokens take no namespace and resolve from the render clock.
const (
	SystemDate = "data_atual"
	SystemTime = "hora_atual"
)

// catalog is the complete token grammar: anything outside it is left as literal text.
var catalog = map[Namespace][]string{
	NamespacePatient:        {"nome", "email", "telefone", "cpf", "data_nascimento", "endereco"},
	NamespaceAppointment:    {"data", "duracao", "status", "observacoes", "valor"},
	NamespaceClinicalRecord: {"data_consulta", "queixa_principal", "diagnostico", "conduta", "observacoes"},
	NamespaceIncome:         {"data", "tipo_pagamento", "operadora", "plano_saude", "valor", "observacoes"},
	NamespaceProfessional:   {"nome_completo", "crm", "especialidade", "telefone", "email"},
}

var fieldIndex = buildIndex()

func buildIndex() map[Namespace]map[string]struct{} {
	idx := make(map[Namespace]map[string]struct{}, len(catalog))
	for ns, fields := range catalog {
		set := make(map[string]struct{}, len(fields))
		for _, f := range fields {
			set[f] = struct{}{}
		}
		idx[ns] = set
	}
	return idx
}

// placeholder matches any {{...}} without braces or whitespace inside.
var placeholder = regexp.MustCompile(`\{\{([^{}\s]+)\}\}`)

// Token is one recognized placeholder. Exactly one of System or
// Namespace+Field is set.
type Token struct {
	Namespace Namespace
	Field     string
	System    string
}

func (t Token) String() string {
	if t.System != "" {
		return "{{" + t.System + "}}"
	}
	return "{{" + string(t.Namespace) + "." + t.Field + "}}"
}

// ParseToken parses the text between the braces of a placeholder.
func ParseToken(inner string) (Token, bool) {
	if inner == SystemDate || inner == SystemTime {
		return Token{System: inner}, true
	}
	ns, field, ok := strings.Cut(inner, ".")
	if !ok || strings.Contains(field, ".") {
		return Token{}, false
	}
	fields, known := fieldIndex[Namespace(ns)]
	if !known {
		return Token{}, false
	}
	if _, known := fields[field]; !known {
		return Token{}, false
	}
	return Token{Namespace: Namespace(ns), Field: field}, true
}

// Fields returns the fields a namespace supports, in catalog order.
func Fields(ns Namespace) []string {
	return append([]string(nil), catalog[ns]...)
}

// Namespaces lists every namespace in a stable order.
func Namespaces() []Namespace {
	return []Namespace{
		NamespacePatient,
		NamespaceAppointment,
		NamespaceClinicalRecord,
		NamespaceIncome,
		NamespaceProfessional,
	}
}

// Tokens returns the distinct recognized tokens of body in order of first use.
func Tokens(body string) []Token {
	var out []Token
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(body, -1) {
		tok, ok := ParseToken(m[1])
		if !ok || seen[m[0]] {
			continue
		}
		seen[m[0]] = true
		out = append(out, tok)
	}
	return out
}

// UnknownTokens returns the distinct placeholders of body that the grammar
// does not recognize, in order of first use. Render leaves exactly these in
// place; values substituted into the output are never reported.
func UnknownTokens(body string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(body, -1) {
		if seen[m[0]] {
			continue
		}
		seen[m[0]] = true
		if _, ok := ParseToken(m[1]); !ok {
			out = append(out, m[0])
		}
	}
	return out
}
