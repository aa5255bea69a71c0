package document

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agendapp/office-service/internal/appointment"
	"github.com/agendapp/office-service/internal/auth"
	"github.com/agendapp/office-service/internal/clinicalrecord"
	"github.com/agendapp/office-service/internal/doctemplate"
	"github.com/agendapp/office-service/internal/finance"
	"github.com/agendapp/office-service/internal/patient"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// Render handles POST /documents/render. The response lists placeholders
// left in the output so the caller can warn about typos.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	result, err := h.service.Render(r.Context(), principal.UserID, principal.Email, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, RenderResponse{Success: true, RenderResult: *result})
}

func (h *Handler) Simple(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req SimpleDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	doc, err := h.service.Simple(r.Context(), principal.UserID, principal.Email, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, SimpleDocumentResponse{Success: true, SimpleDocument: *doc})
}

// History handles GET /documents/history with an optional patient_id filter.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	entries, err := h.service.ListHistory(r.Context(), principal.UserID, r.URL.Query().Get("patient_id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, HistoryListResponse{Success: true, Entries: entries, Total: len(entries)})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, doctemplate.ErrTemplateNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Template not found")
	case errors.Is(err, patient.ErrPatientNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Patient not found")
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Appointment not found")
	case errors.Is(err, clinicalrecord.ErrRecordNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Clinical record not found")
	case errors.Is(err, finance.ErrIncomeNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Income not found")
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrTemplateNotRenderable):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "render_failed", err.Error())
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
