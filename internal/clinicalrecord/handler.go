package clinicalrecord

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agendapp/office-service/internal/auth"
	"github.com/gorilla/mux"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	rec, err := h.service.CreateRecord(r.Context(), principal.UserID, req)
	if err != nil {
		respondServiceError(w, err, "creation_failed")
		return
	}
	respondJSON(w, http.StatusCreated, RecordSuccessResponse{Success: true, Message: "Clinical record created successfully", Record: rec})
}

// ListRecords serves both /clinical-records?patient_id= and
// /patients/{id}/clinical-records.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	patientID := mux.Vars(r)["patientId"]
	if patientID == "" {
		patientID = r.URL.Query().Get("patient_id")
	}

	records, err := h.service.ListRecords(r.Context(), principal.UserID, patientID)
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	respondJSON(w, http.StatusOK, RecordListResponse{Success: true, Records: records, Total: len(records)})
}

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	rec, err := h.service.GetRecord(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	respondJSON(w, http.StatusOK, RecordSuccessResponse{Success: true, Message: "Clinical record retrieved successfully", Record: rec})
}

func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	rec, err := h.service.UpdateRecord(r.Context(), principal.UserID, mux.Vars(r)["id"], req)
	if err != nil {
		respondServiceError(w, err, "update_failed")
		return
	}
	respondJSON(w, http.StatusOK, RecordSuccessResponse{Success: true, Message: "Clinical record updated successfully", Record: rec})
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	if err := h.service.DeleteRecord(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err, "delete_failed")
		return
	}
	respondJSON(w, http.StatusOK, RecordSuccessResponse{Success: true, Message: "Clinical record deleted successfully"})
}

func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrRecordNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Clinical record not found")
	case errors.Is(err, ErrPatientNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Patient not found")
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNoFieldsToUpdate):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, fallback, err.Error())
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
