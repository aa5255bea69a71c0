package evolution

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

func (h *Handler) CreateEvolution(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req CreateEvolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	e, err := h.service.CreateEvolution(r.Context(), principal.UserID, req)
	if err != nil {
		respondServiceError(w, err, "creation_failed")
		return
	}
	respondJSON(w, http.StatusCreated, EvolutionSuccessResponse{Success: true, Message: "Evolution created successfully", Evolution: e})
}

// ListEvolutions serves /evolutions?patient_id=&from=&to=&search= and
// /patients/{patientId}/evolutions.
func (h *Handler) ListEvolutions(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	q := r.URL.Query()
	f := ListFilter{
		PatientID: mux.Vars(r)["patientId"],
		From:      q.Get("from"),
		To:        q.Get("to"),
		Search:    q.Get("search"),
	}
	if f.PatientID == "" {
		f.PatientID = q.Get("patient_id")
	}

	evolutions, err := h.service.ListEvolutions(r.Context(), principal.UserID, f)
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	respondJSON(w, http.StatusOK, EvolutionListResponse{Success: true, Evolutions: evolutions, Total: len(evolutions)})
}

func (h *Handler) GetEvolution(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	e, err := h.service.GetEvolution(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	respondJSON(w, http.StatusOK, EvolutionSuccessResponse{Success: true, Message: "Evolution retrieved successfully", Evolution: e})
}

func (h *Handler) UpdateEvolution(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req UpdateEvolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	e, err := h.service.UpdateEvolution(r.Context(), principal.UserID, mux.Vars(r)["id"], req)
	if err != nil {
		respondServiceError(w, err, "update_failed")
		return
	}
	respondJSON(w, http.StatusOK, EvolutionSuccessResponse{Success: true, Message: "Evolution updated successfully", Evolution: e})
}

func (h *Handler) DeleteEvolution(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	if err := h.service.DeleteEvolution(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err, "delete_failed")
		return
	}
	respondJSON(w, http.StatusOK, EvolutionSuccessResponse{Success: true, Message: "Evolution deleted successfully"})
}

func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrEvolutionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Evolution not found")
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
