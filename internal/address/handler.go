package address

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agendapp/office-service/internal/auth"
	"github.com/agendapp/office-service/internal/patient"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handler struct {
	lookup Lookup
	logger *zap.Logger
}

func NewHandler(lookup Lookup, logger *zap.Logger) *Handler {
	return &Handler{lookup: lookup, logger: logger}
}

type AddressResponse struct {
	Success bool             `json:"success"`
	Address *patient.Address `json:"address"`
}

// LookupPostalCode handles GET /addresses/{cep}, used to prefill the patient
// address form.
func (h *Handler) LookupPostalCode(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	addr, err := h.lookup.Lookup(r.Context(), mux.Vars(r)["cep"])
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, AddressResponse{Success: true, Address: addr})
	case errors.Is(err, ErrInvalidPostalCode):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, ErrPostalCodeNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Postal code not found")
	case errors.Is(err, ErrLookupUnavailable):
		h.logger.Warn("postal code lookup failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "lookup_failed", "Postal code service unavailable")
	default:
		respondError(w, http.StatusInternalServerError, "lookup_failed", err.Error())
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
