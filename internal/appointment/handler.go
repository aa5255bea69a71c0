package appointment

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/agendapp/office-service/internal/auth"
	"github.com/gorilla/mux"
)

const dayLayout = "2006-01-02"

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

type AppointmentSuccessResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Appointment *Appointment `json:"appointment,omitempty"`
}

func (h *Handler) CreateAppointments(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	resp, err := h.service.CreateAppointments(r.Context(), principal.UserID, req)
	if err != nil {
		respondServiceError(w, err, "creation_failed")
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// ListAppointments accepts either date=YYYY-MM-DD for a single day or an
// inclusive from/to range.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	q := r.URL.Query()
	f := ListFilter{PatientID: q.Get("patient_id"), Status: q.Get("status")}
	var err error
	if day := q.Get("date"); day != "" {
		if f.From, err = time.Parse(dayLayout, day); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
			return
		}
		f.To = f.From.AddDate(0, 0, 1)
	} else {
		if from := q.Get("from"); from != "" {
			if f.From, err = time.Parse(dayLayout, from); err != nil {
				respondError(w, http.StatusBadRequest, "invalid_request", "from must be YYYY-MM-DD")
				return
			}
		}
		if to := q.Get("to"); to != "" {
			t, err := time.Parse(dayLayout, to)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid_request", "to must be YYYY-MM-DD")
				return
			}
			f.To = t.AddDate(0, 0, 1)
		}
	}

	list, err := h.service.ListAppointments(r.Context(), principal.UserID, f)
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	respondJSON(w, http.StatusOK, AppointmentListResponse{Success: true, Appointments: list, Total: len(list)})
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	a, err := h.service.GetAppointment(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	respondJSON(w, http.StatusOK, AppointmentSuccessResponse{Success: true, Message: "Appointment retrieved successfully", Appointment: a})
}

func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	a, err := h.service.UpdateAppointment(r.Context(), principal.UserID, mux.Vars(r)["id"], req)
	if err != nil {
		respondServiceError(w, err, "update_failed")
		return
	}
	respondJSON(w, http.StatusOK, AppointmentSuccessResponse{Success: true, Message: "Appointment updated successfully", Appointment: a})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	a, err := h.service.UpdateStatus(r.Context(), principal.UserID, mux.Vars(r)["id"], req.Status)
	if err != nil {
		respondServiceError(w, err, "update_failed")
		return
	}
	respondJSON(w, http.StatusOK, AppointmentSuccessResponse{Success: true, Message: "Appointment status updated", Appointment: a})
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	if err := h.service.DeleteAppointment(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err, "delete_failed")
		return
	}
	respondJSON(w, http.StatusOK, AppointmentSuccessResponse{Success: true, Message: "Appointment deleted successfully"})
}

func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Appointment not found")
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
