package doctemplate

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

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	t, err := h.service.CreateTextTemplate(r.Context(), principal.UserID, req)
	if err != nil {
		respondServiceError(w, err, "creation_failed")
		return
	}
	respondJSON(w, http.StatusCreated, TemplateResponse{Success: true, Message: "Template created successfully", Template: t})
}

// UploadTemplate expects a multipart form with a "file" part and an
// optional "name" field.
func (h *Handler) UploadTemplate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Missing file part")
		return
	}
	defer file.Close()

	t, err := h.service.UploadFileTemplate(r.Context(), principal.UserID, Upload{
		Name:     r.FormValue("name"),
		Filename: header.Filename,
		Size:     header.Size,
	}, file)
	if err != nil {
		respondServiceError(w, err, "upload_failed")
		return
	}
	respondJSON(w, http.StatusCreated, TemplateResponse{Success: true, Message: "Template uploaded successfully", Template: t})
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	templates, err := h.service.ListTemplates(r.Context(), principal.UserID, r.URL.Query().Get("search"))
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	respondJSON(w, http.StatusOK, TemplateListResponse{Success: true, Templates: templates})
}

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	t, err := h.service.GetTemplate(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	respondJSON(w, http.StatusOK, TemplateResponse{Success: true, Template: t})
}

func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	t, err := h.service.UpdateTemplate(r.Context(), principal.UserID, mux.Vars(r)["id"], req)
	if err != nil {
		respondServiceError(w, err, "update_failed")
		return
	}
	respondJSON(w, http.StatusOK, TemplateResponse{Success: true, Message: "Template updated successfully", Template: t})
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	if err := h.service.DeleteTemplate(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err, "delete_failed")
		return
	}
	respondJSON(w, http.StatusOK, TemplateResponse{Success: true, Message: "Template deleted successfully"})
}

func (h *Handler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	u, err := h.service.DownloadURL(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err, "fetch_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "url": u})
}

func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrTemplateNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Template not found")
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNoFieldsToUpdate), errors.Is(err, ErrNotFileTemplate):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, ErrStorageDisabled):
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", err.Error())
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
