// Package version exposes the schema-revision ledger over HTTP. The ledger is
// written by the migration tool; this surface is for operators inspecting or
// correcting it.
package version

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mqttstack/acl-store/internal/repository"
)

// APIResponse represents the standard API response format
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError represents the error detail in API response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UpdateVersionRequest represents a ledger correction
type UpdateVersionRequest struct {
	Name   string `json:"name"`
	Number int64  `json:"number"`
}

// Handler handles HTTP requests for the schema-revision ledger
type Handler struct {
	versionRepo repository.DatabaseVersionRepository
	logger      *slog.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(versionRepo repository.DatabaseVersionRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		versionRepo: versionRepo,
		logger:      logger,
	}
}

// List handles GET /api/v1/database-versions
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	versions, err := h.versionRepo.GetDatabaseVersions(r.Context())
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"versions": versions,
	})
}

// Get handles GET /api/v1/database-versions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid version ID")
		return
	}

	v, err := h.versionRepo.GetDatabaseVersionByID(r.Context(), id)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if v == nil {
		h.writeError(w, http.StatusNotFound, "VERSION_NOT_FOUND", "Database version not found")
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"version": v,
	})
}

// GetByName handles GET /api/v1/database-versions/by-name/{name}
func (h *Handler) GetByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	v, err := h.versionRepo.GetDatabaseVersionByName(r.Context(), name)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if v == nil {
		h.writeError(w, http.StatusNotFound, "VERSION_NOT_FOUND", "Database version not found")
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"version": v,
	})
}

// Update handles PUT /api/v1/database-versions/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid version ID")
		return
	}

	var req UpdateVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name is required")
		return
	}

	v := &repository.DatabaseVersion{
		ID:     id,
		Name:   req.Name,
		Number: req.Number,
	}

	updated, err := h.versionRepo.UpdateDatabaseVersion(r.Context(), v)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if !updated {
		h.writeError(w, http.StatusNotFound, "VERSION_NOT_FOUND", "Database version not found")
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"version": v,
	})
}

// Delete handles DELETE /api/v1/database-versions/{id} (soft delete)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid version ID")
		return
	}

	deleted, err := h.versionRepo.DeleteDatabaseVersion(r.Context(), id)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "VERSION_NOT_FOUND", "Database version not found")
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "Database version deleted",
	})
}

// Purge handles DELETE /api/v1/database-versions/{id}/purge (hard delete)
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid version ID")
		return
	}

	deleted, err := h.versionRepo.DeleteDatabaseVersionFromDatabase(r.Context(), id)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "VERSION_NOT_FOUND", "Database version not found")
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "Database version removed from database",
	})
}

func (h *Handler) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	json.NewEncoder(w).Encode(response)
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	}

	json.NewEncoder(w).Encode(response)
}
