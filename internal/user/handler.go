package user

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
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
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

var validate = validator.New()

// Handler handles HTTP requests for broker-user management endpoints
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// List handles GET /api/v1/users
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

// Get handles GET /api/v1/users/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"user": u,
	})
}

// Create handles POST /api/v1/users
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body", nil)
		return
	}

	if details, ok := h.validateRequest(req); !ok {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Validation failed", details)
		return
	}

	u, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusCreated, map[string]interface{}{
		"user": u,
	})
}

// Update handles PUT /api/v1/users/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body", nil)
		return
	}

	if details, ok := h.validateRequest(req); !ok {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Validation failed", details)
		return
	}

	u, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"user": u,
	})
}

// ResetPassword handles POST /api/v1/users/{id}/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body", nil)
		return
	}

	if details, ok := h.validateRequest(req); !ok {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Validation failed", details)
		return
	}

	if err := h.service.ResetPassword(r.Context(), id, req); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "Password reset",
	})
}

// Delete handles DELETE /api/v1/users/{id} (soft delete)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "User deleted",
	})
}

// Purge handles DELETE /api/v1/users/{id}/purge (hard delete)
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Purge(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "User removed from database",
	})
}

// ListEntries handles GET /api/v1/users/{id}/{kind}?type=publish|subscribe
// where kind is "blacklist" or "whitelist".
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	kind := repository.ListKind(chi.URLParam(r, "kind"))
	if kind != repository.ListKindBlacklist && kind != repository.ListKindWhitelist {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "kind must be blacklist or whitelist", nil)
		return
	}

	accessType := repository.AccessType(r.URL.Query().Get("type"))
	if accessType != repository.AccessTypePublish && accessType != repository.AccessTypeSubscribe {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "type must be publish or subscribe", nil)
		return
	}

	entries, err := h.service.ListEntries(r.Context(), id, kind, accessType)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

// CreateEntry handles POST /api/v1/users/{id}/entries
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body", nil)
		return
	}

	if details, ok := h.validateRequest(req); !ok {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Validation failed", details)
		return
	}

	entry, err := h.service.AddEntry(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusCreated, map[string]interface{}{
		"entry": entry,
	})
}

// DeleteEntry handles DELETE /api/v1/users/entries/{entryId} (soft delete)
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "entryId"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid entry ID", nil)
		return
	}

	if err := h.service.RemoveEntry(r.Context(), entryID); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "Entry deleted",
	})
}

// PurgeEntry handles DELETE /api/v1/users/entries/{entryId}/purge (hard delete)
func (h *Handler) PurgeEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "entryId"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid entry ID", nil)
		return
	}

	if err := h.service.PurgeEntry(r.Context(), entryID); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "Entry removed from database",
	})
}

// ClientIDPrefixes handles GET /api/v1/users/client-id-prefixes
func (h *Handler) ClientIDPrefixes(w http.ResponseWriter, r *http.Request) {
	prefixes, err := h.service.ClientIDPrefixes(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"prefixes": prefixes,
	})
}

// parseID extracts and parses the {id} route parameter
func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid user ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// validateRequest runs struct-tag validation and maps failures to field details
func (h *Handler) validateRequest(req interface{}) (map[string][]string, bool) {
	err := validate.Struct(req)
	if err == nil {
		return nil, true
	}

	details := make(map[string][]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			field := fieldErr.Field()
			details[field] = append(details[field], "failed on rule: "+fieldErr.Tag())
		}
	}

	return details, false
}

// handleError maps service errors to HTTP responses
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, CodeUserNotFound, "User not found", nil)
	case errors.Is(err, ErrEntryNotFound):
		h.writeError(w, http.StatusNotFound, CodeEntryNotFound, "Access-control entry not found", nil)
	case errors.Is(err, ErrUserNameTaken):
		h.writeError(w, http.StatusConflict, CodeUserNameTaken, "User name already taken", nil)
	default:
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
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
func (h *Handler) writeError(w http.ResponseWriter, statusCode int, code, message string, details map[string][]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now().UTC(),
	}

	json.NewEncoder(w).Encode(response)
}
