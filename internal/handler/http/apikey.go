package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/service"
	"github.com/vyxlo/platform/pkg/httputil"
	"github.com/vyxlo/platform/pkg/validator"
)

// APIKeyHandler handles HTTP requests for organization API keys.
type APIKeyHandler struct {
	service *service.APIKeyService
	logger  *slog.Logger
}

// NewAPIKeyHandler creates a new API key HTTP handler.
func NewAPIKeyHandler(svc *service.APIKeyService, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{service: svc, logger: logger}
}

// CreateAPIKeyRequest is the JSON request body for creating a key. Omitted
// scopes default to usage:write.
type CreateAPIKeyRequest struct {
	Name   string   `json:"name" validate:"required,min=1,max=100"`
	Scopes []string `json:"scopes" validate:"omitempty,dive,oneof=usage:write"`
}

// CreateAPIKeyResponse returns the new key with its one-time secret.
type CreateAPIKeyResponse struct {
	APIKey *domain.APIKey `json:"apiKey"`
	Secret string         `json:"secret"`
}

// List handles GET /api/v1/organizations/{orgID}/api-keys
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orgID"))
	if !ok {
		return
	}

	keys, err := h.service.List(r.Context(), currentUser(r), orgID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, keys)
}

// Create handles POST /api/v1/organizations/{orgID}/api-keys
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orgID"))
	if !ok {
		return
	}

	var req CreateAPIKeyRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), currentUser(r), service.CreateAPIKeyInput{
		OrganizationID: orgID.String(),
		Name:           req.Name,
		Scopes:         req.Scopes,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, CreateAPIKeyResponse{APIKey: created.Key, Secret: created.Secret})
}

// Revoke handles DELETE /api/v1/organizations/{orgID}/api-keys/{keyID}
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orgID"))
	if !ok {
		return
	}
	keyID := chi.URLParam(r, "keyID")

	if err := h.service.Revoke(r.Context(), currentUser(r), orgID.String(), keyID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, MessageResponse{Message: "API key revoked"})
}

// CurrentOrganization handles GET /api/v1/organizations/current
func (h *APIKeyHandler) CurrentOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.CurrentOrganization(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, org)
}
