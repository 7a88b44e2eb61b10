package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/service"
	"github.com/vyxlo/platform/pkg/httputil"
	"github.com/vyxlo/platform/pkg/middleware"
	"github.com/vyxlo/platform/pkg/validator"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	cookie  CookieConfig
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, cookie: cookie, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=100"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	OrgName  string `json:"orgName" validate:"required,min=1,max=100"`
}

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- Response types ---

// AccessTokenResponse describes an issued access token.
type AccessTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RegisterResponse is returned once per account. APIKeySecret is never
// shown again.
type RegisterResponse struct {
	User         *domain.User         `json:"user"`
	Organization *domain.Organization `json:"organization"`
	APIKeySecret string               `json:"apiKeySecret"`
	SessionID    string               `json:"sessionId"`
	AccessToken  AccessTokenResponse  `json:"accessToken"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	User        *domain.User        `json:"user"`
	AccessToken AccessTokenResponse `json:"accessToken"`
	SessionID   string              `json:"sessionId"`
}

// RefreshResponse carries a fresh access token.
type RefreshResponse struct {
	AccessToken AccessTokenResponse `json:"accessToken"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		OrgName:   req.OrgName,
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setSessionCookie(w, h.cookie, res.AccessToken.Token)
	httputil.WriteSuccess(w, http.StatusCreated, RegisterResponse{
		User:         res.User,
		Organization: res.Organization,
		APIKeySecret: res.APIKeySecret,
		SessionID:    res.Session.ID,
		AccessToken:  AccessTokenResponse(res.AccessToken),
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.Login(r.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setSessionCookie(w, h.cookie, res.AccessToken.Token)
	httputil.WriteSuccess(w, http.StatusOK, LoginResponse{
		User:        res.User,
		AccessToken: AccessTokenResponse(res.AccessToken),
		SessionID:   res.Session.ID,
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), currentUser(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	clearSessionCookie(w, h.cookie)
	httputil.WriteSuccess(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.Refresh(r.Context(), currentUser(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setSessionCookie(w, h.cookie, token.Token)
	httputil.WriteSuccess(w, http.StatusOK, RefreshResponse{AccessToken: AccessTokenResponse(token)})
}

// GetSession handles GET /api/v1/auth/sessions/{sessionID}
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}

	session, err := h.service.GetSession(r.Context(), currentUser(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, session)
}
