package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/transport/http/middleware"
	"github.com/mkmahmud/meditech-backend/internal/usecase"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth         *usecase.Authenticator
	tokens       *usecase.TokenService
	registration *usecase.RegistrationService
	audit        *usecase.AuditRecorder
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.Authenticator, tokens *usecase.TokenService, registration *usecase.RegistrationService, audit *usecase.AuditRecorder) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		tokens:       tokens,
		registration: registration,
		audit:        audit,
	}
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/refresh", h.refresh)
	r.POST("/logout", middleware.RequireAuth(h.tokens), h.logout)
	r.POST("/accounts/:id/activate",
		middleware.RequireAuth(h.tokens),
		middleware.RequireRole(string(domain.RoleAdmin), string(domain.RoleSuperAdmin)),
		h.activate,
	)
}

// Register godoc
// @Summary Register a new account
// @Description Creates a credential with the supplied email, password, and role.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RegistrationRequest true "Registration request payload"
// @Success 201 {object} RegistrationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) register(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	role := domain.Role(strings.ToUpper(strings.TrimSpace(req.Role)))

	cred, err := h.registration.Register(c.Request.Context(), usecase.RegistrationInput{
		Email:     req.Email,
		Password:  req.Password,
		Role:      role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Specialty: req.Specialty,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailTaken):
			c.JSON(http.StatusConflict, NewErrorResponse(c, "email already registered"))
		case errors.Is(err, usecase.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role"))
		case errors.Is(err, usecase.ErrPasswordPolicyViolation):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "password does not meet requirements"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to register account"))
		}
		return
	}

	c.JSON(http.StatusCreated, RegistrationResponse{
		User: AccountSummary{
			ID:     cred.ID,
			Email:  cred.Email,
			Role:   cred.Role,
			Status: cred.Status,
		},
		Message: "verification required",
	})
}

// Login godoc
// @Summary Authenticate an account
// @Description Verifies credentials and issues an access/refresh token pair.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body AuthLoginRequest true "Login request payload"
// @Success 200 {object} AuthLoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 423 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	var req AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	meta := requestMeta(c)
	result, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.audit.LogLogin(nil, false, err.Error(), meta)

		var locked *usecase.LockedError
		switch {
		case errors.As(err, &locked):
			c.JSON(http.StatusLocked, NewErrorResponse(c,
				fmt.Sprintf("account locked, try again in %d minutes", locked.RemainingMinutes)))
		case errors.Is(err, usecase.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid email or password"))
		case errors.Is(err, usecase.ErrAccountSuspended):
			c.JSON(http.StatusForbidden, NewErrorResponse(c, "account suspended"))
		case errors.Is(err, usecase.ErrAccountInactive):
			c.JSON(http.StatusForbidden, NewErrorResponse(c, "account inactive"))
		case errors.Is(err, usecase.ErrAccountPending):
			c.JSON(http.StatusForbidden, NewErrorResponse(c, "account pending verification"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "authentication failed"))
		}
		return
	}

	h.audit.LogLogin(&result.Principal.CredentialID, true, "", meta)

	c.JSON(http.StatusOK, AuthLoginResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn(result.Tokens),
		User:         newAccountSummary(result.Principal),
	})
}

// Refresh godoc
// @Summary Rotate a refresh token
// @Description Exchanges a live refresh token for a new access/refresh pair.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body TokenRefreshRequest true "Refresh request payload"
// @Success 200 {object} TokenRefreshResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) refresh(c *gin.Context) {
	var req TokenRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid refresh payload"))
		return
	}

	pair, err := h.tokens.Rotate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidOrExpiredToken) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid or expired refresh token"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to refresh tokens"))
		return
	}

	c.JSON(http.StatusOK, TokenRefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn(pair),
	})
}

// Logout godoc
// @Summary Terminate a session
// @Description Revokes all refresh tokens for the caller and denylists the identity.
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	credentialID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.tokens.Revoke(c.Request.Context(), credentialID); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to revoke tokens"))
		return
	}

	h.audit.LogLogout(credentialID, requestMeta(c))

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// Activate godoc
// @Summary Activate a pending account
// @Description Moves a PENDING_VERIFICATION credential to ACTIVE. Requires an administrator role.
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Param id path string true "Credential ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/auth/accounts/{id}/activate [post]
func (h *AuthHandler) activate(c *gin.Context) {
	if err := h.registration.Activate(c.Request.Context(), c.Param("id")); err != nil {
		switch {
		case errors.Is(err, usecase.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "account not found"))
		case errors.Is(err, usecase.ErrAccountNotPending):
			c.JSON(http.StatusConflict, NewErrorResponse(c, "account is not pending verification"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to activate account"))
		}
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account activated"})
}

func requestMeta(c *gin.Context) usecase.RequestMeta {
	return usecase.RequestMeta{
		IPAddress: c.ClientIP(),
		Endpoint:  c.Request.URL.Path,
		Method:    c.Request.Method,
	}
}

func expiresIn(pair domain.TokenPair) int {
	remaining := int(time.Until(pair.AccessExpiresAt).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
