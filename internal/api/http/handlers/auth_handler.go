package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-admin/internal/api/dto"
	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/service"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

// AuthHandler exposes login, password and self-service endpoints.
type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, users *service.UserService) *AuthHandler {
	return &AuthHandler{auth: authService, users: users}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.auth.Login(c.UserContext(), auth.SessionFromContext(c), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), auth.SessionFromContext(c)); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"message": "logged out"})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session := auth.SessionFromContext(c)
	if !session.Authenticated() {
		return apperrors.NewUnauthenticated()
	}
	user, err := h.users.Get(c.UserContext(), session, session.Actor.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// RequestPasswordReset handles POST /auth/password/reset/request. The response
// does not reveal whether the email exists.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return respond(c, http.StatusAccepted, fiber.Map{"message": "if the account exists, a reset link was sent"})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Token == "" || req.Password == "" {
		return apperrors.NewValidationError("token and password required", nil)
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), auth.SessionFromContext(c), req.Token, req.Password); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"message": "password updated"})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.users.ChangePassword(c.UserContext(), auth.SessionFromContext(c), req.ToInput()); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"message": "password updated"})
}

// UpdatePreferences handles PUT /me/preferences.
func (h *AuthHandler) UpdatePreferences(c *fiber.Ctx) error {
	var req dto.PreferencesRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.users.UpdatePreferences(c.UserContext(), auth.SessionFromContext(c), req.SkipLeadWarning); err != nil {
		return err
	}
	return respond(c, http.StatusOK, req)
}
