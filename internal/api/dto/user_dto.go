package dto

import (
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/service"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest starts the reset flow.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest completes the reset flow.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload for the self-service password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r ChangePasswordRequest) ToInput() service.ChangePasswordInput {
	return service.ChangePasswordInput{
		CurrentPassword: r.CurrentPassword,
		NewPassword:     r.NewPassword,
		ConfirmPassword: r.ConfirmPassword,
	}
}

// PreferencesRequest updates per-user UI preferences.
type PreferencesRequest struct {
	SkipLeadWarning bool `json:"skipLeadWarning"`
}

// UserCreateRequest payload for admin user creation.
type UserCreateRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
	Image    *string     `json:"image"`
}

func (r UserCreateRequest) ToInput() service.UserCreateInput {
	return service.UserCreateInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Role:     r.Role,
		Image:    r.Image,
	}
}

// UserUpdateRequest carries optional user fields.
type UserUpdateRequest struct {
	Name     *string      `json:"name"`
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	Role     *domain.Role `json:"role"`
	Image    *string      `json:"image"`
}

func (r UserUpdateRequest) ToInput() service.UserUpdateInput {
	return service.UserUpdateInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Role:     r.Role,
		Image:    r.Image,
	}
}

// RoleChangeRequest payload for PATCH /users/:id/role.
type RoleChangeRequest struct {
	Role domain.Role `json:"role"`
}
