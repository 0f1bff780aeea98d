package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/events"
	"github.com/spec-kit/agency-admin/internal/repository"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const usersPath = "/admin/settings/users"

// UserService manages operator accounts.
type UserService struct {
	users      repository.UserRepository
	audit      *AuditService
	effects    SideEffects
	cache      CacheInvalidator
	logger     *zap.Logger
	bcryptCost int
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Audit      *AuditService
	Effects    SideEffects
	Cache      CacheInvalidator
	Logger     *zap.Logger
	BcryptCost int
}

// UserCreateInput is the payload for creating a user.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	Image    *string
}

// UserUpdateInput carries the fields to change; nil means unchanged.
type UserUpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
	Image    *string
}

// UserListInput filters the user listing.
type UserListInput struct {
	Role   *domain.Role
	Search string
	Page   int
	Limit  int
}

// ChangePasswordInput is the self-service password change payload.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	cache := deps.Cache
	if cache == nil {
		cache = noopCache{}
	}
	return &UserService{
		users:      deps.UserRepo,
		audit:      deps.Audit,
		effects:    deps.Effects,
		cache:      cache,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
	}
}

func userWebhookData(u *domain.User) map[string]any {
	return map[string]any{
		"userId": u.ID,
		"name":   u.Name,
		"email":  u.Email,
		"role":   string(u.Role),
	}
}

func selfActionError(message string) error {
	return apperrors.NewDomainError(apperrors.CodeForbidden, message, http.StatusForbidden, map[string]any{"reason": "self_action"})
}

// Create adds a new account. ADMIN only.
func (s *UserService) Create(ctx context.Context, session domain.Session, input UserCreateInput) (*domain.User, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	var v validator
	if v.required("name", input.Name) {
		v.length("name", input.Name, 3, 100)
	}
	v.email("email", input.Email)
	v.password("password", input.Password)
	if !input.Role.Valid() {
		v.add("role", "is invalid")
	}
	if input.Image != nil {
		v.url("image", *input.Image)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := s.ensureEmailAvailable(ctx, input.Email, ""); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		Image:        optional(input.Image),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already in use", map[string]any{"email": user.Email})
		}
		return nil, storeError(s.logger, "create", "user", err)
	}

	s.cache.MarkStale(ctx, usersPath)
	s.audit.Track(ctx, session, domain.AuditActionCreate, domain.AuditResourceUser, user.ID,
		fmt.Sprintf("Criado usuário %s (%s) com role %s", user.Name, user.Email, user.Role))

	s.effects.Email(ctx, events.EmailWelcome, user.Email, map[string]string{"name": user.Name, "email": user.Email})
	s.effects.Webhook(ctx, domain.WebhookUserCreated, userWebhookData(user))
	s.effects.Notify(ctx, WelcomeNotice(user))
	return user, nil
}

// Update changes profile fields. ADMIN may edit anyone; other users only themselves,
// and only ADMIN may change a role (never their own).
func (s *UserService) Update(ctx context.Context, session domain.Session, id string, input UserUpdateInput) (*domain.User, error) {
	actor, err := requireActor(session)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != id {
		return nil, apperrors.NewNotAuthorized()
	}
	if !actor.IsAdmin() {
		input.Role = nil
	}

	var v validator
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
		if v.required("name", name) {
			v.length("name", name, 3, 100)
		}
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		input.Email = &email
		v.email("email", email)
	}
	if input.Password != nil {
		v.password("password", *input.Password)
	}
	if input.Role != nil && !input.Role.Valid() {
		v.add("role", "is invalid")
	}
	if input.Image != nil {
		v.url("image", *input.Image)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "user", err)
	}
	if input.Role != nil && *input.Role != user.Role && actor.ID == id {
		return nil, selfActionError("you cannot change your own role")
	}

	var changed []string
	if input.Name != nil && *input.Name != user.Name {
		user.Name = *input.Name
		changed = append(changed, "name")
	}
	if input.Email != nil && *input.Email != user.Email {
		if err := s.ensureEmailAvailable(ctx, *input.Email, user.ID); err != nil {
			return nil, err
		}
		user.Email = *input.Email
		changed = append(changed, "email")
	}
	if input.Role != nil && *input.Role != user.Role {
		user.Role = *input.Role
		changed = append(changed, "role")
	}
	if input.Image != nil {
		user.Image = optional(input.Image)
		changed = append(changed, "image")
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
		changed = append(changed, "senha")
	}

	if err := s.users.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already in use", map[string]any{"email": user.Email})
		}
		return nil, storeError(s.logger, "update", "user", err)
	}

	s.cache.MarkStale(ctx, usersPath)
	s.audit.Track(ctx, session, domain.AuditActionUpdate, domain.AuditResourceUser, user.ID,
		fmt.Sprintf("Atualizado usuário %s: %s", user.Name, strings.Join(changed, ", ")))
	s.effects.Webhook(ctx, domain.WebhookUserUpdated, userWebhookData(user))
	return user, nil
}

// Delete removes an account. ADMIN only and never the actor's own account.
func (s *UserService) Delete(ctx context.Context, session domain.Session, id string) error {
	actor, err := requireAdmin(session)
	if err != nil {
		return err
	}
	if actor.ID == id {
		return selfActionError("you cannot delete your own account")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return storeError(s.logger, "load", "user", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return storeError(s.logger, "delete", "user", err)
	}

	s.cache.MarkStale(ctx, usersPath)
	s.audit.Track(ctx, session, domain.AuditActionDelete, domain.AuditResourceUser, id,
		fmt.Sprintf("Deletado usuário %s (%s)", user.Name, user.Email))
	s.effects.Webhook(ctx, domain.WebhookUserDeleted, map[string]any{"userId": id, "email": user.Email})
	return nil
}

// ChangeRole assigns a new role to another user. ADMIN only.
func (s *UserService) ChangeRole(ctx context.Context, session domain.Session, id string, role domain.Role) (*domain.User, error) {
	actor, err := requireAdmin(session)
	if err != nil {
		return nil, err
	}
	if actor.ID == id {
		return nil, selfActionError("you cannot change your own role")
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid payload",
			map[string]any{"fields": map[string]any{"role": "is invalid"}})
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "user", err)
	}
	previous := user.Role
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError(s.logger, "update", "user", err)
	}

	s.cache.MarkStale(ctx, usersPath)
	s.audit.Track(ctx, session, domain.AuditActionRoleChange, domain.AuditResourceUser, user.ID,
		fmt.Sprintf("Alterado role de %s: %s → %s", user.Name, previous, role))
	s.effects.Email(ctx, events.EmailRoleChanged, user.Email, map[string]string{
		"name":    user.Name,
		"oldRole": string(previous),
		"newRole": string(role),
	})
	return user, nil
}

// ChangePassword lets the actor replace their own password.
func (s *UserService) ChangePassword(ctx context.Context, session domain.Session, input ChangePasswordInput) error {
	actor, err := requireActor(session)
	if err != nil {
		return err
	}

	var v validator
	v.required("currentPassword", input.CurrentPassword)
	v.password("newPassword", input.NewPassword)
	if input.NewPassword != input.ConfirmPassword {
		v.add("confirmPassword", "passwords do not match")
	}
	if err := v.err(); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return storeError(s.logger, "load", "user", err)
	}
	if auth.ComparePassword(user.PasswordHash, input.CurrentPassword) != nil {
		return apperrors.NewValidationError("current password is incorrect",
			map[string]any{"fields": map[string]any{"currentPassword": "is incorrect"}})
	}

	hash, err := auth.HashPassword(input.NewPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return storeError(s.logger, "update", "user", err)
	}

	s.audit.Track(ctx, session, domain.AuditActionPasswordChange, domain.AuditResourceUser, user.ID,
		"Senha alterada pelo próprio usuário")
	s.effects.Email(ctx, events.EmailPasswordChanged, user.Email, map[string]string{"name": user.Name})
	return nil
}

// Get returns one user. Non-admins may only read themselves.
func (s *UserService) Get(ctx context.Context, session domain.Session, id string) (*domain.User, error) {
	actor, err := requireActor(session)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != id {
		return nil, apperrors.NewNotAuthorized()
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "user", err)
	}
	return user, nil
}

// List pages through users. ADMIN only.
func (s *UserService) List(ctx context.Context, session domain.Session, input UserListInput) (*domain.Page[domain.User], error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	page, limit := normalizePage(input.Page, input.Limit, defaultPageSize)

	items, total, err := s.users.List(ctx, repository.UserFilter{
		Role:   input.Role,
		Search: strings.TrimSpace(input.Search),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, storeError(s.logger, "list", "users", err)
	}
	return newPage(items, page, limit, total), nil
}

// UpdatePreferences stores the actor's own UI preferences.
func (s *UserService) UpdatePreferences(ctx context.Context, session domain.Session, skipLeadWarning bool) error {
	actor, err := requireActor(session)
	if err != nil {
		return err
	}
	if err := s.users.SetSkipLeadWarning(ctx, actor.ID, skipLeadWarning); err != nil {
		return storeError(s.logger, "update", "user preferences", err)
	}
	return nil
}

func (s *UserService) ensureEmailAvailable(ctx context.Context, email, exceptID string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != exceptID:
		return apperrors.NewConflict("email already in use", map[string]any{"email": email})
	case err != nil && !apperrors.IsNotFound(err):
		return storeError(s.logger, "load", "user", err)
	}
	return nil
}
