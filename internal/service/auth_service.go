package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/config"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/events"
	"github.com/spec-kit/agency-admin/internal/repository"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const resetTokenSize = 32

// AuthService coordinates login, logout and password reset flows.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	audit      *AuditService
	effects    SideEffects
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	resetURL   string
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Audit             *AuditService
	Effects           SideEffects
	Logger            *zap.Logger
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	ttl := time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   auth.NewTokenManager(cfg.App.Name, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		audit:      deps.Audit,
		effects:    deps.Effects,
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   ttl,
		resetURL:   cfg.App.PublicBaseURL + "/admin/reset-password?token=",
		now:        time.Now,
	}
}

// Login checks credentials and issues a bearer token.
// Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, session domain.Session, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, storeError(s.logger, "load", "user", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	session.Actor = user.Actor()
	s.audit.Track(ctx, session, domain.AuditActionLogin, domain.AuditResourceUser, user.ID, "Login realizado")
	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// Logout records the end of a session. Tokens are stateless and expire on their own.
func (s *AuthService) Logout(ctx context.Context, session domain.Session) error {
	actor, err := requireActor(session)
	if err != nil {
		return err
	}
	s.audit.Track(ctx, session, domain.AuditActionLogout, domain.AuditResourceUser, actor.ID, "Logout realizado")
	return nil
}

// Authenticate resolves a bearer token to the current actor. The role is read
// from the store so a role change applies to tokens already issued.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Actor, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid token")
		}
		return nil, storeError(s.logger, "load", "user", err)
	}
	return user.Actor(), nil
}

// RequestPasswordReset mails a single-use reset link. It succeeds for unknown
// emails too so callers cannot test which accounts exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return storeError(s.logger, "load", "user", err)
	}

	plain, err := auth.RandomHex(resetTokenSize)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: auth.HashSecret(plain),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return storeError(s.logger, "create", "password reset", err)
	}

	s.effects.Email(ctx, events.EmailPasswordReset, user.Email, map[string]string{
		"name":      user.Name,
		"resetUrl":  s.resetURL + plain,
		"expiresIn": strconv.Itoa(int(s.resetTTL.Minutes())),
	})
	return nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, session domain.Session, plain, newPassword string) error {
	var v validator
	v.required("token", plain)
	v.password("password", newPassword)
	if err := v.err(); err != nil {
		return err
	}

	invalid := apperrors.NewValidationError("invalid or expired token",
		map[string]any{"fields": map[string]any{"token": "is invalid or expired"}})

	token, err := s.resets.GetByHash(ctx, auth.HashSecret(plain))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return invalid
		}
		return storeError(s.logger, "load", "password reset", err)
	}
	if token.UsedAt != nil || !s.now().Before(token.ExpiresAt) {
		return invalid
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return storeError(s.logger, "load", "user", err)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		if apperrors.IsNotFound(err) {
			return invalid
		}
		return storeError(s.logger, "update", "password reset", err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return storeError(s.logger, "update", "user", err)
	}

	session.Actor = user.Actor()
	s.audit.Track(ctx, session, domain.AuditActionPasswordChange, domain.AuditResourceUser, user.ID,
		"Senha redefinida via link de recuperação")
	s.effects.Email(ctx, events.EmailPasswordChanged, user.Email, map[string]string{"name": user.Name})
	return nil
}
