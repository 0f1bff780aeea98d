package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/config"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/events"
)

type authFixture struct {
	svc     *AuthService
	users   *fakeUserRepo
	resets  *fakeResetRepo
	audit   *fakeAuditRepo
	effects *recordingEffects
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	hash, err := auth.HashPassword("Segura123", bcrypt.MinCost)
	require.NoError(t, err)

	f := authFixture{
		users: newFakeUserRepo(&domain.User{
			ID: "editor-1", Name: "Editor", Email: "editor@example.com", PasswordHash: hash, Role: domain.RoleEditor,
		}),
		resets:  newFakeResetRepo(),
		audit:   &fakeAuditRepo{},
		effects: &recordingEffects{},
	}
	var cfg config.Config
	cfg.App.PublicBaseURL = "https://andorinha.test"
	cfg.Auth = config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15, BcryptCost: bcrypt.MinCost}

	f.svc = NewAuthService(cfg, AuthDependencies{
		UserRepo:          f.users,
		PasswordResetRepo: f.resets,
		Audit:             newTestAudit(f.audit),
		Effects:           f.effects,
		Logger:            zap.NewNop(),
	})
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func TestAuthLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	session := domain.Session{IPAddress: "192.168.0.9", UserAgent: "Mozilla"}

	result, err := f.svc.Login(ctx, session, " Editor@Example.com ", "Segura123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "editor-1", result.User.ID)

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, domain.AuditActionLogin, entry.Action)
	assert.Equal(t, "editor-1", entry.UserID)
	assert.Equal(t, "192.168.0.9", entry.IPAddress)

	actor, err := f.svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEditor, actor.Role)
}

func TestAuthLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, errEmail := f.svc.Login(ctx, domain.Session{}, "ghost@example.com", "Segura123")
	_, errPassword := f.svc.Login(ctx, domain.Session{}, "editor@example.com", "Errada123")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, errEmail))
	assert.Equal(t, errEmail.Error(), errPassword.Error())
	assert.Empty(t, f.audit.entries)
}

func TestAuthAuthenticate_ReflectsCurrentRole(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	result, err := f.svc.Login(ctx, domain.Session{}, "editor@example.com", "Segura123")
	require.NoError(t, err)

	f.users.items["editor-1"].Role = domain.RoleUser
	actor, err := f.svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, actor.Role)

	delete(f.users.items, "editor-1")
	_, err = f.svc.Authenticate(ctx, result.Token)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}

func TestAuthLogout(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.Logout(context.Background(), editorSession()))
	assert.Equal(t, []domain.AuditAction{domain.AuditActionLogout}, f.audit.actions())
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, f.svc.Logout(context.Background(), domain.Session{})))
}

func resetTokenFrom(t *testing.T, f authFixture) string {
	t.Helper()
	require.NotEmpty(t, f.effects.emails)
	email := f.effects.emails[len(f.effects.emails)-1]
	require.Equal(t, events.EmailPasswordReset, email.Kind)
	url := email.Vars["resetUrl"]
	require.True(t, strings.HasPrefix(url, "https://andorinha.test/admin/reset-password?token="))
	return strings.TrimPrefix(url, "https://andorinha.test/admin/reset-password?token=")
}

func TestAuthPasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "editor@example.com"))
	plain := resetTokenFrom(t, f)
	assert.Equal(t, "30", f.effects.emails[0].Vars["expiresIn"])
	for _, stored := range f.resets.tokens {
		assert.NotEqual(t, plain, stored.TokenHash)
	}

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, domain.Session{}, plain, "NovaSenha9"))
	assert.NoError(t, auth.ComparePassword(f.users.items["editor-1"].PasswordHash, "NovaSenha9"))
	assert.Equal(t, []domain.AuditAction{domain.AuditActionPasswordChange}, f.audit.actions())
	assert.Equal(t, events.EmailPasswordChanged, f.effects.emails[len(f.effects.emails)-1].Kind)

	err := f.svc.ConfirmPasswordReset(ctx, domain.Session{}, plain, "OutraSenha9")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestAuthPasswordReset_Expired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "editor@example.com"))
	plain := resetTokenFrom(t, f)

	f.svc.now = func() time.Time { return fixedNow.Add(31 * time.Minute) }
	err := f.svc.ConfirmPasswordReset(ctx, domain.Session{}, plain, "NovaSenha9")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
	assert.NoError(t, auth.ComparePassword(f.users.items["editor-1"].PasswordHash, "Segura123"))
}

func TestAuthPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "ghost@example.com"))
	assert.Empty(t, f.effects.emails)
	assert.Empty(t, f.resets.tokens)
}
