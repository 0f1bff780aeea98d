package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/config"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/ratelimit"
)

type stubLimiter struct {
	result ratelimit.Result
	err    error
	calls  [][]ratelimit.Window
}

func (s *stubLimiter) Allow(_ context.Context, _ string, windows ...ratelimit.Window) (ratelimit.Result, error) {
	s.calls = append(s.calls, windows)
	return s.result, s.err
}

type apiKeyFixture struct {
	svc   *APIKeyService
	keys  *fakeAPIKeyRepo
	audit *fakeAuditRepo
}

func newAPIKeyFixture(limiter RateLimiter) apiKeyFixture {
	f := apiKeyFixture{
		keys:  newFakeAPIKeyRepo(),
		audit: &fakeAuditRepo{},
	}
	users := newFakeUserRepo(
		&domain.User{ID: "admin-1", Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin},
		&domain.User{ID: "editor-1", Name: "Editor", Email: "editor@example.com", Role: domain.RoleEditor},
	)
	f.svc = NewAPIKeyService(APIKeyDependencies{
		APIKeyRepo: f.keys,
		UserRepo:   users,
		Audit:      newTestAudit(f.audit),
		Limiter:    limiter,
		Defaults:   config.RateLimitConfig{RequestsPerMinute: 60, RequestsPerHour: 1000},
		Logger:     zap.NewNop(),
	})
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f apiKeyFixture) issue(t *testing.T, session domain.Session, scopes ...string) *IssuedAPIKey {
	t.Helper()
	issued, err := f.svc.Create(context.Background(), session, APIKeyInput{Name: "Integração CRM", Scopes: scopes})
	require.NoError(t, err)
	return issued
}

func TestAPIKeyCreate_ReturnsPlaintextOnce(t *testing.T) {
	f := newAPIKeyFixture(nil)

	issued := f.issue(t, editorSession(), "lead:read", "lead:read", "lead:create")
	assert.True(t, strings.HasPrefix(issued.PlainText, "sk_"))
	assert.Len(t, issued.PlainText, len("sk_")+64)
	assert.Equal(t, issued.PlainText[:11], issued.Key.KeyPrefix)
	assert.Equal(t, []string{"lead:read", "lead:create"}, issued.Key.Scopes)

	stored := f.keys.items[issued.Key.ID]
	assert.NotEqual(t, issued.PlainText, stored.KeyHash)
	assert.Equal(t, auth.HashSecret(issued.PlainText), stored.KeyHash)
	assert.Equal(t, "editor-1", stored.CreatedBy)
	assert.Equal(t, []domain.AuditAction{domain.AuditActionCreate}, f.audit.actions())
	assert.Equal(t, domain.AuditResourceSettings, f.audit.entries[0].Resource)
}

func TestAPIKeyCreate_Validation(t *testing.T) {
	f := newAPIKeyFixture(nil)
	past := fixedNow.Add(-time.Hour)
	zero := 0

	_, err := f.svc.Create(context.Background(), editorSession(), APIKeyInput{
		Name: "ab", Scopes: []string{"lead:fly"}, RequestsPerMinute: &zero, ExpiresAt: &past,
	})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
	assert.Empty(t, f.keys.items)
}

func TestAPIKeyVerify_BuildsScopedSession(t *testing.T) {
	f := newAPIKeyFixture(nil)
	issued := f.issue(t, editorSession(), "lead:read")

	access, err := f.svc.Verify(context.Background(), issued.PlainText)
	require.NoError(t, err)
	assert.Equal(t, "editor-1", access.Session.Actor.ID)
	assert.Equal(t, issued.Key.ID, access.Session.APIKeyID)
	assert.True(t, access.Session.HasScope("lead:read"))
	assert.False(t, access.Session.HasScope("lead:create"))
	assert.Equal(t, 1, f.keys.usage)
	assert.NotNil(t, f.keys.items[issued.Key.ID].LastUsedAt)
}

func TestAPIKeyVerify_Rejections(t *testing.T) {
	f := newAPIKeyFixture(nil)
	ctx := context.Background()
	issued := f.issue(t, editorSession(), "*")

	_, err := f.svc.Verify(ctx, "not-a-key")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
	_, err = f.svc.Verify(ctx, "sk_unknown")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	expired := fixedNow.Add(-time.Minute)
	f.keys.items[issued.Key.ID].ExpiresAt = &expired
	_, err = f.svc.Verify(ctx, issued.PlainText)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	f.keys.items[issued.Key.ID].ExpiresAt = nil
	f.keys.items[issued.Key.ID].IsActive = false
	_, err = f.svc.Verify(ctx, issued.PlainText)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
	assert.Zero(t, f.keys.usage)
}

func TestAPIKeyVerify_UsesKeyLimitsOverDefaults(t *testing.T) {
	limiter := &stubLimiter{result: ratelimit.Result{Allowed: true, Limit: 10, Remaining: 9}}
	f := newAPIKeyFixture(limiter)
	perMinute := 10
	issued, err := f.svc.Create(context.Background(), adminSession(), APIKeyInput{
		Name: "Site", Scopes: []string{"*"}, RequestsPerMinute: &perMinute,
	})
	require.NoError(t, err)

	access, err := f.svc.Verify(context.Background(), issued.PlainText)
	require.NoError(t, err)
	assert.Equal(t, 9, access.Limit.Remaining)
	require.Len(t, limiter.calls, 1)
	assert.Equal(t, []ratelimit.Window{
		{Limit: 10, Period: time.Minute},
		{Limit: 1000, Period: time.Hour},
	}, limiter.calls[0])
}

func TestAPIKeyVerify_FailsOpenWhenLimiterErrors(t *testing.T) {
	f := newAPIKeyFixture(&stubLimiter{err: errors.New("redis down")})
	issued := f.issue(t, editorSession(), "*")

	access, err := f.svc.Verify(context.Background(), issued.PlainText)
	require.NoError(t, err)
	assert.Equal(t, "editor-1", access.Session.Actor.ID)
}

func TestAPIKeyVerify_RateLimitedWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newAPIKeyFixture(ratelimit.NewLimiter(client, "apikey"))
	perHour := 2
	issued, err := f.svc.Create(context.Background(), editorSession(), APIKeyInput{
		Name: "Limitada", Scopes: []string{"*"}, RequestsPerHour: &perHour,
	})
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Verify(ctx, issued.PlainText)
		require.NoError(t, err)
	}
	access, err := f.svc.Verify(ctx, issued.PlainText)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, err))
	require.NotNil(t, access)
	assert.Equal(t, 2, access.Limit.Limit)
	assert.Zero(t, access.Limit.Remaining)
	assert.Equal(t, 2, f.keys.usage)
}

func TestAPIKeyOwnership(t *testing.T) {
	f := newAPIKeyFixture(nil)
	ctx := context.Background()
	issued := f.issue(t, adminSession(), "*")

	err := f.svc.Delete(ctx, editorSession(), issued.Key.ID)
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))

	keys, err := f.svc.List(ctx, editorSession())
	require.NoError(t, err)
	assert.Empty(t, keys)

	mine := f.issue(t, editorSession(), "*")
	require.NoError(t, f.svc.Delete(ctx, adminSession(), mine.Key.ID))
}

func TestAPIKeyRegenerate_InvalidatesOldSecret(t *testing.T) {
	f := newAPIKeyFixture(nil)
	ctx := context.Background()
	issued := f.issue(t, editorSession(), "*")

	rotated, err := f.svc.Regenerate(ctx, editorSession(), issued.Key.ID)
	require.NoError(t, err)
	assert.NotEqual(t, issued.PlainText, rotated.PlainText)

	_, err = f.svc.Verify(ctx, issued.PlainText)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
	_, err = f.svc.Verify(ctx, rotated.PlainText)
	assert.NoError(t, err)
}

func TestAPIKeyUpdate_Disable(t *testing.T) {
	f := newAPIKeyFixture(nil)
	ctx := context.Background()
	issued := f.issue(t, editorSession(), "*")
	disabled := false

	key, err := f.svc.Update(ctx, editorSession(), issued.Key.ID, APIKeyUpdateInput{IsActive: &disabled})
	require.NoError(t, err)
	assert.False(t, key.IsActive)

	_, err = f.svc.Verify(ctx, issued.PlainText)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}
