package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
)

func TestSettingsUpdate(t *testing.T) {
	repo := &fakeSettingsRepo{}
	audit := &fakeAuditRepo{}
	cache := &recordingCache{}
	svc := NewSettingsService(repo, newTestAudit(audit), cache, zap.NewNop())
	ctx := context.Background()

	settings, err := svc.Update(ctx, adminSession(), SettingsInput{
		SiteName:     strPtr(" Andorinha "),
		ContactEmail: strPtr("contato@andorinha.com.br"),
		SocialLinks:  map[string]string{"instagram": "https://instagram.com/andorinha"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Andorinha", settings.SiteName)
	require.NotNil(t, settings.UpdatedBy)
	assert.Equal(t, "admin-1", *settings.UpdatedBy)
	assert.Equal(t, []string{settingsPath, "/"}, cache.paths)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, domain.AuditResourceSettings, audit.entries[0].Resource)
	assert.Equal(t, "Atualizadas configurações: siteName, contactEmail, socialLinks", audit.entries[0].Details)
}

func TestSettingsUpdate_Validation(t *testing.T) {
	svc := NewSettingsService(&fakeSettingsRepo{}, newTestAudit(&fakeAuditRepo{}), nil, zap.NewNop())

	_, err := svc.Update(context.Background(), adminSession(), SettingsInput{
		SiteName:    strPtr(""),
		SocialLinks: map[string]string{"x": "not a link"},
	})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	_, err = svc.Update(context.Background(), editorSession(), SettingsInput{})
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestSettingsToggleMaintenance(t *testing.T) {
	svc := NewSettingsService(&fakeSettingsRepo{}, newTestAudit(&fakeAuditRepo{}), nil, zap.NewNop())
	ctx := context.Background()

	on, err := svc.ToggleMaintenance(ctx, adminSession())
	require.NoError(t, err)
	assert.True(t, on.MaintenanceMode)

	off, err := svc.ToggleMaintenance(ctx, adminSession())
	require.NoError(t, err)
	assert.False(t, off.MaintenanceMode)
}
