package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
)

type stubDeliverer struct {
	events []domain.WebhookEvent
	data   []map[string]any
}

func (d *stubDeliverer) Deliver(_ context.Context, sub domain.WebhookSubscription, event domain.WebhookEvent, data map[string]any) (domain.WebhookLog, error) {
	d.events = append(d.events, event)
	d.data = append(d.data, data)
	return domain.WebhookLog{SubscriptionID: sub.ID, Event: string(event), Success: true}, nil
}

func newWebhookService() (*WebhookService, *fakeWebhookRepo, *stubDeliverer) {
	repo := newFakeWebhookRepo()
	deliverer := &stubDeliverer{}
	return NewWebhookService(repo, deliverer, newTestAudit(&fakeAuditRepo{}), nil, zap.NewNop()), repo, deliverer
}

func TestWebhookCreate_GeneratesSecret(t *testing.T) {
	svc, repo, _ := newWebhookService()

	issued, err := svc.Create(context.Background(), adminSession(), WebhookInput{
		Name:   "CRM externo",
		URL:    "https://crm.example.com/hooks",
		Events: []string{"LEAD_CREATED"},
	})
	require.NoError(t, err)
	assert.Len(t, issued.Secret, 64)
	assert.True(t, issued.Subscription.IsActive)
	assert.Equal(t, issued.Secret, repo.subs[issued.Subscription.ID].Secret)
}

func TestWebhookCreate_Validation(t *testing.T) {
	svc, repo, _ := newWebhookService()

	_, err := svc.Create(context.Background(), adminSession(), WebhookInput{
		Name: "CRM", URL: "ftp//nope", Events: []string{"LEAD_EXPLODED"},
	})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
	assert.Empty(t, repo.subs)

	_, err = svc.Create(context.Background(), editorSession(), WebhookInput{})
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestWebhookRegenerateSecret(t *testing.T) {
	svc, repo, _ := newWebhookService()
	ctx := context.Background()
	issued, err := svc.Create(ctx, adminSession(), WebhookInput{
		Name: "Slack", URL: "https://hooks.example.com/x", Events: []string{"POST_PUBLISHED"},
	})
	require.NoError(t, err)

	rotated, err := svc.RegenerateSecret(ctx, adminSession(), issued.Subscription.ID)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Secret, rotated.Secret)
	assert.Equal(t, rotated.Secret, repo.subs[issued.Subscription.ID].Secret)
}

func TestWebhookTest_DeliversFirstEvent(t *testing.T) {
	svc, _, deliverer := newWebhookService()
	ctx := context.Background()
	issued, err := svc.Create(ctx, adminSession(), WebhookInput{
		Name: "Slack", URL: "https://hooks.example.com/x", Events: []string{"POST_PUBLISHED", "LEAD_CREATED"},
	})
	require.NoError(t, err)

	log, err := svc.Test(ctx, adminSession(), issued.Subscription.ID)
	require.NoError(t, err)
	assert.True(t, log.Success)
	assert.Equal(t, []domain.WebhookEvent{domain.WebhookPostPublished}, deliverer.events)
	assert.Equal(t, true, deliverer.data[0]["test"])
}

func TestWebhookDelete(t *testing.T) {
	svc, repo, _ := newWebhookService()
	ctx := context.Background()
	issued, err := svc.Create(ctx, adminSession(), WebhookInput{
		Name: "Slack", URL: "https://hooks.example.com/x", Events: []string{"USER_CREATED"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, adminSession(), issued.Subscription.ID))
	assert.Empty(t, repo.subs)
	assert.Equal(t, "NOT_FOUND", errorCode(t, svc.Delete(ctx, adminSession(), issued.Subscription.ID)))
}
