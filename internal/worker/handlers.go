package worker

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/events"
	"github.com/spec-kit/agency-admin/internal/mailer"
)

// EmailSender delivers one templated email.
type EmailSender interface {
	Send(ctx context.Context, kind events.EmailKind, to string, vars map[string]string) error
}

// WebhookFanout delivers one event to every subscription listening for it.
type WebhookFanout interface {
	Dispatch(ctx context.Context, event domain.WebhookEvent, data map[string]any, occurredAt time.Time) error
}

// NotificationHandlers is implemented by services that consume notification tasks.
type NotificationHandlers interface {
	RegisterHandlers(router *events.Router)
}

// Handlers groups the consumers of each task kind.
type Handlers struct {
	Email         EmailSender
	Webhooks      WebhookFanout
	Notifications NotificationHandlers
}

// Register subscribes every configured handler on router.
func (h Handlers) Register(router *events.Router) {
	if h.Email != nil {
		router.Subscribe(events.TaskSendEmail, h.sendEmail)
	}
	if h.Webhooks != nil {
		router.Subscribe(events.TaskDispatchWebhook, h.dispatchWebhook)
	}
	if h.Notifications != nil {
		h.Notifications.RegisterHandlers(router)
	}
}

func (h Handlers) sendEmail(ctx context.Context, task events.Task) error {
	var payload events.EmailPayload
	if err := task.Decode(&payload); err != nil {
		return Permanent(err)
	}
	err := h.Email.Send(ctx, payload.Template, payload.To, payload.Variables)
	if errors.Is(err, mailer.ErrUnknownTemplate) {
		return Permanent(err)
	}
	return err
}

func (h Handlers) dispatchWebhook(ctx context.Context, task events.Task) error {
	var payload events.WebhookPayload
	if err := task.Decode(&payload); err != nil {
		return Permanent(err)
	}
	return h.Webhooks.Dispatch(ctx, payload.Event, payload.Data, payload.OccurredAt)
}
