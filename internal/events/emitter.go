package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
)

const enqueueTimeout = 2 * time.Second

// FailureRecorder counts tasks that never reached the queue.
type FailureRecorder interface {
	RecordEnqueueFailure(kind string)
}

// Emitter is the orchestrator-facing side of the queue. Its methods never fail:
// enqueue errors are logged and counted so the primary write stays authoritative.
type Emitter struct {
	publisher Publisher
	logger    *zap.Logger
	failures  FailureRecorder
}

// NewEmitter wraps a publisher. failures may be nil.
func NewEmitter(publisher Publisher, logger *zap.Logger, failures FailureRecorder) *Emitter {
	return &Emitter{publisher: publisher, logger: logger, failures: failures}
}

// Email enqueues a templated email.
func (e *Emitter) Email(ctx context.Context, kind EmailKind, to string, vars map[string]string) {
	e.emit(ctx, TaskSendEmail, EmailPayload{Template: kind, To: to, Variables: vars})
}

// Webhook enqueues a domain event for external subscribers.
func (e *Emitter) Webhook(ctx context.Context, event domain.WebhookEvent, data map[string]any) {
	e.emit(ctx, TaskDispatchWebhook, WebhookPayload{Event: event, Data: data, OccurredAt: time.Now().UTC()})
}

// Notify enqueues an in-app notification.
func (e *Emitter) Notify(ctx context.Context, payload NotificationPayload) {
	if payload.UserID == "" {
		return
	}
	e.emit(ctx, TaskCreateNotification, payload)
}

func (e *Emitter) emit(ctx context.Context, kind TaskKind, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	task, err := NewTask(kind, payload)
	if err == nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
		err = e.publisher.Publish(pubCtx, task)
		cancel()
	}
	if err != nil {
		e.logger.Error("failed to enqueue side effect", zap.String("kind", string(kind)), zap.Error(err))
		if e.failures != nil {
			e.failures.RecordEnqueueFailure(string(kind))
		}
		return
	}
	e.logger.Debug("side effect enqueued", zap.String("kind", string(kind)), zap.String("task_id", task.ID))
}
