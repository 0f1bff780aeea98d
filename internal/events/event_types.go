package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/agency-admin/internal/domain"
)

// TaskKind identifies the side effect a task triggers.
type TaskKind string

const (
	TaskSendEmail          TaskKind = "email.send"
	TaskDispatchWebhook    TaskKind = "webhook.dispatch"
	TaskCreateNotification TaskKind = "notification.create"
)

// Task is the unit carried by the outbound queue.
type Task struct {
	ID         string          `json:"id"`
	Kind       TaskKind        `json:"kind"`
	Attempt    int             `json:"attempt"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	Payload    json.RawMessage `json:"payload"`
}

// NewTask encodes payload into a fresh task of the given kind.
func NewTask(kind TaskKind, payload any) (Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Task{
		ID:         uuid.NewString(),
		Kind:       kind,
		EnqueuedAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// Decode unmarshals the task payload into v.
func (t Task) Decode(v any) error {
	if err := json.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", t.Kind, err)
	}
	return nil
}

func encodeTask(task Task) ([]byte, error) {
	return json.Marshal(task)
}

func decodeTask(body []byte) (Task, error) {
	var task Task
	if err := json.Unmarshal(body, &task); err != nil {
		return Task{}, err
	}
	if task.Kind == "" {
		return Task{}, fmt.Errorf("task without kind")
	}
	return task, nil
}

// EmailKind selects a transactional email.
type EmailKind string

const (
	EmailWelcome         EmailKind = "welcome"
	EmailPasswordChanged EmailKind = "password_changed"
	EmailRoleChanged     EmailKind = "role_changed"
	EmailPasswordReset   EmailKind = "password_reset"
)

// EmailPayload asks the mailer to send one templated message.
type EmailPayload struct {
	Template  EmailKind         `json:"template"`
	To        string            `json:"to"`
	Variables map[string]string `json:"variables"`
}

// WebhookPayload asks the webhook dispatcher to fan an event out to subscribers.
type WebhookPayload struct {
	Event      domain.WebhookEvent `json:"event"`
	Data       map[string]any      `json:"data"`
	OccurredAt time.Time           `json:"occurredAt"`
}

// NotificationPayload asks for an in-app notification to be stored.
type NotificationPayload struct {
	UserID  string                  `json:"userId"`
	Type    domain.NotificationType `json:"type"`
	Title   string                  `json:"title"`
	Message string                  `json:"message"`
	Link    *string                 `json:"link,omitempty"`
}
