package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_RoutesByKind(t *testing.T) {
	router := NewRouter()
	var got []TaskKind
	router.Subscribe(TaskSendEmail, func(_ context.Context, task Task) error {
		got = append(got, task.Kind)
		return nil
	})

	task, err := NewTask(TaskSendEmail, EmailPayload{Template: EmailWelcome, To: "ana@example.com"})
	require.NoError(t, err)

	require.NoError(t, router.Route(context.Background(), task))
	assert.Equal(t, []TaskKind{TaskSendEmail}, got)
}

func TestRouter_UnknownKind(t *testing.T) {
	router := NewRouter()
	task, err := NewTask(TaskDispatchWebhook, WebhookPayload{})
	require.NoError(t, err)

	err = router.Route(context.Background(), task)
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestTask_DecodeRoundTrip(t *testing.T) {
	task, err := NewTask(TaskCreateNotification, NotificationPayload{UserID: "u1", Title: "Bem-vindo!"})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)

	var payload NotificationPayload
	require.NoError(t, task.Decode(&payload))
	assert.Equal(t, "u1", payload.UserID)
	assert.Equal(t, "Bem-vindo!", payload.Title)
}

func TestMemoryQueue_PublishAndConsume(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	task, err := NewTask(TaskSendEmail, EmailPayload{To: "a@b.com"})
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, task))

	done := make(chan Task, 1)
	go func() {
		_ = q.Consume(ctx, func(_ context.Context, got Task) error {
			done <- got
			return nil
		})
	}()

	select {
	case got := <-done:
		assert.Equal(t, task.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("task was not consumed")
	}
}

func TestMemoryQueue_FullAndClosed(t *testing.T) {
	q := NewMemoryQueue(1)
	task, err := NewTask(TaskSendEmail, EmailPayload{})
	require.NoError(t, err)

	require.NoError(t, q.Publish(context.Background(), task))
	assert.ErrorIs(t, q.Publish(context.Background(), task), ErrQueueFull)

	require.NoError(t, q.Close())
	assert.ErrorIs(t, q.Publish(context.Background(), task), ErrQueueClosed)
}

func TestMemoryQueue_FailedTasksAreDeadLettered(t *testing.T) {
	q := NewMemoryQueue(2)
	task, err := NewTask(TaskDispatchWebhook, WebhookPayload{})
	require.NoError(t, err)
	require.NoError(t, q.Publish(context.Background(), task))
	require.NoError(t, q.Close())

	err = q.Consume(context.Background(), func(context.Context, Task) error {
		return errors.New("endpoint down")
	})
	require.NoError(t, err)

	dead := q.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, task.ID, dead[0].ID)
}
