package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, task Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

type countingRecorder struct {
	kinds []string
}

func (c *countingRecorder) RecordEnqueueFailure(kind string) {
	c.kinds = append(c.kinds, kind)
}

func TestEmitter_PublishesTypedTasks(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(task Task) bool {
		return task.Kind == TaskDispatchWebhook
	})).Return(nil).Once()

	e := NewEmitter(pub, zap.NewNop(), nil)
	e.Webhook(context.Background(), domain.WebhookUserCreated, map[string]any{"userId": "u1"})

	pub.AssertExpectations(t)
}

func TestEmitter_SwallowsPublishErrors(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	rec := &countingRecorder{}

	e := NewEmitter(pub, zap.NewNop(), rec)
	assert.NotPanics(t, func() {
		e.Email(context.Background(), EmailRoleChanged, "ana@example.com", nil)
	})
	assert.Equal(t, []string{string(TaskSendEmail)}, rec.kinds)
}

func TestEmitter_SurvivesCanceledRequestContext(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEmitter(pub, zap.NewNop(), nil)
	e.Notify(ctx, NotificationPayload{UserID: "u1", Title: "x"})

	pub.AssertExpectations(t)
}

func TestEmitter_NotifySkipsMissingUser(t *testing.T) {
	pub := new(mockPublisher)
	e := NewEmitter(pub, zap.NewNop(), nil)

	e.Notify(context.Background(), NotificationPayload{Title: "orphan"})
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
