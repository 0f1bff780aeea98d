package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/events"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type stubStore struct {
	templates map[string]*domain.EmailTemplate
}

func (s stubStore) GetActiveByName(_ context.Context, name string) (*domain.EmailTemplate, error) {
	if tpl, ok := s.templates[name]; ok {
		return tpl, nil
	}
	return nil, pgx.ErrNoRows
}

func newTestMailer(sender Sender, store TemplateStore) *Mailer {
	m := New(sender, store, "https://andorinha.test", zap.NewNop())
	m.now = func() time.Time { return time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) }
	return m
}

func TestRender(t *testing.T) {
	out := Render("Olá {{ name }}, {{missing}}!", map[string]string{"name": "<Ana>"}, true)
	assert.Equal(t, "Olá &lt;Ana&gt;, !", out)

	assert.Equal(t, "Oi <b>", Render("Oi {{x}}", map[string]string{"x": "<b>"}, false))
}

func TestPlaceholdersAndUndeclared(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Placeholders("{{b}} {{a}} {{ b }}"))
	assert.Equal(t, []string{"c", "d"}, Undeclared([]string{"a"}, "{{a}} {{d}}", "{{c}}"))
	assert.Empty(t, Undeclared([]string{"name"}, "Hello {{name}}"))
}

func TestMailer_BuiltInRoleChanged(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg Message) bool {
		return msg.To == "ana@x.com" &&
			msg.Subject == "Suas permissões foram atualizadas" &&
			containsAll(msg.HTML, "EDITOR", "ADMIN", "Ana", "https://andorinha.test/admin", "2025")
	})).Return(nil).Once()

	m := newTestMailer(sender, stubStore{})
	err := m.Send(context.Background(), events.EmailRoleChanged, "ana@x.com",
		map[string]string{"name": "Ana", "oldRole": "EDITOR", "newRole": "ADMIN"})
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestMailer_PrefersStoredTemplate(t *testing.T) {
	store := stubStore{templates: map[string]*domain.EmailTemplate{
		"welcome": {Name: "welcome", Subject: "Oi {{name}}", Body: "<p>{{name}}</p>", IsActive: true},
	}}
	m := newTestMailer(nil, store)

	msg, err := m.Compose(context.Background(), events.EmailWelcome, "a@b.com", map[string]string{"name": "Bia"})
	require.NoError(t, err)
	assert.Equal(t, "Oi Bia", msg.Subject)
	assert.Equal(t, "<p>Bia</p>", msg.HTML)
}

func TestMailer_DisabledDropsMessage(t *testing.T) {
	m := newTestMailer(nil, nil)
	assert.NoError(t, m.Send(context.Background(), events.EmailWelcome, "a@b.com", nil))
}

func TestMailer_SenderErrorIsReturned(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	m := newTestMailer(sender, nil)
	err := m.Send(context.Background(), events.EmailPasswordChanged, "a@b.com", map[string]string{"name": "X"})
	assert.ErrorContains(t, err, "smtp down")
}

func TestMailer_UnknownKind(t *testing.T) {
	m := newTestMailer(nil, nil)
	_, err := m.Compose(context.Background(), events.EmailKind("nope"), "a@b.com", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
