package mailer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/spec-kit/agency-admin/internal/config"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/events"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

// ErrUnknownTemplate is returned for a kind with neither a stored nor a built-in template.
var ErrUnknownTemplate = errors.New("unknown email template")

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// TemplateStore looks up admin-managed templates.
type TemplateStore interface {
	GetActiveByName(ctx context.Context, name string) (*domain.EmailTemplate, error)
}

// SMTPSender delivers through an SMTP relay with gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	name   string
}

// NewSMTPSender builds a sender from configuration.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		name:   cfg.FromName,
	}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.name)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email via smtp: %w", err)
	}
	return nil
}

// Mailer renders transactional emails and hands them to a Sender.
type Mailer struct {
	sender   Sender
	store    TemplateStore
	logger   *zap.Logger
	adminURL string
	now      func() time.Time
}

// New creates a mailer. A nil sender disables delivery: messages are logged and dropped.
func New(sender Sender, store TemplateStore, publicBaseURL string, logger *zap.Logger) *Mailer {
	return &Mailer{
		sender:   sender,
		store:    store,
		logger:   logger,
		adminURL: publicBaseURL + "/admin",
		now:      time.Now,
	}
}

// Send renders the template for kind and delivers it to the recipient.
// An active stored template named after the kind overrides the built-in one.
func (m *Mailer) Send(ctx context.Context, kind events.EmailKind, to string, vars map[string]string) error {
	msg, err := m.Compose(ctx, kind, to, vars)
	if err != nil {
		return err
	}
	if m.sender == nil {
		m.logger.Warn("smtp not configured, email dropped",
			zap.String("template", string(kind)),
			zap.String("to", to))
		return nil
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return err
	}
	m.logger.Info("email sent", zap.String("template", string(kind)), zap.String("to", to))
	return nil
}

// Compose renders the message without sending it.
func (m *Mailer) Compose(ctx context.Context, kind events.EmailKind, to string, vars map[string]string) (Message, error) {
	merged := m.defaults()
	for k, v := range vars {
		merged[k] = v
	}

	subject, body, err := m.lookup(ctx, kind)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: Render(subject, merged, false),
		HTML:    Render(body, merged, true),
	}, nil
}

func (m *Mailer) lookup(ctx context.Context, kind events.EmailKind) (string, string, error) {
	if m.store != nil {
		tpl, err := m.store.GetActiveByName(ctx, string(kind))
		switch {
		case err == nil:
			return tpl.Subject, tpl.Body, nil
		case !apperrors.IsNotFound(err):
			m.logger.Warn("email template lookup failed, using built-in",
				zap.String("template", string(kind)), zap.Error(err))
		}
	}

	b, ok := builtins[kind]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, kind)
	}
	return b.subject, b.body, nil
}

func (m *Mailer) defaults() map[string]string {
	now := m.now()
	return map[string]string{
		"adminUrl":  m.adminURL,
		"year":      strconv.Itoa(now.Year()),
		"changedAt": now.Format("02/01/2006 15:04:05"),
	}
}
