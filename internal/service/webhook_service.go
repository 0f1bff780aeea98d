package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/repository"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const (
	webhooksPath      = "/admin/settings/webhooks"
	webhookSecretSize = 32
)

// WebhookDeliverer sends one event to one subscription synchronously.
type WebhookDeliverer interface {
	Deliver(ctx context.Context, sub domain.WebhookSubscription, event domain.WebhookEvent, data map[string]any) (domain.WebhookLog, error)
}

// WebhookService administers outbound webhook subscriptions. ADMIN only.
type WebhookService struct {
	repo    repository.WebhookRepository
	deliver WebhookDeliverer
	audit   *AuditService
	cache   CacheInvalidator
	logger  *zap.Logger
}

// WebhookInput is the payload for creating a subscription.
type WebhookInput struct {
	Name        string
	URL         string
	Events      []string
	Description *string
	IsActive    *bool
}

// WebhookUpdateInput carries the fields to change; nil means unchanged.
type WebhookUpdateInput struct {
	Name        *string
	URL         *string
	Events      []string
	Description *string
	IsActive    *bool
}

// IssuedWebhook carries the signing secret. It is only ever returned once.
type IssuedWebhook struct {
	Subscription *domain.WebhookSubscription `json:"webhook"`
	Secret       string                      `json:"secret"`
}

// NewWebhookService constructs the service.
func NewWebhookService(repo repository.WebhookRepository, deliver WebhookDeliverer, audit *AuditService, cache CacheInvalidator, logger *zap.Logger) *WebhookService {
	if cache == nil {
		cache = noopCache{}
	}
	return &WebhookService{repo: repo, deliver: deliver, audit: audit, cache: cache, logger: logger}
}

// Create registers an endpoint and generates its signing secret.
func (s *WebhookService) Create(ctx context.Context, session domain.Session, input WebhookInput) (*IssuedWebhook, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}

	sub := &domain.WebhookSubscription{
		Name:        strings.TrimSpace(input.Name),
		URL:         strings.TrimSpace(input.URL),
		Events:      cleanTags(input.Events),
		Description: optional(input.Description),
		IsActive:    true,
	}
	if input.IsActive != nil {
		sub.IsActive = *input.IsActive
	}
	if err := validateWebhook(sub); err != nil {
		return nil, err
	}

	secret, err := auth.RandomHex(webhookSecretSize)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	sub.Secret = secret

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, storeError(s.logger, "create", "webhook", err)
	}

	s.cache.MarkStale(ctx, webhooksPath)
	s.audit.Track(ctx, session, domain.AuditActionCreate, domain.AuditResourceSettings, sub.ID,
		fmt.Sprintf("Criado webhook %s (%s)", sub.Name, sub.URL))
	return &IssuedWebhook{Subscription: sub, Secret: secret}, nil
}

// Update changes a subscription. The secret is untouched.
func (s *WebhookService) Update(ctx context.Context, session domain.Session, id string, input WebhookUpdateInput) (*domain.WebhookSubscription, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "webhook", err)
	}

	if input.Name != nil {
		sub.Name = strings.TrimSpace(*input.Name)
	}
	if input.URL != nil {
		sub.URL = strings.TrimSpace(*input.URL)
	}
	if input.Events != nil {
		sub.Events = cleanTags(input.Events)
	}
	if input.Description != nil {
		sub.Description = optional(input.Description)
	}
	if input.IsActive != nil {
		sub.IsActive = *input.IsActive
	}
	if err := validateWebhook(sub); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, storeError(s.logger, "update", "webhook", err)
	}

	s.cache.MarkStale(ctx, webhooksPath)
	s.audit.Track(ctx, session, domain.AuditActionUpdate, domain.AuditResourceSettings, sub.ID,
		fmt.Sprintf("Atualizado webhook %s", sub.Name))
	return sub, nil
}

// Delete removes a subscription and its delivery logs.
func (s *WebhookService) Delete(ctx context.Context, session domain.Session, id string) error {
	if _, err := requireAdmin(session); err != nil {
		return err
	}
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return storeError(s.logger, "load", "webhook", err)
	}
	if err := s.repo.DeleteSubscription(ctx, id); err != nil {
		return storeError(s.logger, "delete", "webhook", err)
	}

	s.cache.MarkStale(ctx, webhooksPath)
	s.audit.Track(ctx, session, domain.AuditActionDelete, domain.AuditResourceSettings, id,
		fmt.Sprintf("Deletado webhook %s", sub.Name))
	return nil
}

// Get returns one subscription.
func (s *WebhookService) Get(ctx context.Context, session domain.Session, id string) (*domain.WebhookSubscription, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "webhook", err)
	}
	return sub, nil
}

// List returns every subscription.
func (s *WebhookService) List(ctx context.Context, session domain.Session) ([]domain.WebhookSubscription, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	subs, err := s.repo.ListSubscriptions(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list", "webhooks", err)
	}
	if subs == nil {
		subs = []domain.WebhookSubscription{}
	}
	return subs, nil
}

// Logs returns the latest deliveries of a subscription.
func (s *WebhookService) Logs(ctx context.Context, session domain.Session, id string, limit int) ([]domain.WebhookLog, error) {
	if _, err := s.Get(ctx, session, id); err != nil {
		return nil, err
	}
	logs, err := s.repo.ListLogs(ctx, id, limit)
	if err != nil {
		return nil, storeError(s.logger, "list", "webhook logs", err)
	}
	if logs == nil {
		logs = []domain.WebhookLog{}
	}
	return logs, nil
}

// Test delivers a sample payload right away and returns the recorded outcome.
func (s *WebhookService) Test(ctx context.Context, session domain.Session, id string) (*domain.WebhookLog, error) {
	sub, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if len(sub.Events) == 0 {
		return nil, apperrors.NewValidationError("invalid payload",
			map[string]any{"fields": map[string]any{"events": "webhook has no events"}})
	}

	log, err := s.deliver.Deliver(ctx, *sub, domain.WebhookEvent(sub.Events[0]), map[string]any{
		"test":    true,
		"message": "Este é um evento de teste do painel administrativo.",
	})
	if err != nil {
		return nil, storeError(s.logger, "record", "webhook log", err)
	}
	return &log, nil
}

// RegenerateSecret replaces the signing secret and returns it once.
func (s *WebhookService) RegenerateSecret(ctx context.Context, session domain.Session, id string) (*IssuedWebhook, error) {
	sub, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}
	secret, err := auth.RandomHex(webhookSecretSize)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.repo.UpdateSecret(ctx, sub.ID, secret); err != nil {
		return nil, storeError(s.logger, "update", "webhook", err)
	}
	sub.Secret = secret

	s.audit.Track(ctx, session, domain.AuditActionUpdate, domain.AuditResourceSettings, sub.ID,
		fmt.Sprintf("Regenerado segredo do webhook %s", sub.Name))
	return &IssuedWebhook{Subscription: sub, Secret: secret}, nil
}

func validateWebhook(sub *domain.WebhookSubscription) error {
	var v validator
	if v.required("name", sub.Name) {
		v.length("name", sub.Name, 3, 100)
	}
	if v.required("url", sub.URL) {
		v.url("url", sub.URL)
	}
	if len(sub.Events) == 0 {
		v.add("events", "at least one event is required")
	}
	for _, e := range sub.Events {
		if !domain.WebhookEvent(e).Valid() {
			v.add("events", fmt.Sprintf("unknown event %q", e))
			break
		}
	}
	return v.err()
}
