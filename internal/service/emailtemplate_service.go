package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/mailer"
	"github.com/spec-kit/agency-admin/internal/repository"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const emailTemplatesPath = "/admin/settings/email-templates"

// EmailTemplateService administers stored transactional templates.
type EmailTemplateService struct {
	repo   repository.EmailTemplateRepository
	audit  *AuditService
	cache  CacheInvalidator
	logger *zap.Logger
}

// EmailTemplateInput is the payload for creating a template.
type EmailTemplateInput struct {
	Name      string
	Type      domain.EmailTemplateType
	Subject   string
	Body      string
	Variables []string
	IsActive  *bool
}

// EmailTemplateUpdateInput carries the fields to change; nil means unchanged.
type EmailTemplateUpdateInput struct {
	Name      *string
	Type      *domain.EmailTemplateType
	Subject   *string
	Body      *string
	Variables []string
	IsActive  *bool
}

// EmailPreview is a rendered template.
type EmailPreview struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// NewEmailTemplateService constructs the service.
func NewEmailTemplateService(repo repository.EmailTemplateRepository, audit *AuditService, cache CacheInvalidator, logger *zap.Logger) *EmailTemplateService {
	if cache == nil {
		cache = noopCache{}
	}
	return &EmailTemplateService{repo: repo, audit: audit, cache: cache, logger: logger}
}

// Create stores a template after checking its placeholders are declared.
func (s *EmailTemplateService) Create(ctx context.Context, session domain.Session, input EmailTemplateInput) (*domain.EmailTemplate, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}

	tpl := &domain.EmailTemplate{
		Name:      strings.TrimSpace(input.Name),
		Type:      input.Type,
		Subject:   strings.TrimSpace(input.Subject),
		Body:      input.Body,
		Variables: cleanTags(input.Variables),
		IsActive:  true,
	}
	if input.IsActive != nil {
		tpl.IsActive = *input.IsActive
	}
	if err := validateEmailTemplate(tpl); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, tpl); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("template name already in use", map[string]any{"name": tpl.Name})
		}
		return nil, storeError(s.logger, "create", "email template", err)
	}

	s.cache.MarkStale(ctx, emailTemplatesPath)
	s.audit.Track(ctx, session, domain.AuditActionCreate, domain.AuditResourceSettings, tpl.ID,
		fmt.Sprintf("Criado template de email %s", tpl.Name))
	return tpl, nil
}

// Update changes a template; placeholders are re-checked against the result.
func (s *EmailTemplateService) Update(ctx context.Context, session domain.Session, id string, input EmailTemplateUpdateInput) (*domain.EmailTemplate, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	tpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "email template", err)
	}

	if input.Name != nil {
		tpl.Name = strings.TrimSpace(*input.Name)
	}
	if input.Type != nil {
		tpl.Type = *input.Type
	}
	if input.Subject != nil {
		tpl.Subject = strings.TrimSpace(*input.Subject)
	}
	if input.Body != nil {
		tpl.Body = *input.Body
	}
	if input.Variables != nil {
		tpl.Variables = cleanTags(input.Variables)
	}
	if input.IsActive != nil {
		tpl.IsActive = *input.IsActive
	}
	if err := validateEmailTemplate(tpl); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, tpl); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("template name already in use", map[string]any{"name": tpl.Name})
		}
		return nil, storeError(s.logger, "update", "email template", err)
	}

	s.cache.MarkStale(ctx, emailTemplatesPath)
	s.audit.Track(ctx, session, domain.AuditActionUpdate, domain.AuditResourceSettings, tpl.ID,
		fmt.Sprintf("Atualizado template de email %s", tpl.Name))
	return tpl, nil
}

// Delete removes a template. Built-in fallbacks take over for its kind.
func (s *EmailTemplateService) Delete(ctx context.Context, session domain.Session, id string) error {
	if _, err := requireAdmin(session); err != nil {
		return err
	}
	tpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return storeError(s.logger, "load", "email template", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(s.logger, "delete", "email template", err)
	}

	s.cache.MarkStale(ctx, emailTemplatesPath)
	s.audit.Track(ctx, session, domain.AuditActionDelete, domain.AuditResourceSettings, id,
		fmt.Sprintf("Deletado template de email %s", tpl.Name))
	return nil
}

// Get returns one template.
func (s *EmailTemplateService) Get(ctx context.Context, session domain.Session, id string) (*domain.EmailTemplate, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	tpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "email template", err)
	}
	return tpl, nil
}

// List returns templates, optionally of one type.
func (s *EmailTemplateService) List(ctx context.Context, session domain.Session, templateType *domain.EmailTemplateType) ([]domain.EmailTemplate, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, templateType)
	if err != nil {
		return nil, storeError(s.logger, "list", "email templates", err)
	}
	if items == nil {
		items = []domain.EmailTemplate{}
	}
	return items, nil
}

// Preview renders a stored template. Variables without a value render as [name].
func (s *EmailTemplateService) Preview(ctx context.Context, session domain.Session, id string, vars map[string]string) (*EmailPreview, error) {
	tpl, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}

	sample := make(map[string]string, len(tpl.Variables)+len(vars))
	for _, name := range tpl.Variables {
		sample[name] = "[" + name + "]"
	}
	for k, v := range vars {
		sample[k] = v
	}
	return &EmailPreview{
		Subject: mailer.Render(tpl.Subject, sample, false),
		HTML:    mailer.Render(tpl.Body, sample, true),
	}, nil
}

func validateEmailTemplate(tpl *domain.EmailTemplate) error {
	var v validator
	if v.required("name", tpl.Name) {
		v.length("name", tpl.Name, 3, 100)
	}
	if !tpl.Type.Valid() {
		v.add("type", "is invalid")
	}
	if v.required("subject", tpl.Subject) {
		v.length("subject", tpl.Subject, 0, 200)
	}
	v.required("body", tpl.Body)
	if missing := mailer.Undeclared(tpl.Variables, tpl.Subject, tpl.Body); len(missing) > 0 {
		v.add("variables", "undeclared placeholders: "+strings.Join(missing, ", "))
	}
	return v.err()
}
