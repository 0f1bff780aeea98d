package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/repository"
)

const settingsPath = "/admin/settings"

// SettingsService manages the singleton site settings.
type SettingsService struct {
	repo   repository.SettingsRepository
	audit  *AuditService
	cache  CacheInvalidator
	logger *zap.Logger
}

// SettingsInput carries the fields to change; nil means unchanged.
type SettingsInput struct {
	SiteName           *string
	SiteDescription    *string
	ContactEmail       *string
	ContactPhone       *string
	Address            *string
	SocialLinks        map[string]string
	MaintenanceMode    *bool
	MaintenanceMessage *string
}

// NewSettingsService constructs the service.
func NewSettingsService(repo repository.SettingsRepository, audit *AuditService, cache CacheInvalidator, logger *zap.Logger) *SettingsService {
	if cache == nil {
		cache = noopCache{}
	}
	return &SettingsService{repo: repo, audit: audit, cache: cache, logger: logger}
}

// Get returns the settings row, creating it with defaults on first read.
func (s *SettingsService) Get(ctx context.Context) (*domain.SiteSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, storeError(s.logger, "load", "settings", err)
	}
	return settings, nil
}

// Update changes the settings. ADMIN only.
func (s *SettingsService) Update(ctx context.Context, session domain.Session, input SettingsInput) (*domain.SiteSettings, error) {
	actor, err := requireAdmin(session)
	if err != nil {
		return nil, err
	}
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	var changed []string
	set := func(field string, dst *string, src *string) {
		if src == nil {
			return
		}
		*dst = strings.TrimSpace(*src)
		changed = append(changed, field)
	}
	set("siteName", &settings.SiteName, input.SiteName)
	set("siteDescription", &settings.SiteDescription, input.SiteDescription)
	set("contactEmail", &settings.ContactEmail, input.ContactEmail)
	set("contactPhone", &settings.ContactPhone, input.ContactPhone)
	set("address", &settings.Address, input.Address)
	set("maintenanceMessage", &settings.MaintenanceMessage, input.MaintenanceMessage)
	if input.SocialLinks != nil {
		settings.SocialLinks = input.SocialLinks
		changed = append(changed, "socialLinks")
	}
	if input.MaintenanceMode != nil {
		settings.MaintenanceMode = *input.MaintenanceMode
		changed = append(changed, "maintenanceMode")
	}

	var v validator
	v.required("siteName", settings.SiteName)
	if settings.ContactEmail != "" {
		v.email("contactEmail", settings.ContactEmail)
	}
	for network, link := range settings.SocialLinks {
		v.url("socialLinks."+network, link)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	settings.UpdatedBy = &actor.ID
	if err := s.repo.Update(ctx, settings); err != nil {
		return nil, storeError(s.logger, "update", "settings", err)
	}

	s.cache.MarkStale(ctx, settingsPath, "/")
	s.audit.Track(ctx, session, domain.AuditActionUpdate, domain.AuditResourceSettings, settings.ID,
		fmt.Sprintf("Atualizadas configurações: %s", strings.Join(changed, ", ")))
	return settings, nil
}

// ToggleMaintenance flips maintenance mode. ADMIN only.
func (s *SettingsService) ToggleMaintenance(ctx context.Context, session domain.Session) (*domain.SiteSettings, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	enabled := !settings.MaintenanceMode
	return s.Update(ctx, session, SettingsInput{MaintenanceMode: &enabled})
}
