package dto

import (
	"time"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/service"
)

// APIKeyRequest is the create payload for API keys.
type APIKeyRequest struct {
	Name              string     `json:"name"`
	Description       *string    `json:"description"`
	Scopes            []string   `json:"scopes"`
	RequestsPerMinute *int       `json:"requestsPerMinute"`
	RequestsPerHour   *int       `json:"requestsPerHour"`
	ExpiresAt         *time.Time `json:"expiresAt"`
}

func (r APIKeyRequest) ToInput() service.APIKeyInput {
	return service.APIKeyInput{
		Name:              r.Name,
		Description:       r.Description,
		Scopes:            r.Scopes,
		RequestsPerMinute: r.RequestsPerMinute,
		RequestsPerHour:   r.RequestsPerHour,
		ExpiresAt:         r.ExpiresAt,
	}
}

// APIKeyUpdateRequest carries optional API key fields.
type APIKeyUpdateRequest struct {
	Name              *string    `json:"name"`
	Description       *string    `json:"description"`
	Scopes            []string   `json:"scopes"`
	IsActive          *bool      `json:"isActive"`
	RequestsPerMinute *int       `json:"requestsPerMinute"`
	RequestsPerHour   *int       `json:"requestsPerHour"`
	ExpiresAt         *time.Time `json:"expiresAt"`
}

func (r APIKeyUpdateRequest) ToInput() service.APIKeyUpdateInput {
	return service.APIKeyUpdateInput{
		Name:              r.Name,
		Description:       r.Description,
		Scopes:            r.Scopes,
		IsActive:          r.IsActive,
		RequestsPerMinute: r.RequestsPerMinute,
		RequestsPerHour:   r.RequestsPerHour,
		ExpiresAt:         r.ExpiresAt,
	}
}

// WebhookRequest is the create payload for webhook subscriptions.
type WebhookRequest struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Events      []string `json:"events"`
	Description *string  `json:"description"`
	IsActive    *bool    `json:"isActive"`
}

func (r WebhookRequest) ToInput() service.WebhookInput {
	return service.WebhookInput{
		Name:        r.Name,
		URL:         r.URL,
		Events:      r.Events,
		Description: r.Description,
		IsActive:    r.IsActive,
	}
}

// WebhookUpdateRequest carries optional webhook fields.
type WebhookUpdateRequest struct {
	Name        *string  `json:"name"`
	URL         *string  `json:"url"`
	Events      []string `json:"events"`
	Description *string  `json:"description"`
	IsActive    *bool    `json:"isActive"`
}

func (r WebhookUpdateRequest) ToInput() service.WebhookUpdateInput {
	return service.WebhookUpdateInput{
		Name:        r.Name,
		URL:         r.URL,
		Events:      r.Events,
		Description: r.Description,
		IsActive:    r.IsActive,
	}
}

// EmailTemplateRequest is the create payload for email templates.
type EmailTemplateRequest struct {
	Name      string                   `json:"name"`
	Type      domain.EmailTemplateType `json:"type"`
	Subject   string                   `json:"subject"`
	Body      string                   `json:"content"`
	Variables []string                 `json:"variables"`
	IsActive  *bool                    `json:"isActive"`
}

func (r EmailTemplateRequest) ToInput() service.EmailTemplateInput {
	return service.EmailTemplateInput{
		Name:      r.Name,
		Type:      r.Type,
		Subject:   r.Subject,
		Body:      r.Body,
		Variables: r.Variables,
		IsActive:  r.IsActive,
	}
}

// EmailTemplateUpdateRequest carries optional template fields.
type EmailTemplateUpdateRequest struct {
	Name      *string                   `json:"name"`
	Type      *domain.EmailTemplateType `json:"type"`
	Subject   *string                   `json:"subject"`
	Body      *string                   `json:"content"`
	Variables []string                  `json:"variables"`
	IsActive  *bool                     `json:"isActive"`
}

func (r EmailTemplateUpdateRequest) ToInput() service.EmailTemplateUpdateInput {
	return service.EmailTemplateUpdateInput{
		Name:      r.Name,
		Type:      r.Type,
		Subject:   r.Subject,
		Body:      r.Body,
		Variables: r.Variables,
		IsActive:  r.IsActive,
	}
}

// PreviewRequest supplies sample variables for a template preview.
type PreviewRequest struct {
	Variables map[string]string `json:"variables"`
}

// SettingsRequest carries optional site settings fields.
type SettingsRequest struct {
	SiteName           *string           `json:"siteName"`
	SiteDescription    *string           `json:"siteDescription"`
	ContactEmail       *string           `json:"contactEmail"`
	ContactPhone       *string           `json:"contactPhone"`
	Address            *string           `json:"address"`
	SocialLinks        map[string]string `json:"socialLinks"`
	MaintenanceMode    *bool             `json:"maintenanceMode"`
	MaintenanceMessage *string           `json:"maintenanceMessage"`
}

func (r SettingsRequest) ToInput() service.SettingsInput {
	return service.SettingsInput{
		SiteName:           r.SiteName,
		SiteDescription:    r.SiteDescription,
		ContactEmail:       r.ContactEmail,
		ContactPhone:       r.ContactPhone,
		Address:            r.Address,
		SocialLinks:        r.SocialLinks,
		MaintenanceMode:    r.MaintenanceMode,
		MaintenanceMessage: r.MaintenanceMessage,
	}
}

// PurgeRequest selects the audit retention window.
type PurgeRequest struct {
	Days int `json:"days"`
}
