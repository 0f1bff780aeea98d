package domain

import "time"

// EmailTemplateType classifies transactional templates.
type EmailTemplateType string

const (
	EmailTemplateWelcome       EmailTemplateType = "WELCOME"
	EmailTemplatePasswordReset EmailTemplateType = "PASSWORD_RESET"
	EmailTemplateContactForm   EmailTemplateType = "CONTACT_FORM"
	EmailTemplateNewsletter    EmailTemplateType = "NEWSLETTER"
	EmailTemplateNotification  EmailTemplateType = "NOTIFICATION"
	EmailTemplateCustom        EmailTemplateType = "CUSTOM"
)

// Valid reports whether t is a known template type.
func (t EmailTemplateType) Valid() bool {
	switch t {
	case EmailTemplateWelcome, EmailTemplatePasswordReset, EmailTemplateContactForm,
		EmailTemplateNewsletter, EmailTemplateNotification, EmailTemplateCustom:
		return true
	}
	return false
}

// EmailTemplate is a reusable transactional email definition.
// Body placeholders use the {{name}} syntax and must appear in Variables.
type EmailTemplate struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Type      EmailTemplateType `json:"type"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Variables []string          `json:"variables"`
	IsActive  bool              `json:"isActive"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
