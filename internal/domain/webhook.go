package domain

import "time"

// WebhookEvent names a domain event delivered to external endpoints.
type WebhookEvent string

const (
	WebhookUserCreated     WebhookEvent = "USER_CREATED"
	WebhookUserUpdated     WebhookEvent = "USER_UPDATED"
	WebhookUserDeleted     WebhookEvent = "USER_DELETED"
	WebhookPostPublished   WebhookEvent = "POST_PUBLISHED"
	WebhookPostUnpublished WebhookEvent = "POST_UNPUBLISHED"
	WebhookCaseCreated     WebhookEvent = "CASE_CREATED"
	WebhookCasePublished   WebhookEvent = "CASE_PUBLISHED"
	WebhookServiceCreated  WebhookEvent = "SERVICE_CREATED"
	WebhookLeadCreated     WebhookEvent = "LEAD_CREATED"
)

// Valid reports whether e is a known event.
func (e WebhookEvent) Valid() bool {
	switch e {
	case WebhookUserCreated, WebhookUserUpdated, WebhookUserDeleted, WebhookPostPublished,
		WebhookPostUnpublished, WebhookCaseCreated, WebhookCasePublished, WebhookServiceCreated,
		WebhookLeadCreated:
		return true
	}
	return false
}

// WebhookSubscription is an externally registered endpoint.
type WebhookSubscription struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Events      []string  `json:"events"`
	Secret      string    `json:"-"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subscribes reports whether the subscription listens to event.
func (s *WebhookSubscription) Subscribes(event WebhookEvent) bool {
	for _, e := range s.Events {
		if e == string(event) {
			return true
		}
	}
	return false
}

// WebhookLog is the outcome of delivering one event to one subscription.
type WebhookLog struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscriptionId"`
	Event          string    `json:"event"`
	Payload        string    `json:"payload"`
	Response       *string   `json:"response,omitempty"`
	StatusCode     *int      `json:"statusCode,omitempty"`
	Success        bool      `json:"success"`
	Error          *string   `json:"error,omitempty"`
	RetriesCount   int       `json:"retriesCount"`
	CreatedAt      time.Time `json:"createdAt"`
}
