package domain

import "time"

// APIKey is a credential for programmatic access. Only the hash of the secret is stored.
type APIKey struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Description       *string    `json:"description,omitempty"`
	KeyHash           string     `json:"-"`
	KeyPrefix         string     `json:"keyPrefix"`
	Scopes            []string   `json:"scopes"`
	IsActive          bool       `json:"isActive"`
	RequestsPerMinute *int       `json:"requestsPerMinute,omitempty"`
	RequestsPerHour   *int       `json:"requestsPerHour,omitempty"`
	UsageCount        int64      `json:"usageCount"`
	LastUsedAt        *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	CreatedBy         string     `json:"createdBy"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Expired reports whether the key is past its expiry at now.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}
