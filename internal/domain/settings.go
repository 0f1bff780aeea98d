package domain

import "time"

// SiteSettings is the singleton row holding public site configuration.
type SiteSettings struct {
	ID                 string            `json:"id"`
	SiteName           string            `json:"siteName"`
	SiteDescription    string            `json:"siteDescription"`
	ContactEmail       string            `json:"contactEmail"`
	ContactPhone       string            `json:"contactPhone"`
	Address            string            `json:"address"`
	SocialLinks        map[string]string `json:"socialLinks"`
	MaintenanceMode    bool              `json:"maintenanceMode"`
	MaintenanceMessage string            `json:"maintenanceMessage"`
	UpdatedBy          *string           `json:"updatedBy,omitempty"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}
