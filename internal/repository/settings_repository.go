package repository

import (
	"context"

	"github.com/spec-kit/agency-admin/internal/domain"
)

const siteSettingsID = "default"

// SettingsRepository persists the site settings singleton.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.SiteSettings, error)
	Update(ctx context.Context, settings *domain.SiteSettings) error
}

type settingsRepository struct {
	db DBTX
}

// NewSettingsRepository instantiates the repository.
func NewSettingsRepository(db DBTX) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get returns the singleton, creating it with defaults on first access.
func (r *settingsRepository) Get(ctx context.Context) (*domain.SiteSettings, error) {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO site_settings (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, siteSettingsID); err != nil {
		return nil, err
	}

	const query = `
        SELECT id, site_name, site_description, contact_email, contact_phone, address, social_links,
            maintenance_mode, maintenance_message, updated_by, updated_at
        FROM site_settings WHERE id=$1`

	var s domain.SiteSettings
	if err := r.db.QueryRow(ctx, query, siteSettingsID).Scan(
		&s.ID,
		&s.SiteName,
		&s.SiteDescription,
		&s.ContactEmail,
		&s.ContactPhone,
		&s.Address,
		&s.SocialLinks,
		&s.MaintenanceMode,
		&s.MaintenanceMessage,
		&s.UpdatedBy,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if s.SocialLinks == nil {
		s.SocialLinks = map[string]string{}
	}
	return &s, nil
}

func (r *settingsRepository) Update(ctx context.Context, settings *domain.SiteSettings) error {
	const query = `
        UPDATE site_settings
        SET site_name=$1, site_description=$2, contact_email=$3, contact_phone=$4, address=$5,
            social_links=$6, maintenance_mode=$7, maintenance_message=$8, updated_by=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`

	return r.db.QueryRow(ctx, query,
		settings.SiteName,
		settings.SiteDescription,
		settings.ContactEmail,
		settings.ContactPhone,
		settings.Address,
		settings.SocialLinks,
		settings.MaintenanceMode,
		settings.MaintenanceMessage,
		settings.UpdatedBy,
		siteSettingsID,
	).Scan(&settings.UpdatedAt)
}
