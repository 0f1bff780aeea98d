package repository

import (
	"context"

	"github.com/spec-kit/agency-admin/internal/domain"
)

// EmailTemplateRepository persists transactional email templates.
type EmailTemplateRepository interface {
	Create(ctx context.Context, tpl *domain.EmailTemplate) error
	Update(ctx context.Context, tpl *domain.EmailTemplate) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.EmailTemplate, error)
	GetActiveByName(ctx context.Context, name string) (*domain.EmailTemplate, error)
	List(ctx context.Context, templateType *domain.EmailTemplateType) ([]domain.EmailTemplate, error)
}

const emailTemplateColumns = `id, name, type, subject, body, variables, is_active, created_at, updated_at`

type emailTemplateRepository struct {
	db DBTX
}

// NewEmailTemplateRepository instantiates the repository.
func NewEmailTemplateRepository(db DBTX) EmailTemplateRepository {
	return &emailTemplateRepository{db: db}
}

func scanEmailTemplate(row rowScanner) (*domain.EmailTemplate, error) {
	var t domain.EmailTemplate
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Type,
		&t.Subject,
		&t.Body,
		&t.Variables,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if t.Variables == nil {
		t.Variables = []string{}
	}
	return &t, nil
}

func (r *emailTemplateRepository) Create(ctx context.Context, tpl *domain.EmailTemplate) error {
	const query = `
        INSERT INTO email_templates (name, type, subject, body, variables, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		tpl.Name,
		tpl.Type,
		tpl.Subject,
		tpl.Body,
		tpl.Variables,
		tpl.IsActive,
	).Scan(&tpl.ID, &tpl.CreatedAt, &tpl.UpdatedAt)
}

func (r *emailTemplateRepository) Update(ctx context.Context, tpl *domain.EmailTemplate) error {
	const query = `
        UPDATE email_templates
        SET name=$1, type=$2, subject=$3, body=$4, variables=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`

	return r.db.QueryRow(ctx, query,
		tpl.Name,
		tpl.Type,
		tpl.Subject,
		tpl.Body,
		tpl.Variables,
		tpl.IsActive,
		tpl.ID,
	).Scan(&tpl.UpdatedAt)
}

func (r *emailTemplateRepository) Delete(ctx context.Context, id string) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM email_templates WHERE id=$1`, id))
}

func (r *emailTemplateRepository) GetByID(ctx context.Context, id string) (*domain.EmailTemplate, error) {
	return scanEmailTemplate(r.db.QueryRow(ctx,
		`SELECT `+emailTemplateColumns+` FROM email_templates WHERE id=$1`, id))
}

func (r *emailTemplateRepository) GetActiveByName(ctx context.Context, name string) (*domain.EmailTemplate, error) {
	return scanEmailTemplate(r.db.QueryRow(ctx,
		`SELECT `+emailTemplateColumns+` FROM email_templates WHERE name=$1 AND is_active=TRUE`, name))
}

func (r *emailTemplateRepository) List(ctx context.Context, templateType *domain.EmailTemplateType) ([]domain.EmailTemplate, error) {
	var where whereBuilder
	if templateType != nil {
		where.add("type=$%d", *templateType)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+emailTemplateColumns+` FROM email_templates`+where.sql()+` ORDER BY name`, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EmailTemplate
	for rows.Next() {
		tpl, err := scanEmailTemplate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tpl)
	}
	return result, rows.Err()
}
