package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/agency-admin/internal/domain"
)

// ContentRepository handles persistence for blog posts, case studies and services.
type ContentRepository interface {
	Create(ctx context.Context, content *domain.Content) error
	Update(ctx context.Context, content *domain.Content) error
	Delete(ctx context.Context, kind domain.ContentKind, id string) error
	GetByID(ctx context.Context, kind domain.ContentKind, id string) (*domain.Content, error)
	GetBySlug(ctx context.Context, kind domain.ContentKind, slug string) (*domain.Content, error)
	SlugExists(ctx context.Context, kind domain.ContentKind, slug, excludeID string) (bool, error)
	List(ctx context.Context, filter ContentFilter) ([]domain.Content, int64, error)
}

// ContentFilter defines query params for content listing.
type ContentFilter struct {
	Kind     domain.ContentKind
	Status   *domain.ContentStatus
	Category string
	Featured *bool
	Search   string
	Limit    int
	Offset   int
}

const contentColumns = `id, kind, title, slug, excerpt, body, image, category, tags, status, featured, read_time,
        client, meta_title, meta_description, author_id, published_at, created_at, updated_at`

type contentRepository struct {
	db DBTX
}

// NewContentRepository instantiates the repository.
func NewContentRepository(db DBTX) ContentRepository {
	return &contentRepository{db: db}
}

func scanContent(row rowScanner) (*domain.Content, error) {
	var c domain.Content
	if err := row.Scan(
		&c.ID,
		&c.Kind,
		&c.Title,
		&c.Slug,
		&c.Excerpt,
		&c.Body,
		&c.Image,
		&c.Category,
		&c.Tags,
		&c.Status,
		&c.Featured,
		&c.ReadTime,
		&c.Client,
		&c.MetaTitle,
		&c.MetaDescription,
		&c.AuthorID,
		&c.PublishedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}

func (r *contentRepository) Create(ctx context.Context, content *domain.Content) error {
	const query = `
        INSERT INTO contents (kind, title, slug, excerpt, body, image, category, tags, status, featured,
            read_time, client, meta_title, meta_description, author_id, published_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		content.Kind,
		content.Title,
		content.Slug,
		content.Excerpt,
		content.Body,
		content.Image,
		content.Category,
		content.Tags,
		content.Status,
		content.Featured,
		content.ReadTime,
		content.Client,
		content.MetaTitle,
		content.MetaDescription,
		content.AuthorID,
		content.PublishedAt,
	).Scan(&content.ID, &content.CreatedAt, &content.UpdatedAt)
}

func (r *contentRepository) Update(ctx context.Context, content *domain.Content) error {
	const query = `
        UPDATE contents
        SET title=$1, slug=$2, excerpt=$3, body=$4, image=$5, category=$6, tags=$7, status=$8, featured=$9,
            read_time=$10, client=$11, meta_title=$12, meta_description=$13, published_at=$14, updated_at=NOW()
        WHERE id=$15 AND kind=$16
        RETURNING updated_at`

	return r.db.QueryRow(ctx, query,
		content.Title,
		content.Slug,
		content.Excerpt,
		content.Body,
		content.Image,
		content.Category,
		content.Tags,
		content.Status,
		content.Featured,
		content.ReadTime,
		content.Client,
		content.MetaTitle,
		content.MetaDescription,
		content.PublishedAt,
		content.ID,
		content.Kind,
	).Scan(&content.UpdatedAt)
}

func (r *contentRepository) Delete(ctx context.Context, kind domain.ContentKind, id string) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM contents WHERE id=$1 AND kind=$2`, id, kind))
}

func (r *contentRepository) GetByID(ctx context.Context, kind domain.ContentKind, id string) (*domain.Content, error) {
	return scanContent(r.db.QueryRow(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE id=$1 AND kind=$2`, id, kind))
}

func (r *contentRepository) GetBySlug(ctx context.Context, kind domain.ContentKind, slug string) (*domain.Content, error) {
	return scanContent(r.db.QueryRow(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE slug=$1 AND kind=$2`, slug, kind))
}

func (r *contentRepository) SlugExists(ctx context.Context, kind domain.ContentKind, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM contents WHERE kind=$1 AND slug=$2 AND id<>$3)`,
		kind, slug, excludeID,
	).Scan(&exists)
	return exists, err
}

func (r *contentRepository) List(ctx context.Context, filter ContentFilter) ([]domain.Content, int64, error) {
	var where whereBuilder
	where.add("kind=$%d", filter.Kind)
	if filter.Status != nil {
		where.add("status=$%d", *filter.Status)
	}
	if filter.Category != "" {
		where.add("category=$%d", filter.Category)
	}
	if filter.Featured != nil {
		where.add("featured=$%d", *filter.Featured)
	}
	if filter.Search != "" {
		where.add("(LOWER(title) LIKE $%d OR LOWER(excerpt) LIKE $%d)", likePattern(filter.Search))
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contents`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset, 20)
	query := `SELECT ` + contentColumns + ` FROM contents` + where.sql() +
		fmt.Sprintf(" ORDER BY COALESCE(published_at, created_at) DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *content)
	}
	return result, total, rows.Err()
}
