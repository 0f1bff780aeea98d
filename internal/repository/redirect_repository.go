package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/agency-admin/internal/domain"
)

// RedirectRepository persists site redirects.
type RedirectRepository interface {
	Create(ctx context.Context, redirect *domain.Redirect) error
	Update(ctx context.Context, redirect *domain.Redirect) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Redirect, error)
	GetActiveBySource(ctx context.Context, source string) (*domain.Redirect, error)
	SourceExists(ctx context.Context, source, excludeID string) (bool, error)
	List(ctx context.Context, filter RedirectFilter) ([]domain.Redirect, int64, error)
	Stats(ctx context.Context) (domain.RedirectStats, error)
	IncrementHits(ctx context.Context, source string) error
}

// RedirectFilter defines query params for the redirect listing.
type RedirectFilter struct {
	IsActive *bool
	Search   string
	Limit    int
	Offset   int
}

const redirectColumns = `id, source, destination, type, description, is_active, hit_count, created_at, updated_at`

type redirectRepository struct {
	db DBTX
}

// NewRedirectRepository instantiates the repository.
func NewRedirectRepository(db DBTX) RedirectRepository {
	return &redirectRepository{db: db}
}

func scanRedirect(row rowScanner) (*domain.Redirect, error) {
	var rd domain.Redirect
	if err := row.Scan(
		&rd.ID,
		&rd.Source,
		&rd.Destination,
		&rd.Type,
		&rd.Description,
		&rd.IsActive,
		&rd.HitCount,
		&rd.CreatedAt,
		&rd.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rd, nil
}

func (r *redirectRepository) Create(ctx context.Context, redirect *domain.Redirect) error {
	const query = `
        INSERT INTO redirects (source, destination, type, description, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, hit_count, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		redirect.Source,
		redirect.Destination,
		redirect.Type,
		redirect.Description,
		redirect.IsActive,
	).Scan(&redirect.ID, &redirect.HitCount, &redirect.CreatedAt, &redirect.UpdatedAt)
}

func (r *redirectRepository) Update(ctx context.Context, redirect *domain.Redirect) error {
	const query = `
        UPDATE redirects
        SET source=$1, destination=$2, type=$3, description=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	return r.db.QueryRow(ctx, query,
		redirect.Source,
		redirect.Destination,
		redirect.Type,
		redirect.Description,
		redirect.IsActive,
		redirect.ID,
	).Scan(&redirect.UpdatedAt)
}

func (r *redirectRepository) Delete(ctx context.Context, id string) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM redirects WHERE id=$1`, id))
}

func (r *redirectRepository) GetByID(ctx context.Context, id string) (*domain.Redirect, error) {
	return scanRedirect(r.db.QueryRow(ctx, `SELECT `+redirectColumns+` FROM redirects WHERE id=$1`, id))
}

func (r *redirectRepository) GetActiveBySource(ctx context.Context, source string) (*domain.Redirect, error) {
	return scanRedirect(r.db.QueryRow(ctx,
		`SELECT `+redirectColumns+` FROM redirects WHERE source=$1 AND is_active=TRUE`, source))
}

func (r *redirectRepository) SourceExists(ctx context.Context, source, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM redirects WHERE source=$1 AND id<>$2)`, source, excludeID,
	).Scan(&exists)
	return exists, err
}

func (r *redirectRepository) List(ctx context.Context, filter RedirectFilter) ([]domain.Redirect, int64, error) {
	var where whereBuilder
	if filter.IsActive != nil {
		where.add("is_active=$%d", *filter.IsActive)
	}
	if filter.Search != "" {
		where.add("(LOWER(source) LIKE $%d OR LOWER(destination) LIKE $%d OR LOWER(COALESCE(description, '')) LIKE $%d)",
			likePattern(filter.Search))
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM redirects`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset, 20)
	query := `SELECT ` + redirectColumns + ` FROM redirects` + where.sql() +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Redirect
	for rows.Next() {
		redirect, err := scanRedirect(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *redirect)
	}
	return result, total, rows.Err()
}

func (r *redirectRepository) Stats(ctx context.Context) (domain.RedirectStats, error) {
	var stats domain.RedirectStats
	err := r.db.QueryRow(ctx, `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active), COALESCE(SUM(hit_count), 0)::BIGINT
        FROM redirects`,
	).Scan(&stats.Total, &stats.Active, &stats.TotalHits)
	stats.Inactive = stats.Total - stats.Active
	return stats, err
}

func (r *redirectRepository) IncrementHits(ctx context.Context, source string) error {
	return expectOne(r.db.Exec(ctx, `UPDATE redirects SET hit_count = hit_count + 1 WHERE source=$1`, source))
}
