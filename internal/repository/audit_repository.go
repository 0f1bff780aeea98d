package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/agency-admin/internal/domain"
)

// AuditRepository persists the append-only audit trail.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditLog, int64, error)
	Count(ctx context.Context, since *time.Time) (int64, error)
	TopActions(ctx context.Context, limit int) ([]domain.CountEntry, error)
	TopResources(ctx context.Context, limit int) ([]domain.CountEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditFilter defines query params for audit listing.
type AuditFilter struct {
	Action   *domain.AuditAction
	Resource *domain.AuditResource
	UserID   *string
	Search   string
	Limit    int
	Offset   int
}

const auditColumns = `id, user_id, action, resource, resource_id, details, ip_address, user_agent, created_at`

type auditRepository struct {
	db DBTX
}

// NewAuditRepository instantiates the repository.
func NewAuditRepository(db DBTX) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (user_id, action, resource, resource_id, details, ip_address, user_agent)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		entry.UserID,
		entry.Action,
		entry.Resource,
		entry.ResourceID,
		entry.Details,
		entry.IPAddress,
		entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]domain.AuditLog, int64, error) {
	var where whereBuilder
	if filter.Action != nil {
		where.add("action=$%d", *filter.Action)
	}
	if filter.Resource != nil {
		where.add("resource=$%d", *filter.Resource)
	}
	if filter.UserID != nil {
		where.add("user_id=$%d", *filter.UserID)
	}
	if filter.Search != "" {
		where.add("(LOWER(details) LIKE $%d OR LOWER(COALESCE(resource_id, '')) LIKE $%d)", likePattern(filter.Search))
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset, 50)
	query := `SELECT ` + auditColumns + ` FROM audit_logs` + where.sql() +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.AuditLog
	for rows.Next() {
		var e domain.AuditLog
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Action,
			&e.Resource,
			&e.ResourceID,
			&e.Details,
			&e.IPAddress,
			&e.UserAgent,
			&e.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, e)
	}
	return result, total, rows.Err()
}

func (r *auditRepository) Count(ctx context.Context, since *time.Time) (int64, error) {
	var total int64
	if since == nil {
		err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&total)
		return total, err
	}
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs WHERE created_at >= $1`, *since).Scan(&total)
	return total, err
}

func (r *auditRepository) TopActions(ctx context.Context, limit int) ([]domain.CountEntry, error) {
	return groupCount(ctx, r.db,
		`SELECT action, COUNT(*) FROM audit_logs GROUP BY action ORDER BY COUNT(*) DESC LIMIT $1`, limit)
}

func (r *auditRepository) TopResources(ctx context.Context, limit int) ([]domain.CountEntry, error) {
	return groupCount(ctx, r.db,
		`SELECT resource, COUNT(*) FROM audit_logs GROUP BY resource ORDER BY COUNT(*) DESC LIMIT $1`, limit)
}

func (r *auditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
