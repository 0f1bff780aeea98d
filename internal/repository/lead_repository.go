package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/agency-admin/internal/domain"
)

// LeadRepository handles persistence for CRM leads and their activity timeline.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]domain.Lead, int64, error)
	CountByStatus(ctx context.Context) ([]domain.CountEntry, error)
	CountBySource(ctx context.Context) ([]domain.CountEntry, error)
	AddActivity(ctx context.Context, activity *domain.LeadActivity) error
	ListActivities(ctx context.Context, leadID string, limit int) ([]domain.LeadActivity, error)
}

// LeadFilter defines query params for lead listing.
type LeadFilter struct {
	Status     *domain.LeadStatus
	Source     *domain.LeadSource
	Priority   *domain.LeadPriority
	AssigneeID *string
	Search     string
	MinScore   *int
	MaxScore   *int
	Tags       []string
	Limit      int
	Offset     int
}

const leadColumns = `id, name, email, phone, company, position, website, status, source, priority, score,
        budget, timeline, notes, tags, assignee_id, created_at, updated_at, last_contacted_at, converted_at`

// priorityRank orders URGENT > HIGH > MEDIUM > LOW.
const priorityRank = `CASE priority WHEN 'URGENT' THEN 4 WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END`

type leadRepository struct {
	db DBTX
}

// NewLeadRepository instantiates the repository.
func NewLeadRepository(db DBTX) LeadRepository {
	return &leadRepository{db: db}
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var l domain.Lead
	if err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Email,
		&l.Phone,
		&l.Company,
		&l.Position,
		&l.Website,
		&l.Status,
		&l.Source,
		&l.Priority,
		&l.Score,
		&l.Budget,
		&l.Timeline,
		&l.Notes,
		&l.Tags,
		&l.AssigneeID,
		&l.CreatedAt,
		&l.UpdatedAt,
		&l.LastContactedAt,
		&l.ConvertedAt,
	); err != nil {
		return nil, err
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return &l, nil
}

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	const query = `
        INSERT INTO leads (name, email, phone, company, position, website, status, source, priority, score,
            budget, timeline, notes, tags, assignee_id, last_contacted_at, converted_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.Position,
		lead.Website,
		lead.Status,
		lead.Source,
		lead.Priority,
		lead.Score,
		lead.Budget,
		lead.Timeline,
		lead.Notes,
		lead.Tags,
		lead.AssigneeID,
		lead.LastContactedAt,
		lead.ConvertedAt,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
}

func (r *leadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	const query = `
        UPDATE leads
        SET name=$1, email=$2, phone=$3, company=$4, position=$5, website=$6, status=$7, source=$8,
            priority=$9, score=$10, budget=$11, timeline=$12, notes=$13, tags=$14, assignee_id=$15,
            last_contacted_at=$16, converted_at=$17, updated_at=NOW()
        WHERE id=$18
        RETURNING updated_at`

	return r.db.QueryRow(ctx, query,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.Position,
		lead.Website,
		lead.Status,
		lead.Source,
		lead.Priority,
		lead.Score,
		lead.Budget,
		lead.Timeline,
		lead.Notes,
		lead.Tags,
		lead.AssigneeID,
		lead.LastContactedAt,
		lead.ConvertedAt,
		lead.ID,
	).Scan(&lead.UpdatedAt)
}

func (r *leadRepository) Delete(ctx context.Context, id string) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM leads WHERE id=$1`, id))
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	return scanLead(r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id=$1`, id))
}

func (r *leadRepository) List(ctx context.Context, filter LeadFilter) ([]domain.Lead, int64, error) {
	var where whereBuilder
	if filter.Status != nil {
		where.add("status=$%d", *filter.Status)
	}
	if filter.Source != nil {
		where.add("source=$%d", *filter.Source)
	}
	if filter.Priority != nil {
		where.add("priority=$%d", *filter.Priority)
	}
	if filter.AssigneeID != nil {
		where.add("assignee_id=$%d", *filter.AssigneeID)
	}
	if filter.Search != "" {
		where.add("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(COALESCE(company, '')) LIKE $%d)",
			likePattern(filter.Search))
	}
	if filter.MinScore != nil {
		where.add("score >= $%d", *filter.MinScore)
	}
	if filter.MaxScore != nil {
		where.add("score <= $%d", *filter.MaxScore)
	}
	if len(filter.Tags) > 0 {
		where.add("tags && $%d", filter.Tags)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset, 10)
	query := `SELECT ` + leadColumns + ` FROM leads` + where.sql() +
		" ORDER BY " + priorityRank + " DESC, score DESC, created_at DESC" +
		fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *lead)
	}
	return result, total, rows.Err()
}

func (r *leadRepository) CountByStatus(ctx context.Context) ([]domain.CountEntry, error) {
	return groupCount(ctx, r.db, `SELECT status, COUNT(*) FROM leads GROUP BY status ORDER BY COUNT(*) DESC`)
}

func (r *leadRepository) CountBySource(ctx context.Context) ([]domain.CountEntry, error) {
	return groupCount(ctx, r.db, `SELECT source, COUNT(*) FROM leads GROUP BY source ORDER BY COUNT(*) DESC`)
}

func (r *leadRepository) AddActivity(ctx context.Context, activity *domain.LeadActivity) error {
	const query = `
        INSERT INTO lead_activities (lead_id, type, description, user_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		activity.LeadID,
		activity.Type,
		activity.Description,
		activity.UserID,
	).Scan(&activity.ID, &activity.CreatedAt)
}

func (r *leadRepository) ListActivities(ctx context.Context, leadID string, limit int) ([]domain.LeadActivity, error) {
	limit, _ = pageBounds(limit, 0, 50)
	query := fmt.Sprintf(`
        SELECT id, lead_id, type, description, user_id, created_at
        FROM lead_activities WHERE lead_id=$1
        ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LeadActivity
	for rows.Next() {
		var a domain.LeadActivity
		if err := rows.Scan(&a.ID, &a.LeadID, &a.Type, &a.Description, &a.UserID, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func groupCount(ctx context.Context, db DBTX, query string, args ...any) ([]domain.CountEntry, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CountEntry
	for rows.Next() {
		var entry domain.CountEntry
		if err := rows.Scan(&entry.Key, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
