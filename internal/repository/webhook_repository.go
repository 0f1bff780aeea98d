package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/agency-admin/internal/domain"
)

// WebhookRepository persists subscriptions and their delivery logs.
type WebhookRepository interface {
	CreateSubscription(ctx context.Context, sub *domain.WebhookSubscription) error
	UpdateSubscription(ctx context.Context, sub *domain.WebhookSubscription) error
	UpdateSecret(ctx context.Context, id, secret string) error
	DeleteSubscription(ctx context.Context, id string) error
	GetSubscription(ctx context.Context, id string) (*domain.WebhookSubscription, error)
	ListSubscriptions(ctx context.Context) ([]domain.WebhookSubscription, error)
	ListActiveForEvent(ctx context.Context, event domain.WebhookEvent) ([]domain.WebhookSubscription, error)
	CreateLog(ctx context.Context, log *domain.WebhookLog) error
	ListLogs(ctx context.Context, subscriptionID string, limit int) ([]domain.WebhookLog, error)
}

const webhookColumns = `id, name, url, events, secret, description, is_active, created_at, updated_at`

type webhookRepository struct {
	db DBTX
}

// NewWebhookRepository instantiates the repository.
func NewWebhookRepository(db DBTX) WebhookRepository {
	return &webhookRepository{db: db}
}

func scanSubscription(row rowScanner) (*domain.WebhookSubscription, error) {
	var s domain.WebhookSubscription
	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.URL,
		&s.Events,
		&s.Secret,
		&s.Description,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *webhookRepository) CreateSubscription(ctx context.Context, sub *domain.WebhookSubscription) error {
	const query = `
        INSERT INTO webhook_subscriptions (name, url, events, secret, description, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		sub.Name,
		sub.URL,
		sub.Events,
		sub.Secret,
		sub.Description,
		sub.IsActive,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
}

func (r *webhookRepository) UpdateSubscription(ctx context.Context, sub *domain.WebhookSubscription) error {
	const query = `
        UPDATE webhook_subscriptions
        SET name=$1, url=$2, events=$3, description=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	return r.db.QueryRow(ctx, query,
		sub.Name,
		sub.URL,
		sub.Events,
		sub.Description,
		sub.IsActive,
		sub.ID,
	).Scan(&sub.UpdatedAt)
}

func (r *webhookRepository) UpdateSecret(ctx context.Context, id, secret string) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE webhook_subscriptions SET secret=$1, updated_at=NOW() WHERE id=$2`, secret, id))
}

func (r *webhookRepository) DeleteSubscription(ctx context.Context, id string) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM webhook_subscriptions WHERE id=$1`, id))
}

func (r *webhookRepository) GetSubscription(ctx context.Context, id string) (*domain.WebhookSubscription, error) {
	return scanSubscription(r.db.QueryRow(ctx,
		`SELECT `+webhookColumns+` FROM webhook_subscriptions WHERE id=$1`, id))
}

func (r *webhookRepository) ListSubscriptions(ctx context.Context) ([]domain.WebhookSubscription, error) {
	return r.querySubscriptions(ctx,
		`SELECT `+webhookColumns+` FROM webhook_subscriptions ORDER BY created_at DESC`)
}

func (r *webhookRepository) ListActiveForEvent(ctx context.Context, event domain.WebhookEvent) ([]domain.WebhookSubscription, error) {
	return r.querySubscriptions(ctx,
		`SELECT `+webhookColumns+` FROM webhook_subscriptions WHERE is_active=TRUE AND $1 = ANY(events)`,
		string(event))
}

func (r *webhookRepository) querySubscriptions(ctx context.Context, query string, args ...any) ([]domain.WebhookSubscription, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WebhookSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sub)
	}
	return result, rows.Err()
}

func (r *webhookRepository) CreateLog(ctx context.Context, log *domain.WebhookLog) error {
	const query = `
        INSERT INTO webhook_logs (subscription_id, event, payload, response, status_code, success, error, retries_count)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		log.SubscriptionID,
		log.Event,
		log.Payload,
		log.Response,
		log.StatusCode,
		log.Success,
		log.Error,
		log.RetriesCount,
	).Scan(&log.ID, &log.CreatedAt)
}

func (r *webhookRepository) ListLogs(ctx context.Context, subscriptionID string, limit int) ([]domain.WebhookLog, error) {
	limit, _ = pageBounds(limit, 0, 50)
	query := fmt.Sprintf(`
        SELECT id, subscription_id, event, payload, response, status_code, success, error, retries_count, created_at
        FROM webhook_logs WHERE subscription_id=$1
        ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := r.db.Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WebhookLog
	for rows.Next() {
		var l domain.WebhookLog
		if err := rows.Scan(
			&l.ID,
			&l.SubscriptionID,
			&l.Event,
			&l.Payload,
			&l.Response,
			&l.StatusCode,
			&l.Success,
			&l.Error,
			&l.RetriesCount,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
