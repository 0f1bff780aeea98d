package repository

import (
	"context"
	"time"

	"github.com/spec-kit/agency-admin/internal/domain"
)

// APIKeyRepository persists hashed API credentials.
type APIKeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) error
	Update(ctx context.Context, key *domain.APIKey) error
	Rotate(ctx context.Context, id, keyHash, keyPrefix string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.APIKey, error)
	GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	ListByCreator(ctx context.Context, userID string) ([]domain.APIKey, error)
	RecordUsage(ctx context.Context, id string, at time.Time) error
}

const apiKeyColumns = `id, name, description, key_hash, key_prefix, scopes, is_active, requests_per_minute,
        requests_per_hour, usage_count, last_used_at, expires_at, created_by, created_at, updated_at`

type apiKeyRepository struct {
	db DBTX
}

// NewAPIKeyRepository instantiates the repository.
func NewAPIKeyRepository(db DBTX) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

func scanAPIKey(row rowScanner) (*domain.APIKey, error) {
	var k domain.APIKey
	if err := row.Scan(
		&k.ID,
		&k.Name,
		&k.Description,
		&k.KeyHash,
		&k.KeyPrefix,
		&k.Scopes,
		&k.IsActive,
		&k.RequestsPerMinute,
		&k.RequestsPerHour,
		&k.UsageCount,
		&k.LastUsedAt,
		&k.ExpiresAt,
		&k.CreatedBy,
		&k.CreatedAt,
		&k.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if k.Scopes == nil {
		k.Scopes = []string{}
	}
	return &k, nil
}

func (r *apiKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	const query = `
        INSERT INTO api_keys (name, description, key_hash, key_prefix, scopes, is_active,
            requests_per_minute, requests_per_hour, expires_at, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, usage_count, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		key.Name,
		key.Description,
		key.KeyHash,
		key.KeyPrefix,
		key.Scopes,
		key.IsActive,
		key.RequestsPerMinute,
		key.RequestsPerHour,
		key.ExpiresAt,
		key.CreatedBy,
	).Scan(&key.ID, &key.UsageCount, &key.CreatedAt, &key.UpdatedAt)
}

func (r *apiKeyRepository) Update(ctx context.Context, key *domain.APIKey) error {
	const query = `
        UPDATE api_keys
        SET name=$1, description=$2, scopes=$3, is_active=$4, requests_per_minute=$5,
            requests_per_hour=$6, expires_at=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`

	return r.db.QueryRow(ctx, query,
		key.Name,
		key.Description,
		key.Scopes,
		key.IsActive,
		key.RequestsPerMinute,
		key.RequestsPerHour,
		key.ExpiresAt,
		key.ID,
	).Scan(&key.UpdatedAt)
}

func (r *apiKeyRepository) Rotate(ctx context.Context, id, keyHash, keyPrefix string) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE api_keys SET key_hash=$1, key_prefix=$2, usage_count=0, last_used_at=NULL, updated_at=NOW() WHERE id=$3`,
		keyHash, keyPrefix, id))
}

func (r *apiKeyRepository) Delete(ctx context.Context, id string) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM api_keys WHERE id=$1`, id))
}

func (r *apiKeyRepository) GetByID(ctx context.Context, id string) (*domain.APIKey, error) {
	return scanAPIKey(r.db.QueryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE id=$1`, id))
}

func (r *apiKeyRepository) GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	return scanAPIKey(r.db.QueryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash=$1`, keyHash))
}

func (r *apiKeyRepository) ListByCreator(ctx context.Context, userID string) ([]domain.APIKey, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE created_by=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *key)
	}
	return result, rows.Err()
}

func (r *apiKeyRepository) RecordUsage(ctx context.Context, id string, at time.Time) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE api_keys SET usage_count=usage_count+1, last_used_at=$1 WHERE id=$2`, at, id))
}
