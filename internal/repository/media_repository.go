package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/agency-admin/internal/domain"
)

// MediaRepository persists media library records.
type MediaRepository interface {
	Create(ctx context.Context, media *domain.Media) error
	Update(ctx context.Context, media *domain.Media) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	GetByID(ctx context.Context, id string) (*domain.Media, error)
	List(ctx context.Context, filter MediaFilter) ([]domain.Media, int64, error)
	CountByType(ctx context.Context) ([]domain.CountEntry, error)
	TotalSize(ctx context.Context) (int64, error)
	Folders(ctx context.Context) ([]string, error)
}

// MediaFilter defines query params for the media listing.
// RootOnly selects records without a folder and wins over Folder.
type MediaFilter struct {
	Type     *domain.MediaType
	Folder   *string
	RootOnly bool
	Search   string
	Limit    int
	Offset   int
}

const mediaColumns = `id, name, url, key, type, mime_type, size, width, height, alt, description, folder,
        uploaded_by_id, created_at, updated_at`

type mediaRepository struct {
	db DBTX
}

// NewMediaRepository instantiates the repository.
func NewMediaRepository(db DBTX) MediaRepository {
	return &mediaRepository{db: db}
}

func scanMedia(row rowScanner) (*domain.Media, error) {
	var m domain.Media
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.URL,
		&m.Key,
		&m.Type,
		&m.MimeType,
		&m.Size,
		&m.Width,
		&m.Height,
		&m.Alt,
		&m.Description,
		&m.Folder,
		&m.UploadedByID,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mediaRepository) Create(ctx context.Context, media *domain.Media) error {
	const query = `
        INSERT INTO media (name, url, key, type, mime_type, size, width, height, alt, description, folder, uploaded_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		media.Name,
		media.URL,
		media.Key,
		media.Type,
		media.MimeType,
		media.Size,
		media.Width,
		media.Height,
		media.Alt,
		media.Description,
		media.Folder,
		media.UploadedByID,
	).Scan(&media.ID, &media.CreatedAt, &media.UpdatedAt)
}

// Update writes the editable metadata only; the stored file never changes.
func (r *mediaRepository) Update(ctx context.Context, media *domain.Media) error {
	const query = `
        UPDATE media
        SET name=$1, alt=$2, description=$3, folder=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`

	return r.db.QueryRow(ctx, query,
		media.Name,
		media.Alt,
		media.Description,
		media.Folder,
		media.ID,
	).Scan(&media.UpdatedAt)
}

func (r *mediaRepository) Delete(ctx context.Context, id string) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM media WHERE id=$1`, id))
}

func (r *mediaRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM media WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *mediaRepository) GetByID(ctx context.Context, id string) (*domain.Media, error) {
	return scanMedia(r.db.QueryRow(ctx, `SELECT `+mediaColumns+` FROM media WHERE id=$1`, id))
}

func (r *mediaRepository) List(ctx context.Context, filter MediaFilter) ([]domain.Media, int64, error) {
	var where whereBuilder
	if filter.Type != nil {
		where.add("type=$%d", *filter.Type)
	}
	switch {
	case filter.RootOnly:
		where.clauses = append(where.clauses, "folder IS NULL")
	case filter.Folder != nil:
		where.add("folder=$%d", *filter.Folder)
	}
	if filter.Search != "" {
		where.add("(LOWER(name) LIKE $%d OR LOWER(COALESCE(alt, '')) LIKE $%d OR LOWER(COALESCE(description, '')) LIKE $%d)",
			likePattern(filter.Search))
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM media`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset, 24)
	query := `SELECT ` + mediaColumns + ` FROM media` + where.sql() +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Media
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *media)
	}
	return result, total, rows.Err()
}

func (r *mediaRepository) CountByType(ctx context.Context) ([]domain.CountEntry, error) {
	return groupCount(ctx, r.db, `SELECT type, COUNT(*) FROM media GROUP BY type ORDER BY type`)
}

func (r *mediaRepository) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(size), 0)::BIGINT FROM media`).Scan(&total)
	return total, err
}

func (r *mediaRepository) Folders(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT folder FROM media WHERE folder IS NOT NULL ORDER BY folder`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := []string{}
	for rows.Next() {
		var folder string
		if err := rows.Scan(&folder); err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}
