package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/repository"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const (
	mediaPath     = "/admin/media"
	mediaPageSize = 24
	// rootFolder selects files stored outside any folder.
	rootFolder = "root"
)

// MediaService keeps the library records of files uploaded to the storage
// provider. The files themselves are never touched here.
type MediaService struct {
	repo   repository.MediaRepository
	audit  *AuditService
	cache  CacheInvalidator
	logger *zap.Logger
}

// MediaInput describes a file that has already been uploaded.
type MediaInput struct {
	Name        string
	URL         string
	Key         string
	Type        domain.MediaType
	MimeType    string
	Size        int64
	Width       *int
	Height      *int
	Alt         *string
	Description *string
	Folder      *string
}

// MediaUpdateInput carries the editable metadata; nil means unchanged and an
// empty string clears the field.
type MediaUpdateInput struct {
	Name        *string
	Alt         *string
	Description *string
	Folder      *string
}

// MediaListInput filters the library listing. Folder "root" selects files
// without a folder.
type MediaListInput struct {
	Type   *domain.MediaType
	Folder *string
	Search string
	Page   int
	Limit  int
}

// NewMediaService constructs the service.
func NewMediaService(repo repository.MediaRepository, audit *AuditService, cache CacheInvalidator, logger *zap.Logger) *MediaService {
	if cache == nil {
		cache = noopCache{}
	}
	return &MediaService{repo: repo, audit: audit, cache: cache, logger: logger}
}

// Create registers an uploaded file under the caller's name.
func (s *MediaService) Create(ctx context.Context, session domain.Session, input MediaInput) (*domain.Media, error) {
	actor, err := requirePermission(session, domain.PermMediaUpload)
	if err != nil {
		return nil, err
	}

	media := &domain.Media{
		Name:         strings.TrimSpace(input.Name),
		URL:          strings.TrimSpace(input.URL),
		Key:          strings.TrimSpace(input.Key),
		Type:         input.Type,
		MimeType:     strings.TrimSpace(input.MimeType),
		Size:         input.Size,
		Width:        input.Width,
		Height:       input.Height,
		Alt:          optional(input.Alt),
		Description:  optional(input.Description),
		Folder:       optional(input.Folder),
		UploadedByID: actor.ID,
	}
	if err := validateMedia(media); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, media); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("file already registered", map[string]any{"key": media.Key})
		}
		return nil, storeError(s.logger, "create", "media", err)
	}

	s.cache.MarkStale(ctx, mediaPath)
	s.audit.Track(ctx, session, domain.AuditActionCreate, domain.AuditResourceMedia, media.ID,
		fmt.Sprintf("Enviada mídia %s", media.Name))
	return media, nil
}

// Update changes the name, alt text, description or folder of a file.
func (s *MediaService) Update(ctx context.Context, session domain.Session, id string, input MediaUpdateInput) (*domain.Media, error) {
	if _, err := requirePermission(session, domain.PermMediaUpload); err != nil {
		return nil, err
	}
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "media", err)
	}

	if input.Name != nil {
		media.Name = strings.TrimSpace(*input.Name)
	}
	if input.Alt != nil {
		media.Alt = optional(input.Alt)
	}
	if input.Description != nil {
		media.Description = optional(input.Description)
	}
	if input.Folder != nil {
		media.Folder = optional(input.Folder)
	}
	if err := validateMedia(media); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, media); err != nil {
		return nil, storeError(s.logger, "update", "media", err)
	}

	s.cache.MarkStale(ctx, mediaPath)
	s.audit.Track(ctx, session, domain.AuditActionUpdate, domain.AuditResourceMedia, media.ID,
		fmt.Sprintf("Atualizada mídia %s", media.Name))
	return media, nil
}

// Delete removes one library record.
func (s *MediaService) Delete(ctx context.Context, session domain.Session, id string) error {
	if _, err := requirePermission(session, domain.PermMediaUpload); err != nil {
		return err
	}
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return storeError(s.logger, "load", "media", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(s.logger, "delete", "media", err)
	}

	s.cache.MarkStale(ctx, mediaPath)
	s.audit.Track(ctx, session, domain.AuditActionDelete, domain.AuditResourceMedia, id,
		fmt.Sprintf("Deletada mídia %s", media.Name))
	return nil
}

// BulkDelete removes every listed record and reports how many existed.
func (s *MediaService) BulkDelete(ctx context.Context, session domain.Session, ids []string) (int64, error) {
	if _, err := requirePermission(session, domain.PermMediaUpload); err != nil {
		return 0, err
	}
	ids = cleanTags(ids)
	if len(ids) == 0 {
		return 0, apperrors.NewValidationError("invalid payload",
			map[string]any{"fields": map[string]any{"ids": "is required"}})
	}

	deleted, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, storeError(s.logger, "delete", "media", err)
	}
	if deleted == 0 {
		return 0, nil
	}

	s.cache.MarkStale(ctx, mediaPath)
	s.audit.Track(ctx, session, domain.AuditActionDelete, domain.AuditResourceMedia, "",
		fmt.Sprintf("Deletadas %d mídia(s)", deleted))
	return deleted, nil
}

// Get returns one record.
func (s *MediaService) Get(ctx context.Context, session domain.Session, id string) (*domain.Media, error) {
	if _, err := requireActor(session); err != nil {
		return nil, err
	}
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "media", err)
	}
	return media, nil
}

// List pages through the library, newest first.
func (s *MediaService) List(ctx context.Context, session domain.Session, input MediaListInput) (*domain.Page[domain.Media], error) {
	if _, err := requireActor(session); err != nil {
		return nil, err
	}
	page, limit := normalizePage(input.Page, input.Limit, mediaPageSize)

	filter := repository.MediaFilter{
		Type:   input.Type,
		Search: strings.TrimSpace(input.Search),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if input.Folder != nil {
		if folder := strings.TrimSpace(*input.Folder); folder == rootFolder {
			filter.RootOnly = true
		} else {
			filter.Folder = &folder
		}
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(s.logger, "list", "media", err)
	}
	return newPage(items, page, limit, total), nil
}

// Stats counts files per type and sums their size.
func (s *MediaService) Stats(ctx context.Context, session domain.Session) (*domain.MediaStats, error) {
	if _, err := requireActor(session); err != nil {
		return nil, err
	}
	byType, err := s.repo.CountByType(ctx)
	if err != nil {
		return nil, storeError(s.logger, "count", "media", err)
	}
	size, err := s.repo.TotalSize(ctx)
	if err != nil {
		return nil, storeError(s.logger, "count", "media", err)
	}

	stats := &domain.MediaStats{
		ByType:      make(map[string]int64, len(byType)),
		TotalSize:   size,
		TotalSizeMB: fmt.Sprintf("%.2f", float64(size)/1024/1024),
	}
	for _, entry := range byType {
		stats.ByType[entry.Key] = entry.Count
		stats.Total += entry.Count
	}
	return stats, nil
}

// Folders lists the distinct folder names in use, sorted.
func (s *MediaService) Folders(ctx context.Context, session domain.Session) ([]string, error) {
	if _, err := requireActor(session); err != nil {
		return nil, err
	}
	folders, err := s.repo.Folders(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list", "media folders", err)
	}
	if folders == nil {
		folders = []string{}
	}
	return folders, nil
}

func validateMedia(m *domain.Media) error {
	var v validator
	if v.required("name", m.Name) {
		v.length("name", m.Name, 1, 255)
	}
	if v.required("url", m.URL) {
		v.url("url", m.URL)
	}
	v.required("key", m.Key)
	if !m.Type.Valid() {
		v.add("type", "is invalid")
	}
	v.required("mimeType", m.MimeType)
	if m.Size < 0 {
		v.add("size", "must not be negative")
	}
	if m.Width != nil && *m.Width <= 0 {
		v.add("width", "must be positive")
	}
	if m.Height != nil && *m.Height <= 0 {
		v.add("height", "must be positive")
	}
	if m.Folder != nil && *m.Folder == rootFolder {
		v.add("folder", "is reserved")
	}
	return v.err()
}
