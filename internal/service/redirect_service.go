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
	redirectsPath    = "/admin/seo/redirects"
	redirectPageSize = 20
)

// RedirectService administers site redirects. ADMIN only, except Resolve
// which serves the public site.
type RedirectService struct {
	repo   repository.RedirectRepository
	audit  *AuditService
	cache  CacheInvalidator
	logger *zap.Logger
}

// RedirectInput is the payload for creating a redirect.
type RedirectInput struct {
	Source      string
	Destination string
	Type        domain.RedirectType
	Description *string
}

// RedirectUpdateInput carries the fields to change; nil means unchanged.
type RedirectUpdateInput struct {
	Source      *string
	Destination *string
	Type        *domain.RedirectType
	Description *string
	IsActive    *bool
}

// RedirectListInput filters the redirect listing.
type RedirectListInput struct {
	IsActive *bool
	Search   string
	Page     int
	Limit    int
}

// NewRedirectService constructs the service.
func NewRedirectService(repo repository.RedirectRepository, audit *AuditService, cache CacheInvalidator, logger *zap.Logger) *RedirectService {
	if cache == nil {
		cache = noopCache{}
	}
	return &RedirectService{repo: repo, audit: audit, cache: cache, logger: logger}
}

func duplicateSourceError(source string) error {
	return apperrors.NewConflict("a redirect for this source already exists", map[string]any{"source": source})
}

// Create adds an active redirect. Sources are unique.
func (s *RedirectService) Create(ctx context.Context, session domain.Session, input RedirectInput) (*domain.Redirect, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	if input.Type == "" {
		input.Type = domain.RedirectPermanent
	}

	redirect := &domain.Redirect{
		Source:      strings.TrimSpace(input.Source),
		Destination: strings.TrimSpace(input.Destination),
		Type:        input.Type,
		Description: optional(input.Description),
		IsActive:    true,
	}
	if err := validateRedirect(redirect); err != nil {
		return nil, err
	}
	if err := s.ensureSourceAvailable(ctx, redirect.Source, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, redirect); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, duplicateSourceError(redirect.Source)
		}
		return nil, storeError(s.logger, "create", "redirect", err)
	}

	s.cache.MarkStale(ctx, redirectsPath)
	s.audit.Track(ctx, session, domain.AuditActionCreate, domain.AuditResourceSettings, redirect.ID,
		fmt.Sprintf("Criado redirect %s -> %s", redirect.Source, redirect.Destination))
	return redirect, nil
}

// Update applies a partial change.
func (s *RedirectService) Update(ctx context.Context, session domain.Session, id string, input RedirectUpdateInput) (*domain.Redirect, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	redirect, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "redirect", err)
	}
	previousSource := redirect.Source

	if input.Source != nil {
		redirect.Source = strings.TrimSpace(*input.Source)
	}
	if input.Destination != nil {
		redirect.Destination = strings.TrimSpace(*input.Destination)
	}
	if input.Type != nil {
		redirect.Type = *input.Type
	}
	if input.Description != nil {
		redirect.Description = optional(input.Description)
	}
	if input.IsActive != nil {
		redirect.IsActive = *input.IsActive
	}
	if err := validateRedirect(redirect); err != nil {
		return nil, err
	}
	if redirect.Source != previousSource {
		if err := s.ensureSourceAvailable(ctx, redirect.Source, redirect.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, redirect); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, duplicateSourceError(redirect.Source)
		}
		return nil, storeError(s.logger, "update", "redirect", err)
	}

	s.cache.MarkStale(ctx, redirectsPath)
	s.audit.Track(ctx, session, domain.AuditActionUpdate, domain.AuditResourceSettings, redirect.ID,
		fmt.Sprintf("Atualizado redirect %s -> %s", redirect.Source, redirect.Destination))
	return redirect, nil
}

// Delete removes a redirect.
func (s *RedirectService) Delete(ctx context.Context, session domain.Session, id string) error {
	if _, err := requireAdmin(session); err != nil {
		return err
	}
	redirect, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return storeError(s.logger, "load", "redirect", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(s.logger, "delete", "redirect", err)
	}

	s.cache.MarkStale(ctx, redirectsPath)
	s.audit.Track(ctx, session, domain.AuditActionDelete, domain.AuditResourceSettings, id,
		fmt.Sprintf("Deletado redirect %s", redirect.Source))
	return nil
}

// Get returns one redirect.
func (s *RedirectService) Get(ctx context.Context, session domain.Session, id string) (*domain.Redirect, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	redirect, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "redirect", err)
	}
	return redirect, nil
}

// List pages through redirects, newest first.
func (s *RedirectService) List(ctx context.Context, session domain.Session, input RedirectListInput) (*domain.Page[domain.Redirect], error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	page, limit := normalizePage(input.Page, input.Limit, redirectPageSize)
	items, total, err := s.repo.List(ctx, repository.RedirectFilter{
		IsActive: input.IsActive,
		Search:   strings.TrimSpace(input.Search),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, storeError(s.logger, "list", "redirects", err)
	}
	return newPage(items, page, limit, total), nil
}

// Stats counts redirects by state and sums their hits.
func (s *RedirectService) Stats(ctx context.Context, session domain.Session) (*domain.RedirectStats, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, storeError(s.logger, "count", "redirects", err)
	}
	return &stats, nil
}

// Resolve returns the active redirect for source and counts the hit.
// A failed hit count is logged and does not fail the lookup.
func (s *RedirectService) Resolve(ctx context.Context, source string) (*domain.Redirect, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, apperrors.NewValidationError("invalid payload",
			map[string]any{"fields": map[string]any{"source": "is required"}})
	}
	redirect, err := s.repo.GetActiveBySource(ctx, source)
	if err != nil {
		return nil, storeError(s.logger, "load", "redirect", err)
	}

	if err := s.repo.IncrementHits(ctx, source); err != nil {
		s.logger.Warn("failed to count redirect hit", zap.String("source", source), zap.Error(err))
	} else {
		redirect.HitCount++
	}
	return redirect, nil
}

func (s *RedirectService) ensureSourceAvailable(ctx context.Context, source, exceptID string) error {
	taken, err := s.repo.SourceExists(ctx, source, exceptID)
	if err != nil {
		return storeError(s.logger, "check", "redirect source", err)
	}
	if taken {
		return duplicateSourceError(source)
	}
	return nil
}

func validateRedirect(r *domain.Redirect) error {
	var v validator
	if v.required("source", r.Source) && !strings.HasPrefix(r.Source, "/") {
		v.add("source", "must start with /")
	}
	if v.required("destination", r.Destination) &&
		!strings.HasPrefix(r.Destination, "/") && !strings.HasPrefix(r.Destination, "http") {
		v.add("destination", "must start with / or http")
	}
	if r.Source != "" && r.Source == r.Destination {
		v.add("destination", "must differ from source")
	}
	if !r.Type.Valid() {
		v.add("type", "is invalid")
	}
	return v.err()
}
