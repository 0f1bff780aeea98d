package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/repository"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const (
	auditPageSize      = 50
	auditTopN          = 5
	unknownRequestMeta = "unknown"
)

// AuditFailureRecorder counts audit writes that were swallowed.
type AuditFailureRecorder interface {
	RecordAuditFailure()
}

// AuditService records and reads the immutable audit trail.
type AuditService struct {
	repo          repository.AuditRepository
	logger        *zap.Logger
	failures      AuditFailureRecorder
	retentionDays int
	now           func() time.Time
}

// AuditListInput filters the audit listing.
type AuditListInput struct {
	Action   *domain.AuditAction
	Resource *domain.AuditResource
	UserID   *string
	Search   string
	Page     int
	Limit    int
}

// NewAuditService constructs the recorder. failures may be nil.
func NewAuditService(repo repository.AuditRepository, logger *zap.Logger, failures AuditFailureRecorder, retentionDays int) *AuditService {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &AuditService{
		repo:          repo,
		logger:        logger,
		failures:      failures,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// Record writes one entry for the session's actor. The actor always comes from
// the session; there are no anonymous entries.
func (s *AuditService) Record(ctx context.Context, session domain.Session, action domain.AuditAction, resource domain.AuditResource, resourceID, details string) (*domain.AuditLog, error) {
	actor, err := requireActor(session)
	if err != nil {
		return nil, err
	}
	if !action.Valid() || !resource.Valid() {
		return nil, apperrors.NewValidationError("invalid audit action or resource",
			map[string]any{"action": action, "resource": resource})
	}

	entry := &domain.AuditLog{
		UserID:    actor.ID,
		Action:    action,
		Resource:  resource,
		Details:   details,
		IPAddress: orUnknown(session.IPAddress),
		UserAgent: orUnknown(session.UserAgent),
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, storeError(s.logger, "create", "audit log", err)
	}
	return entry, nil
}

// Track records an entry on behalf of a mutation that already committed.
// Failures are logged and counted, never returned.
func (s *AuditService) Track(ctx context.Context, session domain.Session, action domain.AuditAction, resource domain.AuditResource, resourceID, details string) {
	if _, err := s.Record(ctx, session, action, resource, resourceID, details); err != nil {
		s.logger.Error("failed to record audit log",
			zap.String("action", string(action)),
			zap.String("resource", string(resource)),
			zap.String("resource_id", resourceID),
			zap.Error(err))
		if s.failures != nil {
			s.failures.RecordAuditFailure()
		}
	}
}

// List returns a filtered page of entries, newest first. ADMIN only.
func (s *AuditService) List(ctx context.Context, session domain.Session, input AuditListInput) (*domain.Page[domain.AuditLog], error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}
	page, limit := normalizePage(input.Page, input.Limit, auditPageSize)

	items, total, err := s.repo.List(ctx, repository.AuditFilter{
		Action:   input.Action,
		Resource: input.Resource,
		UserID:   input.UserID,
		Search:   strings.TrimSpace(input.Search),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, storeError(s.logger, "list", "audit logs", err)
	}
	return newPage(items, page, limit, total), nil
}

// Stats aggregates totals and the most frequent actions and resources. ADMIN only.
func (s *AuditService) Stats(ctx context.Context, session domain.Session) (*domain.AuditStats, error) {
	if _, err := requireAdmin(session); err != nil {
		return nil, err
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	total, err := s.repo.Count(ctx, nil)
	if err != nil {
		return nil, storeError(s.logger, "count", "audit logs", err)
	}
	today, err := s.repo.Count(ctx, &midnight)
	if err != nil {
		return nil, storeError(s.logger, "count", "audit logs", err)
	}
	actions, err := s.repo.TopActions(ctx, auditTopN)
	if err != nil {
		return nil, storeError(s.logger, "aggregate", "audit logs", err)
	}
	resources, err := s.repo.TopResources(ctx, auditTopN)
	if err != nil {
		return nil, storeError(s.logger, "aggregate", "audit logs", err)
	}

	return &domain.AuditStats{
		TotalLogs:    total,
		TodayLogs:    today,
		TopActions:   actions,
		TopResources: resources,
	}, nil
}

// Purge deletes entries older than days (retention default when <= 0) and
// records the purge itself. ADMIN only.
func (s *AuditService) Purge(ctx context.Context, session domain.Session, days int) (int64, error) {
	if _, err := requireAdmin(session); err != nil {
		return 0, err
	}
	if days <= 0 {
		days = s.retentionDays
	}

	cutoff := s.now().AddDate(0, 0, -days)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, storeError(s.logger, "delete", "audit logs", err)
	}

	s.Track(ctx, session, domain.AuditActionDelete, domain.AuditResourceSettings, "",
		fmt.Sprintf("Deleted %d audit logs older than %d days", deleted, days))
	return deleted, nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownRequestMeta
	}
	return s
}
