package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/events"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// SideEffects is the asynchronous fan-out used after a committed write.
// Implementations must never block on delivery or report failures.
type SideEffects interface {
	Email(ctx context.Context, kind events.EmailKind, to string, vars map[string]string)
	Webhook(ctx context.Context, event domain.WebhookEvent, data map[string]any)
	Notify(ctx context.Context, payload events.NotificationPayload)
}

// CacheInvalidator marks cached views stale by logical path.
type CacheInvalidator interface {
	MarkStale(ctx context.Context, paths ...string)
}

type noopCache struct{}

func (noopCache) MarkStale(context.Context, ...string) {}

func requireActor(session domain.Session) (*domain.Actor, error) {
	if !session.Authenticated() {
		return nil, apperrors.NewUnauthenticated()
	}
	return session.Actor, nil
}

func requireAdmin(session domain.Session) (*domain.Actor, error) {
	actor, err := requireActor(session)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, apperrors.NewNotAuthorized()
	}
	return actor, nil
}

func requirePermission(session domain.Session, perm domain.Permission) (*domain.Actor, error) {
	actor, err := requireActor(session)
	if err != nil {
		return nil, err
	}
	if !domain.HasPermission(actor.Role, perm) || !session.HasScope(string(perm)) {
		return nil, apperrors.NewNotAuthorized()
	}
	return actor, nil
}

// storeError turns a repository failure into the caller-facing error and logs the detail.
func storeError(logger *zap.Logger, verb, entity string, err error) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(entity, nil)
	}
	logger.Error("persistence failure",
		zap.String("operation", verb),
		zap.String("entity", entity),
		zap.Error(err))
	return apperrors.NewPersistenceError(verb, entity, err)
}

func normalizePage(page, limit, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = fallback
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func newPage[T any](items []T, page, limit int, total int64) *domain.Page[T] {
	if items == nil {
		items = []T{}
	}
	return &domain.Page[T]{Items: items, Pagination: domain.NewPagination(page, limit, total)}
}

func strPtr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func slugWithSuffix(slug string, now time.Time) string {
	return fmt.Sprintf("%s-%d", slug, now.UnixMilli())
}
