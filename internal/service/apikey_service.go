package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/config"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/ratelimit"
	"github.com/spec-kit/agency-admin/internal/repository"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const (
	apiKeyPrefix     = "sk_"
	apiKeyPrefixLen  = len(apiKeyPrefix) + 8
	apiKeySecretSize = 32
	apiKeysPath      = "/admin/settings/api-keys"
)

// RateLimiter checks a caller against one or more windows.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string, windows ...ratelimit.Window) (ratelimit.Result, error)
}

// APIKeyService issues and verifies API credentials.
type APIKeyService struct {
	keys     repository.APIKeyRepository
	users    repository.UserRepository
	audit    *AuditService
	cache    CacheInvalidator
	limiter  RateLimiter
	defaults config.RateLimitConfig
	logger   *zap.Logger
	now      func() time.Time
}

// APIKeyDependencies bundles collaborators for the API key service.
type APIKeyDependencies struct {
	APIKeyRepo repository.APIKeyRepository
	UserRepo   repository.UserRepository
	Audit      *AuditService
	Cache      CacheInvalidator
	Limiter    RateLimiter
	Defaults   config.RateLimitConfig
	Logger     *zap.Logger
}

// APIKeyInput is the payload for creating a key.
type APIKeyInput struct {
	Name              string
	Description       *string
	Scopes            []string
	RequestsPerMinute *int
	RequestsPerHour   *int
	ExpiresAt         *time.Time
}

// APIKeyUpdateInput carries the fields to change; nil means unchanged.
type APIKeyUpdateInput struct {
	Name              *string
	Description       *string
	Scopes            []string
	IsActive          *bool
	RequestsPerMinute *int
	RequestsPerHour   *int
	ExpiresAt         *time.Time
}

// IssuedAPIKey carries the plaintext secret. It is only ever returned once.
type IssuedAPIKey struct {
	Key       *domain.APIKey `json:"apiKey"`
	PlainText string         `json:"key"`
}

// NewAPIKeyService constructs the service.
func NewAPIKeyService(deps APIKeyDependencies) *APIKeyService {
	cache := deps.Cache
	if cache == nil {
		cache = noopCache{}
	}
	return &APIKeyService{
		keys:     deps.APIKeyRepo,
		users:    deps.UserRepo,
		audit:    deps.Audit,
		cache:    cache,
		limiter:  deps.Limiter,
		defaults: deps.Defaults,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// Create issues a key owned by the actor.
func (s *APIKeyService) Create(ctx context.Context, session domain.Session, input APIKeyInput) (*IssuedAPIKey, error) {
	actor, err := requirePermission(session, domain.PermAPIKeysManage)
	if err != nil {
		return nil, err
	}

	key := &domain.APIKey{
		Name:              strings.TrimSpace(input.Name),
		Description:       optional(input.Description),
		Scopes:            cleanTags(input.Scopes),
		IsActive:          true,
		RequestsPerMinute: input.RequestsPerMinute,
		RequestsPerHour:   input.RequestsPerHour,
		ExpiresAt:         input.ExpiresAt,
		CreatedBy:         actor.ID,
	}
	if err := s.validate(key, true); err != nil {
		return nil, err
	}

	plain, err := newAPIKeySecret()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	key.KeyHash = auth.HashSecret(plain)
	key.KeyPrefix = plain[:apiKeyPrefixLen]

	if err := s.keys.Create(ctx, key); err != nil {
		return nil, storeError(s.logger, "create", "api key", err)
	}

	s.cache.MarkStale(ctx, apiKeysPath)
	s.audit.Track(ctx, session, domain.AuditActionCreate, domain.AuditResourceSettings, key.ID,
		fmt.Sprintf("Criada API key %s (%s)", key.Name, key.KeyPrefix))
	return &IssuedAPIKey{Key: key, PlainText: plain}, nil
}

// List returns the actor's keys. Hashes never leave the service.
func (s *APIKeyService) List(ctx context.Context, session domain.Session) ([]domain.APIKey, error) {
	actor, err := requirePermission(session, domain.PermAPIKeysManage)
	if err != nil {
		return nil, err
	}
	keys, err := s.keys.ListByCreator(ctx, actor.ID)
	if err != nil {
		return nil, storeError(s.logger, "list", "api keys", err)
	}
	if keys == nil {
		keys = []domain.APIKey{}
	}
	return keys, nil
}

// Update changes the metadata and limits of a key.
func (s *APIKeyService) Update(ctx context.Context, session domain.Session, id string, input APIKeyUpdateInput) (*domain.APIKey, error) {
	key, err := s.owned(ctx, session, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		key.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		key.Description = optional(input.Description)
	}
	if input.Scopes != nil {
		key.Scopes = cleanTags(input.Scopes)
	}
	if input.IsActive != nil {
		key.IsActive = *input.IsActive
	}
	if input.RequestsPerMinute != nil {
		key.RequestsPerMinute = input.RequestsPerMinute
	}
	if input.RequestsPerHour != nil {
		key.RequestsPerHour = input.RequestsPerHour
	}
	if input.ExpiresAt != nil {
		key.ExpiresAt = input.ExpiresAt
	}
	if err := s.validate(key, input.ExpiresAt != nil); err != nil {
		return nil, err
	}

	if err := s.keys.Update(ctx, key); err != nil {
		return nil, storeError(s.logger, "update", "api key", err)
	}

	s.cache.MarkStale(ctx, apiKeysPath)
	s.audit.Track(ctx, session, domain.AuditActionUpdate, domain.AuditResourceSettings, key.ID,
		fmt.Sprintf("Atualizada API key %s", key.Name))
	return key, nil
}

// Delete revokes a key permanently.
func (s *APIKeyService) Delete(ctx context.Context, session domain.Session, id string) error {
	key, err := s.owned(ctx, session, id)
	if err != nil {
		return err
	}
	if err := s.keys.Delete(ctx, id); err != nil {
		return storeError(s.logger, "delete", "api key", err)
	}

	s.cache.MarkStale(ctx, apiKeysPath)
	s.audit.Track(ctx, session, domain.AuditActionDelete, domain.AuditResourceSettings, id,
		fmt.Sprintf("Deletada API key %s", key.Name))
	return nil
}

// Regenerate replaces the secret of a key; the old secret stops working at once.
func (s *APIKeyService) Regenerate(ctx context.Context, session domain.Session, id string) (*IssuedAPIKey, error) {
	key, err := s.owned(ctx, session, id)
	if err != nil {
		return nil, err
	}

	plain, err := newAPIKeySecret()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	key.KeyHash = auth.HashSecret(plain)
	key.KeyPrefix = plain[:apiKeyPrefixLen]
	key.UsageCount = 0
	key.LastUsedAt = nil

	if err := s.keys.Rotate(ctx, key.ID, key.KeyHash, key.KeyPrefix); err != nil {
		return nil, storeError(s.logger, "rotate", "api key", err)
	}

	s.cache.MarkStale(ctx, apiKeysPath)
	s.audit.Track(ctx, session, domain.AuditActionUpdate, domain.AuditResourceSettings, key.ID,
		fmt.Sprintf("Regenerada API key %s", key.Name))
	return &IssuedAPIKey{Key: key, PlainText: plain}, nil
}

// Verify authenticates a plaintext key and charges it against its rate limit.
// The returned session acts as the key owner restricted to the key scopes.
func (s *APIKeyService) Verify(ctx context.Context, plain string) (*auth.KeyAccess, error) {
	plain = strings.TrimSpace(plain)
	if !strings.HasPrefix(plain, apiKeyPrefix) {
		return nil, apperrors.NewUnauthorized("invalid api key")
	}

	key, err := s.keys.GetByHash(ctx, auth.HashSecret(plain))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid api key")
		}
		return nil, storeError(s.logger, "load", "api key", err)
	}
	now := s.now()
	if !key.IsActive {
		return nil, apperrors.NewUnauthorized("api key is disabled")
	}
	if key.Expired(now) {
		return nil, apperrors.NewUnauthorized("api key has expired")
	}

	access := &auth.KeyAccess{}
	if s.limiter != nil {
		result, err := s.limiter.Allow(ctx, key.ID, s.windows(key)...)
		if err != nil {
			// fail open
			s.logger.Warn("rate limit check failed", zap.String("api_key_id", key.ID), zap.Error(err))
		} else {
			access.Limit = result
			if !result.Allowed {
				return access, apperrors.NewTooManyRequests("rate limit exceeded")
			}
		}
	}

	owner, err := s.users.GetByID(ctx, key.CreatedBy)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid api key")
		}
		return nil, storeError(s.logger, "load", "user", err)
	}

	if err := s.keys.RecordUsage(ctx, key.ID, now); err != nil {
		s.logger.Warn("failed to record api key usage", zap.String("api_key_id", key.ID), zap.Error(err))
	}

	access.Session = domain.Session{
		Actor:    owner.Actor(),
		APIKeyID: key.ID,
		Scopes:   key.Scopes,
	}
	return access, nil
}

func (s *APIKeyService) windows(key *domain.APIKey) []ratelimit.Window {
	perMinute := s.defaults.RequestsPerMinute
	if key.RequestsPerMinute != nil {
		perMinute = *key.RequestsPerMinute
	}
	perHour := s.defaults.RequestsPerHour
	if key.RequestsPerHour != nil {
		perHour = *key.RequestsPerHour
	}
	return []ratelimit.Window{
		{Limit: perMinute, Period: time.Minute},
		{Limit: perHour, Period: time.Hour},
	}
}

// owned loads a key the actor may manage. Keys of other users read as missing.
func (s *APIKeyService) owned(ctx context.Context, session domain.Session, id string) (*domain.APIKey, error) {
	actor, err := requirePermission(session, domain.PermAPIKeysManage)
	if err != nil {
		return nil, err
	}
	key, err := s.keys.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "api key", err)
	}
	if key.CreatedBy != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.NewNotFound("api key", nil)
	}
	return key, nil
}

func (s *APIKeyService) validate(key *domain.APIKey, checkExpiry bool) error {
	var v validator
	if v.required("name", key.Name) {
		v.length("name", key.Name, 3, 100)
	}
	if len(key.Scopes) == 0 {
		v.add("scopes", "at least one scope is required")
	}
	for _, scope := range key.Scopes {
		if !validScope(scope) {
			v.add("scopes", fmt.Sprintf("unknown scope %q", scope))
			break
		}
	}
	if key.RequestsPerMinute != nil && *key.RequestsPerMinute <= 0 {
		v.add("requestsPerMinute", "must be positive")
	}
	if key.RequestsPerHour != nil && *key.RequestsPerHour <= 0 {
		v.add("requestsPerHour", "must be positive")
	}
	if checkExpiry && key.ExpiresAt != nil && !key.ExpiresAt.After(s.now()) {
		v.add("expiresAt", "must be in the future")
	}
	return v.err()
}

func validScope(scope string) bool {
	if scope == "*" {
		return true
	}
	_, ok := domain.ParsePermission(scope)
	return ok
}

func newAPIKeySecret() (string, error) {
	secret, err := auth.RandomHex(apiKeySecretSize)
	if err != nil {
		return "", err
	}
	return apiKeyPrefix + secret, nil
}
