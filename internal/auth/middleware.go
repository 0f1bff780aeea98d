package auth

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/ratelimit"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const (
	sessionKey   = "auth_session"
	APIKeyHeader = "X-API-Key"
)

// TokenAuthenticator resolves a bearer token to the acting user.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Actor, error)
}

// KeyVerifier authenticates a plaintext API key and charges its rate limit.
type KeyVerifier interface {
	Verify(ctx context.Context, plain string) (*KeyAccess, error)
}

// KeyAccess is the outcome of an API key verification. Limit is set even when
// the key was rejected for exceeding it.
type KeyAccess struct {
	Session domain.Session
	Limit   ratelimit.Result
}

// AuthMiddleware validates bearer tokens and API keys and stores the resulting session.
type AuthMiddleware struct {
	tokens TokenAuthenticator
	keys   KeyVerifier
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenAuthenticator, keys KeyVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, keys: keys}
}

// Handle enforces bearer authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	actor, err := m.tokens.Authenticate(c.UserContext(), strings.TrimSpace(parts[1]))
	if err != nil {
		return err
	}

	session := requestSession(c)
	session.Actor = actor
	c.Locals(sessionKey, session)
	return c.Next()
}

// APIKey enforces X-API-Key authentication and reports the rate limit in headers.
func (m *AuthMiddleware) APIKey(c *fiber.Ctx) error {
	plain := c.Get(APIKeyHeader)
	if plain == "" {
		return apperrors.NewUnauthorized("missing api key")
	}

	access, err := m.keys.Verify(c.UserContext(), plain)
	if access != nil {
		setRateLimitHeaders(c, access.Limit)
	}
	if err != nil {
		return err
	}

	session := access.Session
	session.IPAddress = c.IP()
	session.UserAgent = c.Get(fiber.HeaderUserAgent)
	c.Locals(sessionKey, session)
	return c.Next()
}

func setRateLimitHeaders(c *fiber.Ctx, limit ratelimit.Result) {
	if limit.Limit <= 0 {
		return
	}
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(limit.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(limit.ResetAt.Unix(), 10))
}

func requestSession(c *fiber.Ctx) domain.Session {
	return domain.Session{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

// SessionFromContext returns the authenticated session, or an anonymous one
// carrying only the request metadata.
func SessionFromContext(c *fiber.Ctx) domain.Session {
	if session, ok := c.Locals(sessionKey).(domain.Session); ok {
		return session
	}
	return requestSession(c)
}
