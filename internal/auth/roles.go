package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-admin/internal/domain"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		session := SessionFromContext(c)
		if !session.Authenticated() {
			return apperrors.NewUnauthenticated()
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[session.Actor.Role]; !exists {
			return apperrors.NewNotAuthorized()
		}
		return c.Next()
	}
}

// RequireAdmin is RequireRole(ADMIN).
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}

// RequirePermission ensures the caller's role grants perm and, for API key
// sessions, that the key carries it as a scope.
func RequirePermission(perm domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFromContext(c)
		if !session.Authenticated() {
			return apperrors.NewUnauthenticated()
		}
		if !domain.HasPermission(session.Actor.Role, perm) || !session.HasScope(string(perm)) {
			return apperrors.NewNotAuthorized()
		}
		return c.Next()
	}
}

// RequireScope checks only the API key scopes. Token sessions always pass.
func RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFromContext(c)
		if !session.Authenticated() {
			return apperrors.NewUnauthenticated()
		}
		if !session.HasScope(scope) {
			return apperrors.NewForbidden("api key lacks scope " + scope)
		}
		return c.Next()
	}
}
