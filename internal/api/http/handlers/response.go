package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// optionalQuery returns nil when the query parameter is absent or blank.
func optionalQuery[T ~string](c *fiber.Ctx, key string) *T {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	value := T(raw)
	return &value
}

func optionalQueryInt(c *fiber.Ctx, key string) *int {
	if strings.TrimSpace(c.Query(key)) == "" {
		return nil
	}
	value := c.QueryInt(key)
	return &value
}

func optionalQueryBool(c *fiber.Ctx, key string) *bool {
	if strings.TrimSpace(c.Query(key)) == "" {
		return nil
	}
	value := c.QueryBool(key)
	return &value
}

func queryList(c *fiber.Ctx, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
