package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-admin/internal/api/dto"
	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/service"
)

// APIKeysHandler manages the caller's API keys.
type APIKeysHandler struct {
	keys *service.APIKeyService
}

// NewAPIKeysHandler constructs handler.
func NewAPIKeysHandler(keys *service.APIKeyService) *APIKeysHandler {
	return &APIKeysHandler{keys: keys}
}

func (h *APIKeysHandler) List(c *fiber.Ctx) error {
	items, err := h.keys.List(c.UserContext(), auth.SessionFromContext(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, items)
}

// Create returns the plaintext key once.
func (h *APIKeysHandler) Create(c *fiber.Ctx) error {
	var req dto.APIKeyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	issued, err := h.keys.Create(c.UserContext(), auth.SessionFromContext(c), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, issued)
}

func (h *APIKeysHandler) Update(c *fiber.Ctx) error {
	var req dto.APIKeyUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	key, err := h.keys.Update(c.UserContext(), auth.SessionFromContext(c), c.Params("id"), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, key)
}

func (h *APIKeysHandler) Regenerate(c *fiber.Ctx) error {
	issued, err := h.keys.Regenerate(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, issued)
}

func (h *APIKeysHandler) Delete(c *fiber.Ctx) error {
	if err := h.keys.Delete(c.UserContext(), auth.SessionFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func (h *AuditHandler) List(c *fiber.Ctx) error {
	page, err := h.audit.List(c.UserContext(), auth.SessionFromContext(c), service.AuditListInput{
		Action:   optionalQuery[domain.AuditAction](c, "action"),
		Resource: optionalQuery[domain.AuditResource](c, "resource"),
		UserID:   optionalQuery[string](c, "userId"),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 50),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

func (h *AuditHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.audit.Stats(c.UserContext(), auth.SessionFromContext(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats)
}

// Purge deletes entries older than the requested window. An empty body uses the configured retention.
func (h *AuditHandler) Purge(c *fiber.Ctx) error {
	var req dto.PurgeRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	deleted, err := h.audit.Purge(c.UserContext(), auth.SessionFromContext(c), req.Days)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"deleted": deleted})
}

// NotificationsHandler exposes the caller's inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	list, err := h.notifications.ListMine(c.UserContext(), auth.SessionFromContext(c),
		c.QueryInt("limit", 0), c.QueryBool("unread", false))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}

func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkRead(c.UserContext(), auth.SessionFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}

func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	updated, err := h.notifications.MarkAllRead(c.UserContext(), auth.SessionFromContext(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"updated": updated})
}

func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	if err := h.notifications.Delete(c.UserContext(), auth.SessionFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}
