package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-admin/internal/api/dto"
	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/service"
)

// EmailTemplatesHandler manages stored email templates.
type EmailTemplatesHandler struct {
	templates *service.EmailTemplateService
}

// NewEmailTemplatesHandler constructs handler.
func NewEmailTemplatesHandler(templates *service.EmailTemplateService) *EmailTemplatesHandler {
	return &EmailTemplatesHandler{templates: templates}
}

func (h *EmailTemplatesHandler) List(c *fiber.Ctx) error {
	items, err := h.templates.List(c.UserContext(), auth.SessionFromContext(c), optionalQuery[domain.EmailTemplateType](c, "type"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, items)
}

func (h *EmailTemplatesHandler) Get(c *fiber.Ctx) error {
	tpl, err := h.templates.Get(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, tpl)
}

func (h *EmailTemplatesHandler) Create(c *fiber.Ctx) error {
	var req dto.EmailTemplateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	tpl, err := h.templates.Create(c.UserContext(), auth.SessionFromContext(c), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, tpl)
}

func (h *EmailTemplatesHandler) Update(c *fiber.Ctx) error {
	var req dto.EmailTemplateUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	tpl, err := h.templates.Update(c.UserContext(), auth.SessionFromContext(c), c.Params("id"), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, tpl)
}

func (h *EmailTemplatesHandler) Delete(c *fiber.Ctx) error {
	if err := h.templates.Delete(c.UserContext(), auth.SessionFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}

// Preview renders the template with the supplied sample variables.
func (h *EmailTemplatesHandler) Preview(c *fiber.Ctx) error {
	var req dto.PreviewRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	preview, err := h.templates.Preview(c.UserContext(), auth.SessionFromContext(c), c.Params("id"), req.Variables)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, preview)
}

// WebhooksHandler manages outbound webhook subscriptions.
type WebhooksHandler struct {
	webhooks *service.WebhookService
}

// NewWebhooksHandler constructs handler.
func NewWebhooksHandler(webhooks *service.WebhookService) *WebhooksHandler {
	return &WebhooksHandler{webhooks: webhooks}
}

func (h *WebhooksHandler) List(c *fiber.Ctx) error {
	items, err := h.webhooks.List(c.UserContext(), auth.SessionFromContext(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, items)
}

func (h *WebhooksHandler) Get(c *fiber.Ctx) error {
	sub, err := h.webhooks.Get(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, sub)
}

// Create returns the signing secret once.
func (h *WebhooksHandler) Create(c *fiber.Ctx) error {
	var req dto.WebhookRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	issued, err := h.webhooks.Create(c.UserContext(), auth.SessionFromContext(c), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, issued)
}

func (h *WebhooksHandler) Update(c *fiber.Ctx) error {
	var req dto.WebhookUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	sub, err := h.webhooks.Update(c.UserContext(), auth.SessionFromContext(c), c.Params("id"), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, sub)
}

func (h *WebhooksHandler) Delete(c *fiber.Ctx) error {
	if err := h.webhooks.Delete(c.UserContext(), auth.SessionFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}

func (h *WebhooksHandler) Logs(c *fiber.Ctx) error {
	logs, err := h.webhooks.Logs(c.UserContext(), auth.SessionFromContext(c), c.Params("id"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, logs)
}

// Test sends a synthetic event to the endpoint and reports the attempt.
func (h *WebhooksHandler) Test(c *fiber.Ctx) error {
	log, err := h.webhooks.Test(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, log)
}

func (h *WebhooksHandler) RegenerateSecret(c *fiber.Ctx) error {
	issued, err := h.webhooks.RegenerateSecret(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, issued)
}

// SettingsHandler exposes the site settings singleton.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.settings.Get(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var req dto.SettingsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	settings, err := h.settings.Update(c.UserContext(), auth.SessionFromContext(c), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, settings)
}

func (h *SettingsHandler) ToggleMaintenance(c *fiber.Ctx) error {
	settings, err := h.settings.ToggleMaintenance(c.UserContext(), auth.SessionFromContext(c))
	if err != nil {
		return err
	}
	c.Set("X-Maintenance-Mode", strconv.FormatBool(settings.MaintenanceMode))
	return respond(c, http.StatusOK, settings)
}
