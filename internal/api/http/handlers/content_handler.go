package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-admin/internal/api/dto"
	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/service"
)

// ContentHandler exposes one content kind (posts, cases or services).
type ContentHandler struct {
	content *service.ContentService
	kind    domain.ContentKind
}

// NewContentHandler constructs handler bound to kind.
func NewContentHandler(content *service.ContentService, kind domain.ContentKind) *ContentHandler {
	return &ContentHandler{content: content, kind: kind}
}

func contentListInput(c *fiber.Ctx) service.ContentListInput {
	return service.ContentListInput{
		Status:   optionalQuery[domain.ContentStatus](c, "status"),
		Category: c.Query("category"),
		Featured: optionalQueryBool(c, "featured"),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
	}
}

// List handles GET /<kind>.
func (h *ContentHandler) List(c *fiber.Ctx) error {
	page, err := h.content.List(c.UserContext(), auth.SessionFromContext(c), h.kind, contentListInput(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

// Get handles GET /<kind>/:id.
func (h *ContentHandler) Get(c *fiber.Ctx) error {
	item, err := h.content.Get(c.UserContext(), auth.SessionFromContext(c), h.kind, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, item)
}

// Create handles POST /<kind>.
func (h *ContentHandler) Create(c *fiber.Ctx) error {
	var req dto.ContentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := h.content.Create(c.UserContext(), auth.SessionFromContext(c), h.kind, req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, item)
}

// Update handles PUT /<kind>/:id.
func (h *ContentHandler) Update(c *fiber.Ctx) error {
	var req dto.ContentUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := h.content.Update(c.UserContext(), auth.SessionFromContext(c), h.kind, c.Params("id"), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, item)
}

// TogglePublish handles POST /<kind>/:id/publish.
func (h *ContentHandler) TogglePublish(c *fiber.Ctx) error {
	item, err := h.content.TogglePublish(c.UserContext(), auth.SessionFromContext(c), h.kind, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, item)
}

// ToggleFeatured handles POST /<kind>/:id/feature.
func (h *ContentHandler) ToggleFeatured(c *fiber.Ctx) error {
	item, err := h.content.ToggleFeatured(c.UserContext(), auth.SessionFromContext(c), h.kind, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, item)
}

// Delete handles DELETE /<kind>/:id.
func (h *ContentHandler) Delete(c *fiber.Ctx) error {
	if err := h.content.Delete(c.UserContext(), auth.SessionFromContext(c), h.kind, c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}

// ListPublished handles GET /public/<kind>. Served from the page cache.
func (h *ContentHandler) ListPublished(c *fiber.Ctx) error {
	input := contentListInput(c)
	input.Status = nil
	page, err := h.content.ListPublished(c.UserContext(), h.kind, input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

// GetPublished handles GET /public/<kind>/:slug.
func (h *ContentHandler) GetPublished(c *fiber.Ctx) error {
	item, err := h.content.GetPublished(c.UserContext(), h.kind, c.Params("slug"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, item)
}
