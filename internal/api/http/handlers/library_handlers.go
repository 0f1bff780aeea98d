package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-admin/internal/api/dto"
	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/service"
)

// MediaHandler exposes the media library.
type MediaHandler struct {
	media *service.MediaService
}

// NewMediaHandler constructs handler.
func NewMediaHandler(media *service.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

func (h *MediaHandler) List(c *fiber.Ctx) error {
	page, err := h.media.List(c.UserContext(), auth.SessionFromContext(c), service.MediaListInput{
		Type:   optionalQuery[domain.MediaType](c, "type"),
		Folder: optionalQuery[string](c, "folder"),
		Search: c.Query("search"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 24),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

func (h *MediaHandler) Get(c *fiber.Ctx) error {
	media, err := h.media.Get(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, media)
}

func (h *MediaHandler) Create(c *fiber.Ctx) error {
	var req dto.MediaRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	media, err := h.media.Create(c.UserContext(), auth.SessionFromContext(c), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, media)
}

func (h *MediaHandler) Update(c *fiber.Ctx) error {
	var req dto.MediaUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	media, err := h.media.Update(c.UserContext(), auth.SessionFromContext(c), c.Params("id"), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, media)
}

func (h *MediaHandler) Delete(c *fiber.Ctx) error {
	if err := h.media.Delete(c.UserContext(), auth.SessionFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}

func (h *MediaHandler) BulkDelete(c *fiber.Ctx) error {
	var req dto.BulkDeleteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	count, err := h.media.BulkDelete(c.UserContext(), auth.SessionFromContext(c), req.IDs)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"count": count})
}

func (h *MediaHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.media.Stats(c.UserContext(), auth.SessionFromContext(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats)
}

func (h *MediaHandler) Folders(c *fiber.Ctx) error {
	folders, err := h.media.Folders(c.UserContext(), auth.SessionFromContext(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, folders)
}

// RedirectsHandler manages site redirects.
type RedirectsHandler struct {
	redirects *service.RedirectService
}

// NewRedirectsHandler constructs handler.
func NewRedirectsHandler(redirects *service.RedirectService) *RedirectsHandler {
	return &RedirectsHandler{redirects: redirects}
}

func (h *RedirectsHandler) List(c *fiber.Ctx) error {
	page, err := h.redirects.List(c.UserContext(), auth.SessionFromContext(c), service.RedirectListInput{
		IsActive: optionalQueryBool(c, "isActive"),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 20),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

func (h *RedirectsHandler) Get(c *fiber.Ctx) error {
	redirect, err := h.redirects.Get(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, redirect)
}

func (h *RedirectsHandler) Create(c *fiber.Ctx) error {
	var req dto.RedirectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	redirect, err := h.redirects.Create(c.UserContext(), auth.SessionFromContext(c), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, redirect)
}

func (h *RedirectsHandler) Update(c *fiber.Ctx) error {
	var req dto.RedirectUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	redirect, err := h.redirects.Update(c.UserContext(), auth.SessionFromContext(c), c.Params("id"), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, redirect)
}

func (h *RedirectsHandler) Delete(c *fiber.Ctx) error {
	if err := h.redirects.Delete(c.UserContext(), auth.SessionFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}

func (h *RedirectsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.redirects.Stats(c.UserContext(), auth.SessionFromContext(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats)
}

// Resolve handles GET /public/redirects/resolve?source=/path for the site edge.
func (h *RedirectsHandler) Resolve(c *fiber.Ctx) error {
	redirect, err := h.redirects.Resolve(c.UserContext(), c.Query("source"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{
		"source":      redirect.Source,
		"destination": redirect.Destination,
		"statusCode":  redirect.Type.StatusCode(),
	})
}
