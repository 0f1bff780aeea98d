package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-admin/internal/api/dto"
	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LeadsHandler exposes the CRM endpoints.
type LeadsHandler struct {
	leads *service.LeadService
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(leads *service.LeadService) *LeadsHandler {
	return &LeadsHandler{leads: leads}
}

func leadListInput(c *fiber.Ctx) service.LeadListInput {
	return service.LeadListInput{
		Status:     optionalQuery[domain.LeadStatus](c, "status"),
		Source:     optionalQuery[domain.LeadSource](c, "source"),
		Priority:   optionalQuery[domain.LeadPriority](c, "priority"),
		AssigneeID: optionalQuery[string](c, "assigneeId"),
		Search:     c.Query("search"),
		MinScore:   optionalQueryInt(c, "minScore"),
		MaxScore:   optionalQueryInt(c, "maxScore"),
		Tags:       queryList(c, "tags"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 10),
	}
}

// List handles GET /leads.
func (h *LeadsHandler) List(c *fiber.Ctx) error {
	page, err := h.leads.List(c.UserContext(), auth.SessionFromContext(c), leadListInput(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

// Get handles GET /leads/:id.
func (h *LeadsHandler) Get(c *fiber.Ctx) error {
	lead, err := h.leads.Get(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, lead)
}

// Create handles POST /leads.
func (h *LeadsHandler) Create(c *fiber.Ctx) error {
	var req dto.LeadRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	lead, err := h.leads.Create(c.UserContext(), auth.SessionFromContext(c), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, lead)
}

// QuickCreate handles POST /leads/quick. Missing optional fields yield 428
// until the caller confirms.
func (h *LeadsHandler) QuickCreate(c *fiber.Ctx) error {
	var req dto.LeadRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	lead, err := h.leads.QuickCreate(c.UserContext(), auth.SessionFromContext(c), req.ToInput(), req.QuickCreateOptions())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, lead)
}

// Update handles PUT /leads/:id.
func (h *LeadsHandler) Update(c *fiber.Ctx) error {
	var req dto.LeadUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	lead, err := h.leads.Update(c.UserContext(), auth.SessionFromContext(c), c.Params("id"), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, lead)
}

// Delete handles DELETE /leads/:id.
func (h *LeadsHandler) Delete(c *fiber.Ctx) error {
	if err := h.leads.Delete(c.UserContext(), auth.SessionFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}

// RecalculateScore handles POST /leads/:id/score.
func (h *LeadsHandler) RecalculateScore(c *fiber.Ctx) error {
	lead, err := h.leads.RecalculateScore(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, lead)
}

// Activities handles GET /leads/:id/activities.
func (h *LeadsHandler) Activities(c *fiber.Ctx) error {
	items, err := h.leads.Activities(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, items)
}

// Stats handles GET /leads/stats.
func (h *LeadsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.leads.Stats(c.UserContext(), auth.SessionFromContext(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats)
}

// Export handles GET /leads/export and streams an XLSX workbook.
func (h *LeadsHandler) Export(c *fiber.Ctx) error {
	data, err := h.leads.Export(c.UserContext(), auth.SessionFromContext(c), leadListInput(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="leads-%s.xlsx"`, time.Now().UTC().Format("2006-01-02")))
	return c.Status(http.StatusOK).Send(data)
}
