package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/service"
	"github.com/noah-isme/skillopus-api/internal/utils"
)

// OrganizationHandler manages tenants.
type OrganizationHandler struct {
	service service.OrganizationService
	logger  zerolog.Logger
}

// NewOrganizationHandler constructs the handler.
func NewOrganizationHandler(service service.OrganizationService, logger zerolog.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		service: service,
		logger:  logger.With().Str("component", "organization_handler").Logger(),
	}
}

// Register wires organization routes. Creation and listing are public.
func (h *OrganizationHandler) Register(router fiber.Router, jwt fiber.Handler) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", jwt, h.get)
	router.Patch("/:id", jwt, h.update)
	router.Delete("/:id", jwt, h.delete)
}

func (h *OrganizationHandler) create(c *fiber.Ctx) error {
	var payload dto.OrganizationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	org, err := h.service.Create(withRequestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendCreated(c, "organization created", org)
}

func (h *OrganizationHandler) list(c *fiber.Ctx) error {
	orgs, err := h.service.List(withRequestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "organizations retrieved", orgs)
}

func (h *OrganizationHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	org, err := h.service.Get(withRequestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "organization retrieved", org)
}

func (h *OrganizationHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.OrganizationUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	org, err := h.service.Update(withRequestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "organization updated", org)
}

func (h *OrganizationHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Delete(withRequestContext(c), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "organization deleted", fiber.Map{"id": id})
}
