package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/middleware"
	"github.com/noah-isme/skillopus-api/internal/service"
	"github.com/noah-isme/skillopus-api/internal/utils"
)

// InstructorHandler manages instructor assignments.
type InstructorHandler struct {
	service service.InstructorService
	logger  zerolog.Logger
}

// NewInstructorHandler constructs the handler.
func NewInstructorHandler(service service.InstructorService, logger zerolog.Logger) *InstructorHandler {
	return &InstructorHandler{
		service: service,
		logger:  logger.With().Str("component", "instructor_handler").Logger(),
	}
}

// Register wires instructor routes.
func (h *InstructorHandler) Register(router fiber.Router) {
	adminOnly := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}

	router.Get("", h.list)
	router.Post("", middleware.WithAuth(h.assign, adminOnly))
	router.Patch("/:id", middleware.WithAuth(h.update, adminOnly))
	router.Delete("/:id", middleware.WithAuth(h.remove, adminOnly))
}

func (h *InstructorHandler) list(c *fiber.Ctx) error {
	instructors, err := h.service.List(withRequestContext(c), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "instructors retrieved", instructors)
}

func (h *InstructorHandler) assign(c *fiber.Ctx) error {
	var payload dto.InstructorAssignRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	instructor, err := h.service.Assign(withRequestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendCreated(c, "instructor assigned", instructor)
}

func (h *InstructorHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.InstructorUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	instructor, err := h.service.Update(withRequestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "instructor updated", instructor)
}

func (h *InstructorHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Remove(withRequestContext(c), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "instructor removed", fiber.Map{"id": id})
}
