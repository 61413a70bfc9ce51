package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/middleware"
	"github.com/noah-isme/skillopus-api/internal/service"
	"github.com/noah-isme/skillopus-api/internal/utils"
)

// CourseHandler exposes course catalog and management endpoints.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register wires course routes. The public catalog is registered ahead of the
// parameterised routes so it is not captured by /:id.
func (h *CourseHandler) Register(router fiber.Router, jwt fiber.Handler) {
	router.Get("/catalog", h.catalog)
	router.Get("/organizations", h.catalog)

	router.Get("", jwt, h.list)
	router.Post("", jwt, middleware.WithAuth(h.create, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
	router.Get("/instructor/:id", jwt, h.listByInstructor)
	router.Get("/student/:id", jwt, h.listByStudent)
	router.Get("/:id", jwt, h.get)
	router.Patch("/:id", jwt, middleware.WithAuth(h.update, middleware.AuthOptions{Role: middleware.AuthRoleStaff}))
	router.Delete("/:id", jwt, middleware.WithAuth(h.delete, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
}

func (h *CourseHandler) catalog(c *fiber.Ctx) error {
	groups, err := h.service.Catalog(withRequestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "catalog retrieved", groups)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	var req dto.CourseListRequest
	if err := c.QueryParser(&req); err != nil {
		return badRequest(c, "invalid query parameters")
	}

	courses, err := h.service.List(withRequestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) listByInstructor(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	courses, err := h.service.ListByInstructor(withRequestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "instructor courses retrieved", courses)
}

func (h *CourseHandler) listByStudent(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	courses, err := h.service.ListByStudent(withRequestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "student courses retrieved", courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	course, err := h.service.Get(withRequestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	course, err := h.service.Create(withRequestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendCreated(c, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	course, err := h.service.Update(withRequestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Delete(withRequestContext(c), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": id})
}
