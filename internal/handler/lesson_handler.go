package handler

import (
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/middleware"
	"github.com/noah-isme/skillopus-api/internal/service"
	"github.com/noah-isme/skillopus-api/internal/utils"
)

// LessonHandler manages the ordered lessons of a course.
type LessonHandler struct {
	service service.LessonService
	logger  zerolog.Logger
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(service service.LessonService, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		service: service,
		logger:  logger.With().Str("component", "lesson_handler").Logger(),
	}
}

// Register wires nested course lesson routes and the standalone lesson routes.
// The lessons group is expected to be authenticated already.
func (h *LessonHandler) Register(courses, lessons fiber.Router, jwt fiber.Handler) {
	courses.Get("/:id/lessons", jwt, h.listByCourse)
	courses.Post("/:id/lessons", jwt, middleware.WithAuth(h.create, middleware.AuthOptions{Role: middleware.AuthRoleStaff}))

	lessons.Get("/:id", h.get)
	lessons.Patch("/:id", middleware.WithAuth(h.update, middleware.AuthOptions{Role: middleware.AuthRoleStaff}))
	lessons.Delete("/:id", middleware.WithAuth(h.delete, middleware.AuthOptions{Role: middleware.AuthRoleStaff}))
}

func (h *LessonHandler) listByCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	lessons, err := h.service.ListByCourse(withRequestContext(c), actorFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *LessonHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var (
		payload dto.LessonCreateRequest
		file    *multipart.FileHeader
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		payload.Title = c.FormValue("title")
		payload.ContentURL = c.FormValue("content_url")
		if raw := strings.TrimSpace(c.FormValue("lesson_order")); raw != "" {
			order, convErr := strconv.Atoi(raw)
			if convErr != nil {
				return badRequest(c, "invalid lesson_order")
			}
			payload.LessonOrder = &order
		}
		if header, formErr := c.FormFile("file"); formErr == nil {
			file = header
		}
	} else if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	lesson, err := h.service.Create(withRequestContext(c), actorFromContext(c), courseID, payload, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendCreated(c, "lesson created", lesson)
}

func (h *LessonHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	lesson, err := h.service.Get(withRequestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "lesson retrieved", lesson)
}

func (h *LessonHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.LessonUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	lesson, err := h.service.Update(withRequestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "lesson updated", lesson)
}

func (h *LessonHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Delete(withRequestContext(c), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "lesson deleted", fiber.Map{"id": id})
}
