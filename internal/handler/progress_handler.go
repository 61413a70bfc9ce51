package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/service"
	"github.com/noah-isme/skillopus-api/internal/utils"
)

// ProgressHandler records and reports lesson completion.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register wires progress routes.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Post("", h.record)
	router.Get("/lesson/:lesson_id/user/:user_id", h.lessonProgress)
	router.Get("/course/:course_id/user/:user_id", h.courseProgress)
}

func (h *ProgressHandler) record(c *fiber.Ctx) error {
	var payload dto.ProgressCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := h.service.Record(withRequestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendCreated(c, "progress recorded", entry)
}

func (h *ProgressHandler) lessonProgress(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "lesson_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	userID, err := parseUintParam(c, "user_id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	entry, err := h.service.LessonProgress(withRequestContext(c), actorFromContext(c), lessonID, userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	// entry is a typed nil when nothing was recorded, which encodes as "data": null
	return utils.SendSuccess(c, "progress retrieved", entry)
}

func (h *ProgressHandler) courseProgress(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "course_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	userID, err := parseUintParam(c, "user_id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	progress, err := h.service.CourseProgress(withRequestContext(c), actorFromContext(c), courseID, userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course progress retrieved", progress)
}
