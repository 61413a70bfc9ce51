package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/middleware"
	"github.com/noah-isme/skillopus-api/internal/service"
	"github.com/noah-isme/skillopus-api/internal/utils"
)

// StatsHandler serves the dashboard statistics.
type StatsHandler struct {
	service service.StatsService
	logger  zerolog.Logger
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(service service.StatsService, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger.With().Str("component", "stats_handler").Logger(),
	}
}

// Register wires statistics routes. /lesson/:id is kept as an alias of /course/:id.
func (h *StatsHandler) Register(router fiber.Router) {
	router.Get("/admin", middleware.WithAuth(h.admin, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
	router.Get("/instructor/:id", middleware.WithAuth(h.instructor, middleware.AuthOptions{Role: middleware.AuthRoleStaff}))
	router.Get("/student/:id", h.student)
	router.Get("/course/:id", h.course)
	router.Get("/lesson/:id", h.course)
}

func (h *StatsHandler) admin(c *fiber.Ctx) error {
	stats, err := h.service.Admin(withRequestContext(c), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(middleware.HeaderCacheHit, strconv.FormatBool(stats.CacheHit))
	return utils.SendSuccess(c, "admin statistics retrieved", stats)
}

func (h *StatsHandler) instructor(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	stats, err := h.service.Instructor(withRequestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "instructor statistics retrieved", stats)
}

func (h *StatsHandler) student(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	stats, err := h.service.Student(withRequestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "student statistics retrieved", stats)
}

func (h *StatsHandler) course(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	stats, err := h.service.Course(withRequestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course statistics retrieved", stats)
}
