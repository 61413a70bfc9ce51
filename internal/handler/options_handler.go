package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/service"
	"github.com/noah-isme/skillopus-api/internal/utils"
)

// OptionsHandler serves form picker data.
type OptionsHandler struct {
	service service.OptionsService
	logger  zerolog.Logger
}

// NewOptionsHandler constructs the handler.
func NewOptionsHandler(service service.OptionsService, logger zerolog.Logger) *OptionsHandler {
	return &OptionsHandler{
		service: service,
		logger:  logger.With().Str("component", "options_handler").Logger(),
	}
}

// Register wires option routes. The organization picker is public for the signup form.
func (h *OptionsHandler) Register(router fiber.Router, jwt fiber.Handler) {
	router.Get("/organizations", h.organizations)
	router.Get("/enrollment-options", jwt, h.enrollmentOptions)
}

func (h *OptionsHandler) enrollmentOptions(c *fiber.Ctx) error {
	options, err := h.service.EnrollmentOptions(withRequestContext(c), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "enrollment options retrieved", options)
}

func (h *OptionsHandler) organizations(c *fiber.Ctx) error {
	orgs, err := h.service.Organizations(withRequestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "organization options retrieved", orgs)
}
