package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/middleware"
	"github.com/noah-isme/skillopus-api/internal/service"
	"github.com/noah-isme/skillopus-api/internal/utils"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	if value == "" {
		return 0, fmt.Errorf("%s required", name)
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(parsed), nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{}
	if id, ok := c.Locals(middleware.LocalUserID).(uint); ok {
		actor.ID = id
	}
	if role, ok := c.Locals(middleware.LocalUserRole).(string); ok {
		actor.Role = role
	}
	if orgID, ok := c.Locals(middleware.LocalOrganizationID).(uint); ok {
		actor.OrganizationID = orgID
	}
	if username, ok := c.Locals(middleware.LocalUsername).(string); ok {
		actor.Username = username
	}
	return actor
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// fieldError is a single failed validation rule.
type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func validationDetails(errs validator.ValidationErrors) []fieldError {
	details := make([]fieldError, 0, len(errs))
	for _, fe := range errs {
		details = append(details, fieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return details
}

var errorStatuses = []struct {
	status int
	errs   []error
}{
	{fiber.StatusBadRequest, []error{
		service.ErrInvalidInput,
		service.ErrUnknownOrganization,
		service.ErrInvalidSecretCode,
		service.ErrInvalidCredentials,
		service.ErrInvalidInstructor,
		service.ErrEnrollmentTarget,
		service.ErrLessonContentRequired,
		service.ErrUploadTypeNotAllowed,
		service.ErrUploadsDisabled,
		service.ErrCannotDeleteSelf,
	}},
	{fiber.StatusForbidden, []error{
		service.ErrForbidden,
		service.ErrCourseInactive,
	}},
	{fiber.StatusNotFound, []error{
		service.ErrUserNotFound,
		service.ErrOrganizationNotFound,
		service.ErrInstructorNotFound,
		service.ErrCourseNotFound,
		service.ErrLessonNotFound,
		service.ErrEnrollmentNotFound,
	}},
	{fiber.StatusConflict, []error{
		service.ErrUserExists,
		service.ErrOrganizationExists,
		service.ErrOrganizationInUse,
		service.ErrInstructorHasCourses,
		service.ErrAlreadyInstructor,
		service.ErrEnrollmentExists,
		service.ErrProgressExists,
	}},
	{fiber.StatusRequestEntityTooLarge, []error{
		service.ErrUploadTooLarge,
	}},
}

// statusFor maps a service error onto an HTTP status. Unknown errors map to 500.
func statusFor(err error) int {
	for _, group := range errorStatuses {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}
	return fiber.StatusInternalServerError
}

// respondError writes the envelope for err, logging anything that is not a client error.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(validationErrors))
	}

	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("internal server error")
		return utils.SendError(c, status, "internal server error")
	}
	return utils.SendError(c, status, err.Error())
}

func badRequest(c *fiber.Ctx, message string) error {
	return utils.SendError(c, fiber.StatusBadRequest, message)
}
