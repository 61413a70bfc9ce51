package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/skillopus-api/internal/config"
	"github.com/noah-isme/skillopus-api/internal/handler"
	"github.com/noah-isme/skillopus-api/internal/middleware"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	OrganizationHandler *handler.OrganizationHandler
	CourseHandler       *handler.CourseHandler
	LessonHandler       *handler.LessonHandler
	InstructorHandler   *handler.InstructorHandler
	EnrollmentHandler   *handler.EnrollmentHandler
	ProgressHandler     *handler.ProgressHandler
	StatsHandler        *handler.StatsHandler
	OptionsHandler      *handler.OptionsHandler
	EventHandler        *handler.EventHandler
	HealthChecks        []handler.HealthDependency
	JWTMiddleware       fiber.Handler
	AuthRateLimiter     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks...))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	authLimiter := deps.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.RateLimit("auth", cfg.AuthRateLimit, cfg.AuthRateWindow)
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), jwtMiddleware, authLimiter)
	}

	// Routes mixing public and authenticated endpoints take the JWT handler per route.
	if deps.OrganizationHandler != nil {
		deps.OrganizationHandler.Register(api.Group("/organizations"), jwtMiddleware)
	}

	courses := api.Group("/courses")
	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(courses, jwtMiddleware)
	}
	if deps.LessonHandler != nil {
		deps.LessonHandler.Register(courses, api.Group("/lessons", jwtMiddleware), jwtMiddleware)
	}

	if deps.OptionsHandler != nil {
		deps.OptionsHandler.Register(api.Group("/form"), jwtMiddleware)
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users", jwtMiddleware, middleware.RequireRole(models.RoleAdmin)))
	}

	if deps.InstructorHandler != nil {
		deps.InstructorHandler.Register(api.Group("/instructors", jwtMiddleware))
	}

	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(api.Group("/enrollments", jwtMiddleware))
	}

	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(api.Group("/progress", jwtMiddleware))
	}

	if deps.StatsHandler != nil {
		deps.StatsHandler.Register(api.Group("/stats", jwtMiddleware))
	}

	if deps.EventHandler != nil {
		deps.EventHandler.Register(api.Group("/events", jwtMiddleware))
	}
}
