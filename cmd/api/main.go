package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/config"
	"github.com/noah-isme/skillopus-api/internal/database"
	"github.com/noah-isme/skillopus-api/internal/handler"
	"github.com/noah-isme/skillopus-api/internal/middleware"
	"github.com/noah-isme/skillopus-api/internal/repository"
	"github.com/noah-isme/skillopus-api/internal/router"
	"github.com/noah-isme/skillopus-api/internal/service"
	cloud "github.com/noah-isme/skillopus-api/pkg/cloudinary"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	healthChecks := []handler.HealthDependency{{Name: "postgres", Required: true, Ping: database.PingPostgres(db)}}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		healthChecks = append(healthChecks, handler.HealthDependency{Name: "redis", Ping: database.PingRedis(redisClient)})
	} else {
		logger.Warn().Msg("redis not configured, statistics are computed on every request")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
		healthChecks = append(healthChecks, handler.HealthDependency{Name: "nats", Ping: database.PingNATS(natsConn)})
	}

	var uploader service.FileUploader
	if cfg.UploadsEnabled() {
		cld, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cld
	} else {
		logger.Warn().Msg("cloudinary not configured, lessons require a content_url")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	orgRepo := repository.NewOrganizationRepository(db)
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := service.NewEventService(natsConn, cfg.EventChannel, logger)
	events.Start(ctx)

	authService := service.NewAuthService(userRepo, orgRepo, validate, cfg.JWTSecret, cfg.JWTTTL, logger)
	userService := service.NewUserService(userRepo, courseRepo, validate, logger)
	orgService := service.NewOrganizationService(orgRepo, validate, logger)
	instructorService := service.NewInstructorService(userRepo, courseRepo, validate, logger)
	courseService := service.NewCourseService(courseRepo, userRepo, enrollmentRepo, validate, events, logger)
	lessonService := service.NewLessonService(lessonRepo, courseRepo, uploader, cfg.UploadMaxMB, validate, events, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, userRepo, courseRepo, validate, events, logger)
	progressService := service.NewProgressService(enrollmentRepo, lessonRepo, courseRepo, validate, events, logger)
	statsService := service.NewStatsService(service.StatsRepositories{
		Stats:       statsRepo,
		Users:       userRepo,
		Courses:     courseRepo,
		Lessons:     lessonRepo,
		Enrollments: enrollmentRepo,
	}, redisClient, cfg.StatsCacheTTL, logger)
	optionsService := service.NewOptionsService(userRepo, courseRepo, orgRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
		AccessLog:    cfg.IsDevelopment(),
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		UserHandler:         handler.NewUserHandler(userService, logger),
		OrganizationHandler: handler.NewOrganizationHandler(orgService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, logger),
		LessonHandler:       handler.NewLessonHandler(lessonService, logger),
		InstructorHandler:   handler.NewInstructorHandler(instructorService, logger),
		EnrollmentHandler:   handler.NewEnrollmentHandler(enrollmentService, logger),
		ProgressHandler:     handler.NewProgressHandler(progressService, logger),
		StatsHandler:        handler.NewStatsHandler(statsService, logger),
		OptionsHandler:      handler.NewOptionsHandler(optionsService, logger),
		EventHandler:        handler.NewEventHandler(events, logger),
		HealthChecks:        healthChecks,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		AuthRateLimiter:     middleware.RateLimit("auth", cfg.AuthRateLimit, cfg.AuthRateWindow),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("env", cfg.AppEnv).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(ctx, app, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
