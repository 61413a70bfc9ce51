package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/skillopus-api/internal/config"
	"github.com/noah-isme/skillopus-api/internal/database"
	"github.com/noah-isme/skillopus-api/internal/handler"
	"github.com/noah-isme/skillopus-api/internal/middleware"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/repository"
	"github.com/noah-isme/skillopus-api/internal/router"
	"github.com/noah-isme/skillopus-api/internal/service"
)

const testSecret = "handler-test-secret"

type tenant struct {
	org        models.Organization
	admin      models.User
	instructor models.User
	student    models.User
	course     models.Course
	lessons    []models.Lesson
}

type testApp struct {
	app    *fiber.App
	db     *gorm.DB
	acme   tenant
	globex tenant
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	cfg := config.Config{AppName: "Skillopus API", AppEnv: "test", AuthRateLimit: 100, AuthRateWindow: time.Minute}

	orgs := repository.NewOrganizationRepository(db)
	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	lessons := repository.NewLessonRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	events := service.NewEventService(nil, "skillopus:events", logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(service.NewAuthService(users, orgs, validate, testSecret, time.Hour, logger), logger),
		UserHandler:         handler.NewUserHandler(service.NewUserService(users, courses, validate, logger), logger),
		OrganizationHandler: handler.NewOrganizationHandler(service.NewOrganizationService(orgs, validate, logger), logger),
		CourseHandler:       handler.NewCourseHandler(service.NewCourseService(courses, users, enrollments, validate, events, logger), logger),
		LessonHandler:       handler.NewLessonHandler(service.NewLessonService(lessons, courses, nil, 200, validate, events, logger), logger),
		InstructorHandler:   handler.NewInstructorHandler(service.NewInstructorService(users, courses, validate, logger), logger),
		EnrollmentHandler:   handler.NewEnrollmentHandler(service.NewEnrollmentService(enrollments, users, courses, validate, events, logger), logger),
		ProgressHandler:     handler.NewProgressHandler(service.NewProgressService(enrollments, lessons, courses, validate, events, logger), logger),
		StatsHandler: handler.NewStatsHandler(service.NewStatsService(service.StatsRepositories{
			Stats:       repository.NewStatsRepository(db),
			Users:       users,
			Courses:     courses,
			Lessons:     lessons,
			Enrollments: enrollments,
		}, nil, time.Minute, logger), logger),
		OptionsHandler: handler.NewOptionsHandler(service.NewOptionsService(users, courses, orgs, logger), logger),
		EventHandler:   handler.NewEventHandler(events, logger),
		JWTMiddleware:  middleware.JWTProtected(testSecret),
	})

	return testApp{app: app, db: db, acme: seedTenant(t, db, "acme"), globex: seedTenant(t, db, "globex")}
}

func seedTenant(t *testing.T, db *gorm.DB, prefix string) tenant {
	t.Helper()
	f := tenant{org: models.Organization{Name: prefix + " Academy"}}
	require.NoError(t, db.Create(&f.org).Error)

	users := []*models.User{&f.admin, &f.instructor, &f.student}
	roles := []string{models.RoleAdmin, models.RoleInstructor, models.RoleStudent}
	for i, user := range users {
		*user = models.User{
			Username:       fmt.Sprintf("%s-%s", prefix, roles[i]),
			Email:          fmt.Sprintf("%s-%s@example.com", prefix, roles[i]),
			Role:           roles[i],
			OrganizationID: f.org.ID,
		}
		require.NoError(t, user.SetPassword("secret123"))
		require.NoError(t, db.Omit("Organization").Create(user).Error)
	}

	f.course = models.Course{
		Title:          prefix + " Go Basics",
		Level:          models.CourseLevelBeginner,
		Status:         models.CourseStatusActive,
		InstructorID:   f.instructor.ID,
		OrganizationID: f.org.ID,
	}
	require.NoError(t, db.Omit("Instructor", "Organization", "Lessons").Create(&f.course).Error)

	for i := 1; i <= 2; i++ {
		lesson := models.Lesson{
			CourseID:    f.course.ID,
			Title:       fmt.Sprintf("Lesson %d", i),
			ContentURL:  fmt.Sprintf("https://cdn.example.com/%s/%d.mp4", prefix, i),
			LessonOrder: i,
		}
		require.NoError(t, db.Create(&lesson).Error)
		f.lessons = append(f.lessons, lesson)
	}
	return f
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":             strconv.FormatUint(uint64(user.ID), 10),
		"role":            user.Role,
		"organization_id": user.OrganizationID,
		"username":        user.Username,
		"exp":             time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// call issues a JSON request. A zero user sends no Authorization header.
func (a testApp) call(t *testing.T, method, path string, user models.User, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if user.ID != 0 {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tokenFor(t, user))
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func decodeData(t *testing.T, resp *http.Response, target interface{}) envelope {
	t.Helper()
	var body envelope
	decodeResponse(t, resp, &body)
	if target != nil {
		require.NoError(t, json.Unmarshal(body.Data, target))
	}
	return body
}

func apiPath(format string, args ...interface{}) string {
	return "/api/v1" + fmt.Sprintf(format, args...)
}

func jsonUnmarshal(raw json.RawMessage, target interface{}) error {
	return json.Unmarshal(raw, target)
}
