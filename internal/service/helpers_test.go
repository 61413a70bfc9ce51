package service

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/skillopus-api/internal/database"
	"github.com/noah-isme/skillopus-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type tenant struct {
	org        models.Organization
	admin      models.User
	instructor models.User
	student    models.User
	course     models.Course
	lessons    []models.Lesson
}

func (f tenant) actor(user models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role, OrganizationID: user.OrganizationID, Username: user.Username}
}

// seedTenant creates an organization with one user per role, an active course and two lessons.
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

func newValidator() *validator.Validate {
	return validator.New()
}
