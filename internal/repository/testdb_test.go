package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/skillopus-api/internal/database"
	"github.com/noah-isme/skillopus-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	org        models.Organization
	admin      models.User
	instructor models.User
	student    models.User
	course     models.Course
}

func seedFixture(t *testing.T, db *gorm.DB, prefix string) fixture {
	t.Helper()
	f := fixture{org: models.Organization{Name: prefix + " Academy"}}
	require.NoError(t, db.Create(&f.org).Error)

	users := []*models.User{&f.admin, &f.instructor, &f.student}
	roles := []string{models.RoleAdmin, models.RoleInstructor, models.RoleStudent}
	for i, user := range users {
		*user = models.User{
			Username:       fmt.Sprintf("%s-%s", prefix, roles[i]),
			Email:          fmt.Sprintf("%s-%s@example.com", prefix, roles[i]),
			PasswordHash:   "x",
			Role:           roles[i],
			OrganizationID: f.org.ID,
		}
		require.NoError(t, db.Create(user).Error)
	}

	f.course = models.Course{
		Title:          prefix + " Go Basics",
		Level:          models.CourseLevelBeginner,
		Status:         models.CourseStatusActive,
		InstructorID:   f.instructor.ID,
		OrganizationID: f.org.ID,
	}
	require.NoError(t, db.Omit("Instructor", "Organization", "Lessons").Create(&f.course).Error)
	return f
}
