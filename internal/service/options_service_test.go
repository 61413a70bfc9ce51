package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillopus-api/internal/repository"
)

func TestOptionsServiceEnrollmentOptions(t *testing.T) {
	db := setupTestDB(t)
	acme := seedTenant(t, db, "acme")
	seedTenant(t, db, "globex")
	svc := NewOptionsService(repository.NewUserRepository(db), repository.NewCourseRepository(db), repository.NewOrganizationRepository(db), testLogger())

	_, err := svc.EnrollmentOptions(context.Background(), acme.actor(acme.student))
	require.ErrorIs(t, err, ErrForbidden)

	options, err := svc.EnrollmentOptions(context.Background(), acme.actor(acme.instructor))
	require.NoError(t, err)
	require.Len(t, options.Users, 1)
	require.Equal(t, acme.student.ID, options.Users[0].Value)
	require.Equal(t, "acme-student@example.com", options.Users[0].Email)
	require.Len(t, options.Courses, 1)
	require.Equal(t, acme.course.Title, options.Courses[0].Label)
	require.Len(t, options.Instructors, 1)
	require.Empty(t, options.Instructors[0].Email)

	orgs, err := svc.Organizations(context.Background())
	require.NoError(t, err)
	require.Len(t, orgs, 2)
}
