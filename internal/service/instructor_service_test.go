package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

func TestInstructorServiceLifecycle(t *testing.T) {
	db := setupTestDB(t)
	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")
	users := repository.NewUserRepository(db)
	svc := NewInstructorService(users, repository.NewCourseRepository(db), newValidator(), testLogger())
	ctx := context.Background()
	admin := acme.actor(acme.admin)

	listed, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, int64(1), listed[0].CourseCount)

	_, err = svc.Assign(ctx, acme.actor(acme.instructor), dto.InstructorAssignRequest{InstructorID: acme.student.ID})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Assign(ctx, admin, dto.InstructorAssignRequest{InstructorID: globex.student.ID})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Assign(ctx, admin, dto.InstructorAssignRequest{InstructorID: acme.instructor.ID})
	require.ErrorIs(t, err, ErrAlreadyInstructor)

	promoted, err := svc.Assign(ctx, admin, dto.InstructorAssignRequest{InstructorID: acme.student.ID, Department: "Art"})
	require.NoError(t, err)
	require.Equal(t, "Art", promoted.Department)

	updated, err := svc.Update(ctx, admin, acme.student.ID, dto.InstructorUpdateRequest{Department: "Design"})
	require.NoError(t, err)
	require.Equal(t, "Design", updated.Department)

	require.ErrorIs(t, svc.Remove(ctx, admin, acme.instructor.ID), ErrInstructorHasCourses)
	require.NoError(t, svc.Remove(ctx, admin, acme.student.ID))

	demoted, err := users.GetByID(ctx, acme.student.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, demoted.Role)
	require.Empty(t, demoted.Department)

	require.ErrorIs(t, svc.Remove(ctx, admin, acme.student.ID), ErrInstructorNotFound)
}
