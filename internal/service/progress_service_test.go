package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

type progressFixture struct {
	svc         ProgressService
	publisher   *recordingPublisher
	acme        tenant
	globex      tenant
	enrollment  models.Enrollment
	enrollments repository.EnrollmentRepository
	lessons     repository.LessonRepository
	courses     repository.CourseRepository
}

func newProgressFixture(t *testing.T) progressFixture {
	t.Helper()
	db := setupTestDB(t)
	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")

	enrollment := models.Enrollment{
		StudentID:      acme.student.ID,
		CourseID:       acme.course.ID,
		OrganizationID: acme.org.ID,
		Status:         models.EnrollmentStatusActive,
		Progress:       datatypes.JSONSlice[models.LessonProgress]{},
	}
	enrollments := repository.NewEnrollmentRepository(db)
	require.NoError(t, enrollments.Create(context.Background(), &enrollment))

	publisher := &recordingPublisher{}
	lessons := repository.NewLessonRepository(db)
	courses := repository.NewCourseRepository(db)
	svc := NewProgressService(enrollments, lessons, courses, newValidator(), publisher, testLogger())
	return progressFixture{
		svc: svc, publisher: publisher, acme: acme, globex: globex, enrollment: enrollment,
		enrollments: enrollments, lessons: lessons, courses: courses,
	}
}

func TestProgressServiceRecord(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	student := f.acme.actor(f.acme.student)
	payload := dto.ProgressCreateRequest{UserID: f.acme.student.ID, LessonID: f.acme.lessons[0].ID}

	entry, err := f.svc.Record(ctx, student, payload)
	require.NoError(t, err)
	require.True(t, entry.Status)
	require.NotNil(t, entry.CompletedAt)
	require.Equal(t, f.acme.lessons[0].ID, entry.LessonID)

	_, err = f.svc.Record(ctx, student, payload)
	require.ErrorIs(t, err, ErrProgressExists)

	_, err = f.svc.Record(ctx, student, dto.ProgressCreateRequest{UserID: f.acme.student.ID, LessonID: 9999})
	require.ErrorIs(t, err, ErrLessonNotFound)

	_, err = f.svc.Record(ctx, student, dto.ProgressCreateRequest{UserID: f.acme.student.ID, LessonID: f.globex.lessons[0].ID})
	require.ErrorIs(t, err, ErrLessonNotFound)

	_, err = f.svc.Record(ctx, student, dto.ProgressCreateRequest{UserID: f.acme.admin.ID, LessonID: f.acme.lessons[1].ID})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Record(ctx, f.acme.actor(f.acme.admin), dto.ProgressCreateRequest{UserID: f.acme.admin.ID, LessonID: f.acme.lessons[1].ID})
	require.ErrorIs(t, err, ErrEnrollmentNotFound)

	require.Equal(t, []string{EventProgressRecorded}, f.publisher.types())
}

func TestProgressServiceLessonProgress(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	student := f.acme.actor(f.acme.student)

	entry, err := f.svc.LessonProgress(ctx, student, f.acme.lessons[0].ID, f.acme.student.ID)
	require.NoError(t, err)
	require.Nil(t, entry)

	incomplete := false
	_, err = f.svc.Record(ctx, f.acme.actor(f.acme.instructor), dto.ProgressCreateRequest{UserID: f.acme.student.ID, LessonID: f.acme.lessons[0].ID, Status: &incomplete})
	require.NoError(t, err)

	entry, err = f.svc.LessonProgress(ctx, student, f.acme.lessons[0].ID, f.acme.student.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.False(t, entry.Status)

	entry, err = f.svc.LessonProgress(ctx, f.acme.actor(f.acme.admin), 9999, f.acme.student.ID)
	require.NoError(t, err)
	require.Nil(t, entry)

	_, err = f.svc.LessonProgress(ctx, student, f.acme.lessons[0].ID, f.acme.admin.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestProgressServiceCourseProgressViews(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	student := f.acme.actor(f.acme.student)

	_, err := f.svc.Record(ctx, student, dto.ProgressCreateRequest{UserID: f.acme.student.ID, LessonID: f.acme.lessons[0].ID})
	require.NoError(t, err)

	single, err := f.svc.CourseProgress(ctx, student, f.acme.course.ID, f.acme.student.ID)
	require.NoError(t, err)
	require.False(t, single.InstructorView)
	require.NotNil(t, single.Details)
	require.Equal(t, 1, single.Details.Completed)
	require.Equal(t, 2, single.Details.Total)
	require.Equal(t, 50, single.Details.Percent)

	roster, err := f.svc.CourseProgress(ctx, f.acme.actor(f.acme.instructor), f.acme.course.ID, f.acme.instructor.ID)
	require.NoError(t, err)
	require.True(t, roster.InstructorView)
	require.Len(t, roster.Users, 1)
	require.Equal(t, "acme-student", roster.Users[0].Username)
	require.Equal(t, 50, roster.Users[0].Percent)

	notEnrolled, err := f.svc.CourseProgress(ctx, f.acme.actor(f.acme.admin), f.acme.course.ID, f.acme.admin.ID)
	require.NoError(t, err)
	require.Equal(t, 0, notEnrolled.Details.Completed)
	require.Equal(t, 0, notEnrolled.Details.Percent)

	_, err = f.svc.CourseProgress(ctx, f.globex.actor(f.globex.admin), f.acme.course.ID, f.acme.student.ID)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestProgressServiceIgnoresDeletedLessons(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	student := f.acme.actor(f.acme.student)

	for _, lesson := range f.acme.lessons {
		_, err := f.svc.Record(ctx, student, dto.ProgressCreateRequest{UserID: f.acme.student.ID, LessonID: lesson.ID})
		require.NoError(t, err)
	}
	require.NoError(t, f.lessons.Delete(ctx, f.acme.lessons[1]))

	view, err := f.svc.CourseProgress(ctx, student, f.acme.course.ID, f.acme.student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, view.Details.Completed)
	require.Equal(t, 1, view.Details.Total)
	require.Equal(t, 100, view.Details.Percent)
}

// interleavedEnrollments runs between once after the enrollment has been read, before Record writes.
type interleavedEnrollments struct {
	repository.EnrollmentRepository
	between func()
}

func (r *interleavedEnrollments) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	enrollment, err := r.EnrollmentRepository.GetByStudentAndCourse(ctx, studentID, courseID)
	if between := r.between; between != nil {
		r.between = nil
		between()
	}
	return enrollment, err
}

func TestProgressServiceRecordConcurrentWrites(t *testing.T) {
	ctx := context.Background()

	t.Run("different lessons both persist", func(t *testing.T) {
		f := newProgressFixture(t)
		student := f.acme.actor(f.acme.student)
		repo := &interleavedEnrollments{EnrollmentRepository: f.enrollments}
		svc := NewProgressService(repo, f.lessons, f.courses, newValidator(), nil, testLogger())
		repo.between = func() {
			_, err := svc.Record(ctx, student, dto.ProgressCreateRequest{UserID: f.acme.student.ID, LessonID: f.acme.lessons[1].ID})
			require.NoError(t, err)
		}

		_, err := svc.Record(ctx, student, dto.ProgressCreateRequest{UserID: f.acme.student.ID, LessonID: f.acme.lessons[0].ID})
		require.NoError(t, err)

		stored, err := f.enrollments.GetByID(ctx, f.enrollment.ID)
		require.NoError(t, err)
		require.Len(t, stored.Progress, 2)
	})

	t.Run("same lesson conflicts", func(t *testing.T) {
		f := newProgressFixture(t)
		student := f.acme.actor(f.acme.student)
		payload := dto.ProgressCreateRequest{UserID: f.acme.student.ID, LessonID: f.acme.lessons[0].ID}
		repo := &interleavedEnrollments{EnrollmentRepository: f.enrollments}
		svc := NewProgressService(repo, f.lessons, f.courses, newValidator(), nil, testLogger())
		repo.between = func() {
			_, err := svc.Record(ctx, student, payload)
			require.NoError(t, err)
		}

		_, err := svc.Record(ctx, student, payload)
		require.ErrorIs(t, err, ErrProgressExists)

		stored, err := f.enrollments.GetByID(ctx, f.enrollment.ID)
		require.NoError(t, err)
		require.Len(t, stored.Progress, 1)
	})

	t.Run("lesson deleted before write", func(t *testing.T) {
		f := newProgressFixture(t)
		student := f.acme.actor(f.acme.student)
		repo := &interleavedEnrollments{EnrollmentRepository: f.enrollments}
		svc := NewProgressService(repo, f.lessons, f.courses, newValidator(), nil, testLogger())
		repo.between = func() {
			require.NoError(t, f.lessons.Delete(ctx, f.acme.lessons[0]))
		}

		_, err := svc.Record(ctx, student, dto.ProgressCreateRequest{UserID: f.acme.student.ID, LessonID: f.acme.lessons[0].ID})
		require.ErrorIs(t, err, ErrLessonNotFound)

		stored, err := f.enrollments.GetByID(ctx, f.enrollment.ID)
		require.NoError(t, err)
		require.Empty(t, stored.Progress)
	})
}
