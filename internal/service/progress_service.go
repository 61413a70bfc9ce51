package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/observability"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

// ErrProgressExists indicates the lesson was already recorded for the enrollment.
var ErrProgressExists = errors.New("progress already recorded for this lesson")

// ProgressService records and summarizes lesson completion.
type ProgressService interface {
	Record(ctx context.Context, actor Actor, payload dto.ProgressCreateRequest) (dto.ProgressResponse, error)
	LessonProgress(ctx context.Context, actor Actor, lessonID, userID uint) (*dto.ProgressResponse, error)
	CourseProgress(ctx context.Context, actor Actor, courseID, userID uint) (dto.CourseProgressResponse, error)
}

type progressService struct {
	enrollments repository.EnrollmentRepository
	lessons     repository.LessonRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	events      EventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewProgressService constructs the progress service.
func NewProgressService(enrollments repository.EnrollmentRepository, lessons repository.LessonRepository, courses repository.CourseRepository, validate *validator.Validate, events EventPublisher, logger zerolog.Logger) ProgressService {
	return &progressService{
		enrollments: enrollments,
		lessons:     lessons,
		courses:     courses,
		validator:   validate,
		events:      events,
		logger:      logger.With().Str("component", "progress_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/skillopus-api/internal/service/progress"),
		now:         time.Now,
	}
}

func (s *progressService) Record(ctx context.Context, actor Actor, payload dto.ProgressCreateRequest) (dto.ProgressResponse, error) {
	ctx, span := s.tracer.Start(ctx, "progress.record")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("progress.user_id", int64(payload.UserID)),
		attribute.Int64("progress.lesson_id", int64(payload.LessonID)),
	)

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ProgressResponse{}, err
	}
	if actor.IsStudent() && payload.UserID != actor.ID {
		return dto.ProgressResponse{}, ErrForbidden
	}

	lesson, course, err := s.lessonInTenant(ctx, actor, payload.LessonID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	if actor.IsInstructor() && course.InstructorID != actor.ID && payload.UserID != actor.ID {
		return dto.ProgressResponse{}, ErrForbidden
	}

	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, payload.UserID, lesson.CourseID)
	if err != nil {
		return dto.ProgressResponse{}, notFound(err, ErrEnrollmentNotFound)
	}
	if _, exists := enrollment.FindProgress(lesson.ID); exists {
		return dto.ProgressResponse{}, ErrProgressExists
	}

	status := true
	if payload.Status != nil {
		status = *payload.Status
	}
	completedAt := s.now().UTC()
	entry := models.LessonProgress{LessonID: lesson.ID, Status: status, CompletedAt: &completedAt}

	if err := s.enrollments.AppendProgress(ctx, enrollment.ID, entry); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return dto.ProgressResponse{}, ErrProgressExists
		case errors.Is(err, repository.ErrLessonRemoved):
			return dto.ProgressResponse{}, ErrLessonNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return dto.ProgressResponse{}, notFound(err, ErrEnrollmentNotFound)
	}

	observability.ProgressRecordedTotal().Inc()
	s.logger.Info().Uint("enrollment_id", enrollment.ID).Uint("lesson_id", lesson.ID).Bool("status", status).Msg("progress recorded")
	emit(ctx, s.events, EventProgressRecorded, actor, enrollment.OrganizationID, enrollment.ID, map[string]interface{}{
		"user_id":   payload.UserID,
		"lesson_id": lesson.ID,
		"course_id": lesson.CourseID,
		"status":    status,
	})

	return dto.NewProgressResponse(entry), nil
}

func (s *progressService) LessonProgress(ctx context.Context, actor Actor, lessonID, userID uint) (*dto.ProgressResponse, error) {
	if actor.IsStudent() && userID != actor.ID {
		return nil, ErrForbidden
	}

	lesson, _, err := s.lessonInTenant(ctx, actor, lessonID)
	if errors.Is(err, ErrLessonNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, userID, lesson.CourseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entry, ok := enrollment.FindProgress(lesson.ID)
	if !ok {
		return nil, nil
	}
	response := dto.NewProgressResponse(entry)
	return &response, nil
}

func (s *progressService) CourseProgress(ctx context.Context, actor Actor, courseID, userID uint) (dto.CourseProgressResponse, error) {
	ctx, span := s.tracer.Start(ctx, "progress.course")
	defer span.End()
	span.SetAttributes(attribute.Int64("progress.course_id", int64(courseID)))

	if actor.IsStudent() && userID != actor.ID {
		return dto.CourseProgressResponse{}, ErrForbidden
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.CourseProgressResponse{}, notFound(err, ErrCourseNotFound)
	}
	if !actor.Owns(course.OrganizationID) {
		return dto.CourseProgressResponse{}, ErrCourseNotFound
	}

	lessons, err := s.lessons.ListByCourse(ctx, course.ID)
	if err != nil {
		return dto.CourseProgressResponse{}, err
	}
	lessonIDs := make(map[uint]struct{}, len(lessons))
	for _, lesson := range lessons {
		lessonIDs[lesson.ID] = struct{}{}
	}
	total := len(lessons)

	response := dto.CourseProgressResponse{CourseID: course.ID}

	if course.InstructorID == userID {
		enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{
			OrganizationID: course.OrganizationID,
			CourseID:       course.ID,
		})
		if err != nil {
			return dto.CourseProgressResponse{}, err
		}

		response.InstructorView = true
		response.Users = make([]dto.StudentProgress, 0, len(enrollments))
		for _, enrollment := range enrollments {
			completed := enrollment.CompletedLessons(lessonIDs)
			response.Users = append(response.Users, dto.StudentProgress{
				UserID:    enrollment.StudentID,
				Username:  enrollment.Student.Username,
				Email:     enrollment.Student.Email,
				Completed: completed,
				Total:     total,
				Percent:   models.ProgressPercent(completed, total),
			})
		}
		span.SetAttributes(attribute.Int("progress.students", len(response.Users)))
		return response, nil
	}

	completed := 0
	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, userID, course.ID)
	switch {
	case err == nil:
		completed = enrollment.CompletedLessons(lessonIDs)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.CourseProgressResponse{}, err
	}

	response.Details = &dto.StudentProgress{
		UserID:    userID,
		Completed: completed,
		Total:     total,
		Percent:   models.ProgressPercent(completed, total),
	}
	return response, nil
}

// lessonInTenant loads a lesson and its course, hiding lessons of other organizations.
func (s *progressService) lessonInTenant(ctx context.Context, actor Actor, lessonID uint) (models.Lesson, models.Course, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return models.Lesson{}, models.Course{}, notFound(err, ErrLessonNotFound)
	}
	course, err := s.courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return models.Lesson{}, models.Course{}, notFound(err, ErrLessonNotFound)
	}
	if !actor.Owns(course.OrganizationID) {
		return models.Lesson{}, models.Course{}, ErrLessonNotFound
	}
	return lesson, course, nil
}
