package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/observability"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

// StatsService aggregates role scoped statistics.
type StatsService interface {
	Admin(ctx context.Context, actor Actor) (dto.AdminStatsResponse, error)
	Instructor(ctx context.Context, actor Actor, instructorID uint) (dto.InstructorStatsResponse, error)
	Student(ctx context.Context, actor Actor, studentID uint) (dto.StudentStatsResponse, error)
	Course(ctx context.Context, actor Actor, courseID uint) (dto.CourseStatsResponse, error)
}

type statsService struct {
	stats       repository.StatsRepository
	users       repository.UserRepository
	courses     repository.CourseRepository
	lessons     repository.LessonRepository
	enrollments repository.EnrollmentRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// StatsRepositories groups the data sources the statistics service reads.
type StatsRepositories struct {
	Stats       repository.StatsRepository
	Users       repository.UserRepository
	Courses     repository.CourseRepository
	Lessons     repository.LessonRepository
	Enrollments repository.EnrollmentRepository
}

// NewStatsService constructs the statistics service. A nil cache disables caching.
func NewStatsService(repos StatsRepositories, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StatsService {
	return &statsService{
		stats:       repos.Stats,
		users:       repos.Users,
		courses:     repos.Courses,
		lessons:     repos.Lessons,
		enrollments: repos.Enrollments,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "stats_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/skillopus-api/internal/service/stats"),
		now:         time.Now,
	}
}

func adminStatsCacheKey(organizationID uint) string {
	return fmt.Sprintf("stats:admin:%d", organizationID)
}

func (s *statsService) Admin(ctx context.Context, actor Actor) (dto.AdminStatsResponse, error) {
	if !actor.IsAdmin() {
		return dto.AdminStatsResponse{}, ErrForbidden
	}

	cacheKey := adminStatsCacheKey(actor.OrganizationID)
	ctx, span := s.tracer.Start(ctx, "stats.admin")
	span.SetAttributes(attribute.String("stats.cache_key", cacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.AdminStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.StatsCacheLookups().WithLabelValues("hit").Inc()
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("stats.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			observability.StatsCacheLookups().WithLabelValues("error").Inc()
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
			span.RecordError(err)
		}
		observability.StatsCacheLookups().WithLabelValues("miss").Inc()
	}

	orgScope := repository.EnrollmentScope{OrganizationID: actor.OrganizationID}

	enrolled, err := s.stats.CountDistinctStudents(ctx, orgScope)
	if err != nil {
		return dto.AdminStatsResponse{}, s.fail(span, "count_enrolled_students_failed", err)
	}

	courses, err := s.stats.CountCourses(ctx, actor.OrganizationID, 0)
	if err != nil {
		return dto.AdminStatsResponse{}, s.fail(span, "count_courses_failed", err)
	}

	activeScope := orgScope
	activeScope.Status = models.EnrollmentStatusActive
	active, err := s.stats.CountDistinctStudents(ctx, activeScope)
	if err != nil {
		return dto.AdminStatsResponse{}, s.fail(span, "count_active_students_failed", err)
	}

	pendingScope := orgScope
	pendingScope.Status = models.EnrollmentStatusPending
	pending, err := s.stats.CountEnrollments(ctx, pendingScope)
	if err != nil {
		return dto.AdminStatsResponse{}, s.fail(span, "count_pending_failed", err)
	}

	byRole, err := s.stats.CountUsersByRole(ctx, actor.OrganizationID)
	if err != nil {
		return dto.AdminStatsResponse{}, s.fail(span, "count_users_by_role_failed", err)
	}

	response := dto.AdminStatsResponse{
		TotalUsers:         enrolled,
		TotalCourses:       courses,
		ActiveUsers:        active,
		PendingEnrollments: pending,
		UsersByRole:        byRole,
		GeneratedAt:        s.now().UTC(),
	}
	span.SetAttributes(
		attribute.Int64("stats.total_users", enrolled),
		attribute.Int64("stats.total_courses", courses),
	)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store stats cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

func (s *statsService) Instructor(ctx context.Context, actor Actor, instructorID uint) (dto.InstructorStatsResponse, error) {
	if actor.IsStudent() || (actor.IsInstructor() && actor.ID != instructorID) {
		return dto.InstructorStatsResponse{}, ErrForbidden
	}

	ctx, span := s.tracer.Start(ctx, "stats.instructor")
	span.SetAttributes(attribute.Int64("stats.instructor_id", int64(instructorID)))
	defer span.End()

	instructor, err := s.users.GetByID(ctx, instructorID)
	if err != nil {
		return dto.InstructorStatsResponse{}, notFound(err, ErrInstructorNotFound)
	}
	if !actor.Owns(instructor.OrganizationID) {
		return dto.InstructorStatsResponse{}, ErrInstructorNotFound
	}

	courses, err := s.stats.CountCourses(ctx, actor.OrganizationID, instructor.ID)
	if err != nil {
		return dto.InstructorStatsResponse{}, s.fail(span, "count_courses_failed", err)
	}

	courseIDs, err := s.stats.CourseIDsByInstructor(ctx, instructor.ID)
	if err != nil {
		return dto.InstructorStatsResponse{}, s.fail(span, "list_course_ids_failed", err)
	}

	students, err := s.stats.CountDistinctStudents(ctx, repository.EnrollmentScope{
		OrganizationID: actor.OrganizationID,
		CourseIDs:      courseIDs,
	})
	if err != nil {
		return dto.InstructorStatsResponse{}, s.fail(span, "count_students_failed", err)
	}

	return dto.InstructorStatsResponse{TotalCourses: courses, TotalStudents: students}, nil
}

func (s *statsService) Student(ctx context.Context, actor Actor, studentID uint) (dto.StudentStatsResponse, error) {
	if actor.IsStudent() && actor.ID != studentID {
		return dto.StudentStatsResponse{}, ErrForbidden
	}

	ctx, span := s.tracer.Start(ctx, "stats.student")
	span.SetAttributes(attribute.Int64("stats.student_id", int64(studentID)))
	defer span.End()

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return dto.StudentStatsResponse{}, notFound(err, ErrUserNotFound)
	}
	if !actor.Owns(student.OrganizationID) {
		return dto.StudentStatsResponse{}, ErrUserNotFound
	}

	enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{
		OrganizationID: actor.OrganizationID,
		StudentID:      student.ID,
	})
	if err != nil {
		return dto.StudentStatsResponse{}, s.fail(span, "list_enrollments_failed", err)
	}

	response := dto.StudentStatsResponse{TotalCourses: int64(len(enrollments))}
	if len(enrollments) == 0 {
		return response, nil
	}

	percentSum := 0
	for _, enrollment := range enrollments {
		if enrollment.Status == models.EnrollmentStatusCompleted {
			response.CompletedCourses++
		}

		lessons, err := s.lessons.ListByCourse(ctx, enrollment.CourseID)
		if err != nil {
			return dto.StudentStatsResponse{}, s.fail(span, "list_lessons_failed", err)
		}
		lessonIDs := make(map[uint]struct{}, len(lessons))
		for _, lesson := range lessons {
			lessonIDs[lesson.ID] = struct{}{}
		}
		percentSum += models.ProgressPercent(enrollment.CompletedLessons(lessonIDs), len(lessons))
	}
	response.AverageProgress = models.ProgressPercent(percentSum, 100*len(enrollments))

	return response, nil
}

func (s *statsService) Course(ctx context.Context, actor Actor, courseID uint) (dto.CourseStatsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "stats.course")
	span.SetAttributes(attribute.Int64("stats.course_id", int64(courseID)))
	defer span.End()

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.CourseStatsResponse{}, notFound(err, ErrCourseNotFound)
	}
	if !actor.Owns(course.OrganizationID) {
		return dto.CourseStatsResponse{}, ErrCourseNotFound
	}

	lessons, err := s.stats.CountLessons(ctx, course.ID)
	if err != nil {
		return dto.CourseStatsResponse{}, s.fail(span, "count_lessons_failed", err)
	}

	students, err := s.stats.CountDistinctStudents(ctx, repository.EnrollmentScope{
		OrganizationID: course.OrganizationID,
		CourseIDs:      []uint{course.ID},
		Status:         models.EnrollmentStatusActive,
	})
	if err != nil {
		return dto.CourseStatsResponse{}, s.fail(span, "count_students_failed", err)
	}

	return dto.CourseStatsResponse{TotalLessons: lessons, EnrolledStudents: students}, nil
}

func (s *statsService) fail(span trace.Span, status string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}
