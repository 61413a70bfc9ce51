package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/observability"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

var (
	// ErrEnrollmentNotFound indicates the enrollment does not exist in the caller's organization.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrEnrollmentExists indicates the student is already enrolled in the course.
	ErrEnrollmentExists = errors.New("student is already enrolled in this course")
	// ErrEnrollmentTarget indicates the referenced user or course does not exist.
	ErrEnrollmentTarget = errors.New("user or course not found")
)

// EnrollmentService manages student enrollments.
type EnrollmentService interface {
	List(ctx context.Context, actor Actor, req dto.EnrollmentListRequest) ([]dto.EnrollmentListItem, error)
	Create(ctx context.Context, actor Actor, payload dto.EnrollmentCreateRequest) (dto.EnrollmentResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.EnrollmentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.EnrollmentUpdateRequest) (dto.EnrollmentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	users       repository.UserRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	events      EventPublisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(enrollments repository.EnrollmentRepository, users repository.UserRepository, courses repository.CourseRepository, validate *validator.Validate, events EventPublisher, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollments,
		users:       users,
		courses:     courses,
		validator:   validate,
		events:      events,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		now:         time.Now,
	}
}

func (s *enrollmentService) List(ctx context.Context, actor Actor, req dto.EnrollmentListRequest) ([]dto.EnrollmentListItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	filter := repository.EnrollmentFilter{
		OrganizationID: actor.OrganizationID,
		CourseID:       req.CourseID,
		StudentID:      req.StudentID,
		Status:         req.Status,
	}
	if actor.IsStudent() {
		filter.StudentID = actor.ID
	}

	enrollments, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewEnrollmentListItems(enrollments), nil
}

func (s *enrollmentService) Create(ctx context.Context, actor Actor, payload dto.EnrollmentCreateRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if actor.IsStudent() && payload.UserID != actor.ID {
		return dto.EnrollmentResponse{}, ErrForbidden
	}

	student, course, err := s.resolveTargets(ctx, actor, payload.UserID, payload.CourseID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if actor.IsStudent() && !course.IsActive() {
		return dto.EnrollmentResponse{}, ErrCourseInactive
	}
	if actor.IsInstructor() && course.InstructorID != actor.ID {
		return dto.EnrollmentResponse{}, ErrForbidden
	}

	if _, err := s.enrollments.GetByStudentAndCourse(ctx, student.ID, course.ID); err == nil {
		return dto.EnrollmentResponse{}, ErrEnrollmentExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.EnrollmentResponse{}, err
	}

	status := payload.Status
	if status == "" || actor.IsStudent() {
		status = models.EnrollmentStatusPending
	}

	enrollment := models.Enrollment{
		StudentID:      student.ID,
		CourseID:       course.ID,
		OrganizationID: actor.OrganizationID,
		Status:         status,
		EnrolledAt:     s.now().UTC(),
		Progress:       datatypes.JSONSlice[models.LessonProgress]{},
	}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrollmentResponse{}, ErrEnrollmentExists
		}
		return dto.EnrollmentResponse{}, err
	}

	enrollment.Student = student
	enrollment.Course = course

	observability.EnrollmentsTotal().WithLabelValues("create").Inc()
	s.logger.Info().Uint("enrollment_id", enrollment.ID).Uint("student_id", student.ID).Uint("course_id", course.ID).Msg("enrollment created")
	emit(ctx, s.events, EventEnrollmentCreated, actor, enrollment.OrganizationID, enrollment.ID, map[string]interface{}{
		"user_id":   student.ID,
		"course_id": course.ID,
		"status":    enrollment.Status,
	})

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Get(ctx context.Context, actor Actor, id uint) (dto.EnrollmentResponse, error) {
	enrollment, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if actor.IsStudent() && enrollment.StudentID != actor.ID {
		return dto.EnrollmentResponse{}, ErrForbidden
	}
	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Update(ctx context.Context, actor Actor, id uint, payload dto.EnrollmentUpdateRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	enrollment, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	switch {
	case actor.IsStudent():
		if enrollment.StudentID != actor.ID || payload.UserID != nil || payload.CourseID != nil {
			return dto.EnrollmentResponse{}, ErrForbidden
		}
		if payload.Status == nil || *payload.Status != models.EnrollmentStatusDropped {
			return dto.EnrollmentResponse{}, ErrForbidden
		}
	case actor.IsInstructor():
		if enrollment.Course.InstructorID != actor.ID {
			return dto.EnrollmentResponse{}, ErrForbidden
		}
	}

	studentID := enrollment.StudentID
	if payload.UserID != nil {
		studentID = *payload.UserID
	}
	courseID := enrollment.CourseID
	if payload.CourseID != nil {
		courseID = *payload.CourseID
	}

	// progress belongs to one student in one course, so moving either side starts it over
	moved := studentID != enrollment.StudentID || courseID != enrollment.CourseID
	if moved {
		student, course, err := s.resolveTargets(ctx, actor, studentID, courseID)
		if err != nil {
			return dto.EnrollmentResponse{}, err
		}
		if actor.IsInstructor() && course.InstructorID != actor.ID {
			return dto.EnrollmentResponse{}, ErrForbidden
		}
		enrollment.StudentID = student.ID
		enrollment.Student = student
		enrollment.CourseID = course.ID
		enrollment.Course = course
	}
	if payload.Status != nil {
		enrollment.Status = *payload.Status
	}

	if err := s.enrollments.Update(ctx, &enrollment, moved); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrollmentResponse{}, ErrEnrollmentExists
		}
		return dto.EnrollmentResponse{}, err
	}

	observability.EnrollmentsTotal().WithLabelValues("update").Inc()
	s.logger.Info().Uint("enrollment_id", enrollment.ID).Str("status", enrollment.Status).Uint("actor_id", actor.ID).Msg("enrollment updated")
	emit(ctx, s.events, EventEnrollmentUpdated, actor, enrollment.OrganizationID, enrollment.ID, map[string]interface{}{
		"user_id":   enrollment.StudentID,
		"course_id": enrollment.CourseID,
		"status":    enrollment.Status,
	})

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	enrollment, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && enrollment.StudentID != actor.ID {
		return ErrForbidden
	}

	if err := s.enrollments.Delete(ctx, enrollment.ID); err != nil {
		return notFound(err, ErrEnrollmentNotFound)
	}

	observability.EnrollmentsTotal().WithLabelValues("delete").Inc()
	s.logger.Info().Uint("enrollment_id", enrollment.ID).Uint("actor_id", actor.ID).Msg("enrollment deleted")
	emit(ctx, s.events, EventEnrollmentDeleted, actor, enrollment.OrganizationID, enrollment.ID, map[string]interface{}{
		"user_id":   enrollment.StudentID,
		"course_id": enrollment.CourseID,
	})
	return nil
}

func (s *enrollmentService) load(ctx context.Context, actor Actor, id uint) (models.Enrollment, error) {
	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		return models.Enrollment{}, notFound(err, ErrEnrollmentNotFound)
	}
	if !actor.Owns(enrollment.OrganizationID) {
		return models.Enrollment{}, ErrEnrollmentNotFound
	}
	return enrollment, nil
}

// resolveTargets loads the user and course of an enrollment, both of which must live in the actor's organization.
func (s *enrollmentService) resolveTargets(ctx context.Context, actor Actor, userID, courseID uint) (models.User, models.Course, error) {
	student, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, models.Course{}, notFound(err, ErrEnrollmentTarget)
	}
	if !actor.Owns(student.OrganizationID) {
		return models.User{}, models.Course{}, ErrEnrollmentTarget
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return models.User{}, models.Course{}, notFound(err, ErrEnrollmentTarget)
	}
	if !actor.Owns(course.OrganizationID) {
		return models.User{}, models.Course{}, ErrEnrollmentTarget
	}
	return student, course, nil
}
