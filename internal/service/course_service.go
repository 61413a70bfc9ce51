package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

var (
	// ErrCourseNotFound indicates the course does not exist in the caller's organization.
	ErrCourseNotFound = errors.New("course not found")
	// ErrCourseInactive denies students access to draft or archived courses.
	ErrCourseInactive = errors.New("course is not active")
	// ErrInvalidInstructor indicates the referenced instructor cannot teach in this organization.
	ErrInvalidInstructor = errors.New("instructor must be an instructor of the same organization")
)

// CourseService exposes course catalogue use cases.
type CourseService interface {
	List(ctx context.Context, actor Actor, req dto.CourseListRequest) ([]dto.CourseResponse, error)
	Catalog(ctx context.Context) ([]dto.CatalogGroup, error)
	ListByInstructor(ctx context.Context, actor Actor, instructorID uint) ([]dto.CourseResponse, error)
	ListByStudent(ctx context.Context, actor Actor, studentID uint) ([]dto.StudentCourseResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type courseService struct {
	courses     repository.CourseRepository
	users       repository.UserRepository
	enrollments repository.EnrollmentRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	events      EventPublisher
	logger      zerolog.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(courses repository.CourseRepository, users repository.UserRepository, enrollments repository.EnrollmentRepository, validate *validator.Validate, events EventPublisher, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:     courses,
		users:       users,
		enrollments: enrollments,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		events:      events,
		logger:      logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context, actor Actor, req dto.CourseListRequest) ([]dto.CourseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	filter := repository.CourseFilter{
		OrganizationID: actor.OrganizationID,
		Status:         req.Status,
		Category:       req.Category,
		Level:          req.Level,
		Search:         req.Search,
	}
	if actor.IsStudent() {
		filter.Status = models.CourseStatusActive
	}

	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Catalog(ctx context.Context) ([]dto.CatalogGroup, error) {
	courses, err := s.courses.ListActiveWithOrganization(ctx)
	if err != nil {
		return nil, err
	}

	groups := make([]dto.CatalogGroup, 0)
	index := make(map[uint]int)
	for _, course := range courses {
		position, ok := index[course.OrganizationID]
		if !ok {
			groups = append(groups, dto.CatalogGroup{
				OrganizationID:   course.OrganizationID,
				OrganizationName: course.Organization.Name,
				Courses:          make([]dto.CatalogCourse, 0),
			})
			position = len(groups) - 1
			index[course.OrganizationID] = position
		}

		groups[position].Courses = append(groups[position].Courses, dto.CatalogCourse{
			ID:               course.ID,
			Title:            course.Title,
			Description:      course.Description,
			Category:         course.Category,
			Level:            course.Level,
			InstructorID:     course.InstructorID,
			OrganizationID:   course.OrganizationID,
			OrganizationName: course.Organization.Name,
			Status:           course.Status,
		})
	}
	return groups, nil
}

func (s *courseService) ListByInstructor(ctx context.Context, actor Actor, instructorID uint) ([]dto.CourseResponse, error) {
	filter := repository.CourseFilter{OrganizationID: actor.OrganizationID, InstructorID: instructorID}
	if actor.IsStudent() {
		filter.Status = models.CourseStatusActive
	}

	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) ListByStudent(ctx context.Context, actor Actor, studentID uint) ([]dto.StudentCourseResponse, error) {
	if actor.IsStudent() && actor.ID != studentID {
		return nil, ErrForbidden
	}

	enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{
		OrganizationID: actor.OrganizationID,
		StudentID:      studentID,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.StudentCourseResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		if enrollment.Course.ID == 0 {
			continue
		}
		responses = append(responses, dto.StudentCourseResponse{
			CourseResponse:   dto.NewCourseResponse(enrollment.Course),
			EnrollmentID:     enrollment.ID,
			EnrollmentStatus: enrollment.Status,
		})
	}
	return responses, nil
}

func (s *courseService) Get(ctx context.Context, actor Actor, id uint) (dto.CourseResponse, error) {
	course, err := loadVisibleCourse(ctx, s.courses, actor, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if !actor.IsAdmin() {
		return dto.CourseResponse{}, ErrForbidden
	}

	payload.Title = s.clean(payload.Title)
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	instructor, err := s.resolveInstructor(ctx, actor, payload.InstructorID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	level := payload.Level
	if level == "" {
		level = models.CourseLevelBeginner
	}
	status := payload.Status
	if status == "" {
		status = models.CourseStatusDraft
	}
	createdBy := actor.ID

	course := models.Course{
		Title:          payload.Title,
		Description:    s.clean(payload.Description),
		Category:       s.clean(payload.Category),
		Level:          level,
		Status:         status,
		InstructorID:   instructor.ID,
		OrganizationID: actor.OrganizationID,
		CreatedByID:    &createdBy,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}
	course.Instructor = instructor

	s.logger.Info().Uint("course_id", course.ID).Uint("actor_id", actor.ID).Msg("course created")
	emit(ctx, s.events, EventCourseCreated, actor, course.OrganizationID, course.ID, map[string]interface{}{
		"title":         course.Title,
		"instructor_id": course.InstructorID,
	})

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, actor Actor, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if payload.Title != nil {
		title := s.clean(*payload.Title)
		payload.Title = &title
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := loadManagedCourse(ctx, s.courses, actor, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if payload.Title != nil {
		course.Title = *payload.Title
	}
	if payload.Description != nil {
		course.Description = s.clean(*payload.Description)
	}
	if payload.Category != nil {
		course.Category = s.clean(*payload.Category)
	}
	if payload.Level != nil {
		course.Level = *payload.Level
	}
	if payload.Status != nil {
		course.Status = *payload.Status
	}
	if payload.InstructorID != nil && *payload.InstructorID != course.InstructorID {
		if !actor.IsAdmin() {
			return dto.CourseResponse{}, ErrForbidden
		}
		instructor, err := s.resolveInstructor(ctx, actor, *payload.InstructorID)
		if err != nil {
			return dto.CourseResponse{}, err
		}
		course.InstructorID = instructor.ID
		course.Instructor = instructor
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("actor_id", actor.ID).Msg("course updated")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	course, err := loadVisibleCourse(ctx, s.courses, actor, id)
	if err != nil {
		return err
	}

	if err := s.courses.Delete(ctx, course.ID); err != nil {
		return notFound(err, ErrCourseNotFound)
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("actor_id", actor.ID).Msg("course deleted")
	emit(ctx, s.events, EventCourseDeleted, actor, course.OrganizationID, course.ID, map[string]interface{}{
		"title": course.Title,
	})
	return nil
}

func (s *courseService) resolveInstructor(ctx context.Context, actor Actor, id uint) (models.User, error) {
	instructor, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, notFound(err, ErrInvalidInstructor)
	}
	if !actor.Owns(instructor.OrganizationID) || !instructor.CanTeach() {
		return models.User{}, ErrInvalidInstructor
	}
	return instructor, nil
}

func (s *courseService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

// loadVisibleCourse returns a course of the actor's organization, hiding inactive courses from students.
func loadVisibleCourse(ctx context.Context, courses repository.CourseRepository, actor Actor, id uint) (models.Course, error) {
	course, err := courses.GetByID(ctx, id)
	if err != nil {
		return models.Course{}, notFound(err, ErrCourseNotFound)
	}
	if !actor.Owns(course.OrganizationID) {
		return models.Course{}, ErrCourseNotFound
	}
	if actor.IsStudent() && !course.IsActive() {
		return models.Course{}, ErrCourseInactive
	}
	return course, nil
}

// loadManagedCourse returns a course the actor may edit: admins of the organization or its instructor.
func loadManagedCourse(ctx context.Context, courses repository.CourseRepository, actor Actor, id uint) (models.Course, error) {
	course, err := courses.GetByID(ctx, id)
	if err != nil {
		return models.Course{}, notFound(err, ErrCourseNotFound)
	}
	if !actor.Owns(course.OrganizationID) {
		return models.Course{}, ErrCourseNotFound
	}
	if !actor.IsAdmin() && course.InstructorID != actor.ID {
		return models.Course{}, ErrForbidden
	}
	return course, nil
}
