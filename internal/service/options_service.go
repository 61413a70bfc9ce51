package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

// OptionsService feeds form pickers.
type OptionsService interface {
	EnrollmentOptions(ctx context.Context, actor Actor) (dto.EnrollmentOptionsResponse, error)
	Organizations(ctx context.Context) ([]dto.OrganizationOption, error)
}

type optionsService struct {
	users   repository.UserRepository
	courses repository.CourseRepository
	orgs    repository.OrganizationRepository
	logger  zerolog.Logger
}

// NewOptionsService constructs the options service.
func NewOptionsService(users repository.UserRepository, courses repository.CourseRepository, orgs repository.OrganizationRepository, logger zerolog.Logger) OptionsService {
	return &optionsService{
		users:   users,
		courses: courses,
		orgs:    orgs,
		logger:  logger.With().Str("component", "options_service").Logger(),
	}
}

func (s *optionsService) EnrollmentOptions(ctx context.Context, actor Actor) (dto.EnrollmentOptionsResponse, error) {
	if !actor.IsStaff() {
		return dto.EnrollmentOptionsResponse{}, ErrForbidden
	}

	students, _, err := s.users.List(ctx, repository.UserFilter{OrganizationID: actor.OrganizationID, Role: models.RoleStudent})
	if err != nil {
		return dto.EnrollmentOptionsResponse{}, err
	}
	instructors, _, err := s.users.List(ctx, repository.UserFilter{OrganizationID: actor.OrganizationID, Role: models.RoleInstructor})
	if err != nil {
		return dto.EnrollmentOptionsResponse{}, err
	}
	courses, err := s.courses.List(ctx, repository.CourseFilter{OrganizationID: actor.OrganizationID})
	if err != nil {
		return dto.EnrollmentOptionsResponse{}, err
	}

	response := dto.EnrollmentOptionsResponse{
		Users:       make([]dto.SelectOption, 0, len(students)),
		Courses:     make([]dto.SelectOption, 0, len(courses)),
		Instructors: make([]dto.SelectOption, 0, len(instructors)),
	}
	for _, student := range students {
		response.Users = append(response.Users, dto.SelectOption{Value: student.ID, Label: student.Username, Email: student.Email})
	}
	for _, course := range courses {
		response.Courses = append(response.Courses, dto.SelectOption{Value: course.ID, Label: course.Title})
	}
	for _, instructor := range instructors {
		response.Instructors = append(response.Instructors, dto.SelectOption{Value: instructor.ID, Label: instructor.Username})
	}
	return response, nil
}

func (s *optionsService) Organizations(ctx context.Context) ([]dto.OrganizationOption, error) {
	orgs, err := s.orgs.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewOrganizationOptions(orgs), nil
}
