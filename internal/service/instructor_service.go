package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

var (
	// ErrInstructorNotFound indicates the user is missing or not an instructor.
	ErrInstructorNotFound = errors.New("instructor not found")
	// ErrInstructorHasCourses blocks demoting an instructor who still teaches.
	ErrInstructorHasCourses = errors.New("instructor still teaches courses")
	// ErrAlreadyInstructor indicates the user already holds the instructor role.
	ErrAlreadyInstructor = errors.New("user is already an instructor")
)

// InstructorService manages instructor roles inside an organization.
type InstructorService interface {
	List(ctx context.Context, actor Actor) ([]dto.InstructorResponse, error)
	Assign(ctx context.Context, actor Actor, payload dto.InstructorAssignRequest) (dto.InstructorResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.InstructorUpdateRequest) (dto.InstructorResponse, error)
	Remove(ctx context.Context, actor Actor, id uint) error
}

type instructorService struct {
	users     repository.UserRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewInstructorService constructs the instructor service.
func NewInstructorService(users repository.UserRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) InstructorService {
	return &instructorService{
		users:     users,
		courses:   courses,
		validator: validate,
		logger:    logger.With().Str("component", "instructor_service").Logger(),
	}
}

func (s *instructorService) List(ctx context.Context, actor Actor) ([]dto.InstructorResponse, error) {
	users, _, err := s.users.List(ctx, repository.UserFilter{OrganizationID: actor.OrganizationID, Role: models.RoleInstructor})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.InstructorResponse, 0, len(users))
	for _, user := range users {
		count, err := s.courses.CountByInstructor(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewInstructorResponse(user, count))
	}
	return responses, nil
}

func (s *instructorService) Assign(ctx context.Context, actor Actor, payload dto.InstructorAssignRequest) (dto.InstructorResponse, error) {
	if !actor.IsAdmin() {
		return dto.InstructorResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.InstructorResponse{}, err
	}

	user, err := s.users.GetByID(ctx, payload.InstructorID)
	if err != nil {
		return dto.InstructorResponse{}, notFound(err, ErrUserNotFound)
	}
	if !actor.Owns(user.OrganizationID) {
		return dto.InstructorResponse{}, ErrUserNotFound
	}
	if user.Role == models.RoleInstructor {
		return dto.InstructorResponse{}, ErrAlreadyInstructor
	}
	if user.Role == models.RoleAdmin {
		return dto.InstructorResponse{}, ErrInvalidInput
	}

	user.Role = models.RoleInstructor
	user.Department = strings.TrimSpace(payload.Department)
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.InstructorResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Uint("actor_id", actor.ID).Msg("instructor assigned")
	return dto.NewInstructorResponse(user, 0), nil
}

func (s *instructorService) Update(ctx context.Context, actor Actor, id uint, payload dto.InstructorUpdateRequest) (dto.InstructorResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InstructorResponse{}, err
	}

	user, err := s.loadInstructor(ctx, actor, id)
	if err != nil {
		return dto.InstructorResponse{}, err
	}

	user.Department = strings.TrimSpace(payload.Department)
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.InstructorResponse{}, err
	}

	count, err := s.courses.CountByInstructor(ctx, user.ID)
	if err != nil {
		return dto.InstructorResponse{}, err
	}
	return dto.NewInstructorResponse(user, count), nil
}

func (s *instructorService) Remove(ctx context.Context, actor Actor, id uint) error {
	user, err := s.loadInstructor(ctx, actor, id)
	if err != nil {
		return err
	}

	count, err := s.courses.CountByInstructor(ctx, user.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrInstructorHasCourses
	}

	user.Role = models.RoleStudent
	user.Department = ""
	if err := s.users.Update(ctx, &user); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Uint("actor_id", actor.ID).Msg("instructor removed")
	return nil
}

func (s *instructorService) loadInstructor(ctx context.Context, actor Actor, id uint) (models.User, error) {
	if !actor.IsAdmin() {
		return models.User{}, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, notFound(err, ErrInstructorNotFound)
	}
	if !actor.Owns(user.OrganizationID) || user.Role != models.RoleInstructor {
		return models.User{}, ErrInstructorNotFound
	}
	return user, nil
}
