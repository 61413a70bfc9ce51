package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

// ErrCannotDeleteSelf prevents admins from removing their own account.
var ErrCannotDeleteSelf = errors.New("admins cannot delete their own account")

const defaultUserPageSize = 20

// UserService implements admin oversight of an organization's accounts.
type UserService interface {
	List(ctx context.Context, actor Actor, req dto.UserListRequest) ([]dto.UserResponse, dto.PaginationMeta, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.UserResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type userService struct {
	users     repository.UserRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserService constructs the user administration service.
func NewUserService(users repository.UserRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		courses:   courses,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, actor Actor, req dto.UserListRequest) ([]dto.UserResponse, dto.PaginationMeta, error) {
	if !actor.IsAdmin() {
		return nil, dto.PaginationMeta{}, ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultUserPageSize
	}

	users, total, err := s.users.List(ctx, repository.UserFilter{
		OrganizationID: actor.OrganizationID,
		Role:           req.Role,
		Search:         req.Search,
		Page:           req.Page,
		PageSize:       req.PageSize,
	})
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	return dto.NewUserResponseSlice(users), dto.NewPaginationMeta(req.Page, req.PageSize, total), nil
}

func (s *userService) Get(ctx context.Context, actor Actor, id uint) (dto.UserResponse, error) {
	user, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, actor Actor, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.UserResponse{}, err
	}

	if payload.Username != nil {
		user.Username = strings.TrimSpace(*payload.Username)
	}
	if payload.Contact != nil {
		user.Contact = strings.TrimSpace(*payload.Contact)
	}
	if payload.Role != nil && *payload.Role != user.Role {
		if !models.IsValidRole(*payload.Role) {
			return dto.UserResponse{}, ErrInvalidInput
		}
		demoted := user
		demoted.Role = *payload.Role
		if user.CanTeach() && !demoted.CanTeach() {
			if err := s.ensureNotTeaching(ctx, user); err != nil {
				return dto.UserResponse{}, err
			}
		}
		user.Role = *payload.Role
	}
	if payload.Department != nil {
		user.Department = strings.TrimSpace(*payload.Department)
	}
	if user.Role != models.RoleInstructor {
		user.Department = ""
	}

	if err := s.users.Update(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrUserExists
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Uint("actor_id", actor.ID).Msg("user updated")
	return dto.NewUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, actor Actor, id uint) error {
	if actor.ID == id {
		return ErrCannotDeleteSelf
	}

	user, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}

	if user.CanTeach() {
		if err := s.ensureNotTeaching(ctx, user); err != nil {
			return err
		}
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return notFound(err, ErrUserNotFound)
	}

	s.logger.Info().Uint("user_id", user.ID).Uint("actor_id", actor.ID).Msg("user deleted")
	return nil
}

func (s *userService) load(ctx context.Context, actor Actor, id uint) (models.User, error) {
	if !actor.IsAdmin() {
		return models.User{}, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, notFound(err, ErrUserNotFound)
	}
	if !actor.Owns(user.OrganizationID) {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

// ensureNotTeaching fails while the user is still the instructor of any course.
func (s *userService) ensureNotTeaching(ctx context.Context, user models.User) error {
	count, err := s.courses.CountByInstructor(ctx, user.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrInstructorHasCourses
	}
	return nil
}
