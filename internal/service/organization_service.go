package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

var (
	// ErrOrganizationNotFound indicates the organization does not exist or is not visible to the caller.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrOrganizationExists indicates the organization name is taken.
	ErrOrganizationExists = errors.New("organization already exists")
	// ErrOrganizationInUse indicates users or courses still reference the organization.
	ErrOrganizationInUse = errors.New("organization still has members or courses")
)

// OrganizationService manages tenants.
type OrganizationService interface {
	Create(ctx context.Context, payload dto.OrganizationCreateRequest) (dto.OrganizationResponse, error)
	List(ctx context.Context) ([]dto.OrganizationOption, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.OrganizationResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.OrganizationUpdateRequest) (dto.OrganizationResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type organizationService struct {
	repo      repository.OrganizationRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewOrganizationService constructs the organization service.
func NewOrganizationService(repo repository.OrganizationRepository, validate *validator.Validate, logger zerolog.Logger) OrganizationService {
	return &organizationService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "organization_service").Logger(),
	}
}

func (s *organizationService) Create(ctx context.Context, payload dto.OrganizationCreateRequest) (dto.OrganizationResponse, error) {
	payload.Name = strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	if err := s.validator.Struct(payload); err != nil {
		return dto.OrganizationResponse{}, err
	}

	if _, err := s.repo.GetByName(ctx, payload.Name); err == nil {
		return dto.OrganizationResponse{}, ErrOrganizationExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.OrganizationResponse{}, err
	}

	org := models.Organization{
		Name:        payload.Name,
		Description: strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		SecretCode:  strings.TrimSpace(payload.SecretCode),
	}
	if err := s.repo.Create(ctx, &org); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.OrganizationResponse{}, ErrOrganizationExists
		}
		return dto.OrganizationResponse{}, err
	}

	s.logger.Info().Uint("organization_id", org.ID).Str("name", org.Name).Msg("organization created")
	return dto.NewOrganizationResponse(org), nil
}

func (s *organizationService) List(ctx context.Context) ([]dto.OrganizationOption, error) {
	orgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewOrganizationOptions(orgs), nil
}

func (s *organizationService) Get(ctx context.Context, actor Actor, id uint) (dto.OrganizationResponse, error) {
	if !actor.Owns(id) {
		return dto.OrganizationResponse{}, ErrOrganizationNotFound
	}

	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.OrganizationResponse{}, notFound(err, ErrOrganizationNotFound)
	}
	return dto.NewOrganizationResponse(org), nil
}

func (s *organizationService) Update(ctx context.Context, actor Actor, id uint, payload dto.OrganizationUpdateRequest) (dto.OrganizationResponse, error) {
	if payload.Name != nil {
		name := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Name))
		payload.Name = &name
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.OrganizationResponse{}, err
	}

	org, err := s.loadForAdmin(ctx, actor, id)
	if err != nil {
		return dto.OrganizationResponse{}, err
	}

	if payload.Name != nil {
		org.Name = *payload.Name
	}
	if payload.Description != nil {
		org.Description = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
	}
	if payload.SecretCode != nil {
		org.SecretCode = strings.TrimSpace(*payload.SecretCode)
	}

	if err := s.repo.Update(ctx, &org); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.OrganizationResponse{}, ErrOrganizationExists
		}
		return dto.OrganizationResponse{}, err
	}

	s.logger.Info().Uint("organization_id", org.ID).Uint("actor_id", actor.ID).Msg("organization updated")
	return dto.NewOrganizationResponse(org), nil
}

func (s *organizationService) Delete(ctx context.Context, actor Actor, id uint) error {
	org, err := s.loadForAdmin(ctx, actor, id)
	if err != nil {
		return err
	}

	users, courses, err := s.repo.CountMembers(ctx, org.ID, actor.ID)
	if err != nil {
		return err
	}
	if users > 0 || courses > 0 {
		return ErrOrganizationInUse
	}

	if err := s.repo.Delete(ctx, org.ID); err != nil {
		return notFound(err, ErrOrganizationNotFound)
	}

	s.logger.Info().Uint("organization_id", org.ID).Uint("actor_id", actor.ID).Msg("organization deleted")
	return nil
}

func (s *organizationService) loadForAdmin(ctx context.Context, actor Actor, id uint) (models.Organization, error) {
	if !actor.Owns(id) {
		return models.Organization{}, ErrOrganizationNotFound
	}
	if !actor.IsAdmin() {
		return models.Organization{}, ErrForbidden
	}

	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.Organization{}, notFound(err, ErrOrganizationNotFound)
	}
	return org, nil
}
