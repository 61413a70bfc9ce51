package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/observability"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

var (
	// ErrUserExists indicates the email or username is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates the email/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownOrganization indicates a referenced organization does not exist.
	ErrUnknownOrganization = errors.New("organization does not exist")
	// ErrInvalidSecretCode indicates the organization secret code did not match.
	ErrInvalidSecretCode = errors.New("invalid organization secret code")
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// AuthService registers accounts and issues access tokens.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	orgs      repository.OrganizationRepository
	validator *validator.Validate
	secret    []byte
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the authentication service.
func NewAuthService(users repository.UserRepository, orgs repository.OrganizationRepository, validate *validator.Validate, secret string, ttl time.Duration, logger zerolog.Logger) AuthService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &authService{
		users:     users,
		orgs:      orgs,
		validator: validate,
		secret:    []byte(secret),
		ttl:       ttl,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error) {
	payload.Username = strings.TrimSpace(payload.Username)
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	org, err := s.orgs.GetByID(ctx, payload.OrganizationID)
	if err != nil {
		return dto.UserResponse{}, notFound(err, ErrUnknownOrganization)
	}
	if org.RequiresSecret() && payload.SecretCode != org.SecretCode {
		observability.AuthAttemptsTotal().WithLabelValues("register", "rejected").Inc()
		return dto.UserResponse{}, ErrInvalidSecretCode
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, payload.Email, payload.Username)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if exists {
		observability.AuthAttemptsTotal().WithLabelValues("register", "rejected").Inc()
		return dto.UserResponse{}, ErrUserExists
	}

	role := payload.Role
	if role == "" {
		role = models.RoleStudent
	}

	user := models.User{
		Username:       payload.Username,
		Email:          payload.Email,
		Role:           role,
		Contact:        strings.TrimSpace(payload.Contact),
		OrganizationID: org.ID,
	}
	if role == models.RoleInstructor {
		user.Department = strings.TrimSpace(payload.Department)
	}
	if err := user.SetPassword(payload.Password); err != nil {
		return dto.UserResponse{}, err
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrUserExists
		}
		return dto.UserResponse{}, err
	}
	user.Organization = org

	observability.AuthAttemptsTotal().WithLabelValues("register", "success").Inc()
	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Uint("organization_id", org.ID).Msg("user registered")

	return dto.NewUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.AuthAttemptsTotal().WithLabelValues("login", "rejected").Inc()
			s.logger.Warn().Str("email", maskEmailAddress(payload.Email)).Msg("login rejected: unknown email")
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if !user.CheckPassword(payload.Password) {
		observability.AuthAttemptsTotal().WithLabelValues("login", "rejected").Inc()
		s.logger.Warn().Uint("user_id", user.ID).Str("email", maskEmailAddress(user.Email)).Msg("login rejected: wrong password")
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issueToken(user)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	observability.AuthAttemptsTotal().WithLabelValues("login", "success").Inc()
	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	return dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}, nil
}

func (s *authService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, notFound(err, ErrUserNotFound)
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) issueToken(user models.User) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub":             strconv.FormatUint(uint64(user.ID), 10),
		"role":            user.Role,
		"organization_id": user.OrganizationID,
		"username":        user.Username,
		"iat":             issuedAt.Unix(),
		"exp":             expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
