package dto

import (
	"time"

	"github.com/noah-isme/skillopus-api/internal/models"
)

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=64"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=5"`
	Role           string `json:"user_type" validate:"omitempty,oneof=student instructor admin"`
	Contact        string `json:"contact" validate:"omitempty,max=64"`
	OrganizationID uint   `json:"organization_id" validate:"required,gt=0"`
	Department     string `json:"department" validate:"omitempty,max=255"`
	SecretCode     string `json:"secret_code"`
}

// LoginRequest carries credentials for token issuance.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the signed token with the authenticated profile.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public representation of a user account.
type UserResponse struct {
	ID               uint      `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Role             string    `json:"user_type"`
	Contact          string    `json:"contact,omitempty"`
	Department       string    `json:"department,omitempty"`
	OrganizationID   uint      `json:"organization_id"`
	OrganizationName string    `json:"organization_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:               model.ID,
		Username:         model.Username,
		Email:            model.Email,
		Role:             model.Role,
		Contact:          model.Contact,
		Department:       model.Department,
		OrganizationID:   model.OrganizationID,
		OrganizationName: model.Organization.Name,
		CreatedAt:        model.CreatedAt,
	}
}

// NewUserResponseSlice converts user models into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}
	return responses
}

// UserListRequest filters the admin user listing.
type UserListRequest struct {
	Role     string `query:"role" validate:"omitempty,oneof=student instructor admin"`
	Search   string `query:"search"`
	Page     int    `query:"page" validate:"omitempty,gte=0"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=0,lte=100"`
}

// UserUpdateRequest is the admin payload for editing a user.
type UserUpdateRequest struct {
	Username   *string `json:"username" validate:"omitempty,min=3,max=64"`
	Contact    *string `json:"contact" validate:"omitempty,max=64"`
	Role       *string `json:"user_type" validate:"omitempty,oneof=student instructor admin"`
	Department *string `json:"department" validate:"omitempty,max=255"`
}
