package dto

import (
	"time"

	"github.com/noah-isme/skillopus-api/internal/models"
)

// OrganizationCreateRequest registers a new tenant.
type OrganizationCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	SecretCode  string `json:"secret_code" validate:"omitempty,max=128"`
}

// OrganizationUpdateRequest edits tenant metadata.
type OrganizationUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	SecretCode  *string `json:"secret_code" validate:"omitempty,max=128"`
}

// OrganizationResponse is the full organization representation.
type OrganizationResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	HasSecret   bool      `json:"has_secret_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OrganizationOption is the id/name pair used by public pickers.
type OrganizationOption struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// NewOrganizationResponse converts a model into a DTO.
func NewOrganizationResponse(model models.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		HasSecret:   model.RequiresSecret(),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewOrganizationOptions reduces organizations to id/name pairs.
func NewOrganizationOptions(orgs []models.Organization) []OrganizationOption {
	options := make([]OrganizationOption, 0, len(orgs))
	for _, org := range orgs {
		options = append(options, OrganizationOption{ID: org.ID, Name: org.Name})
	}
	return options
}
