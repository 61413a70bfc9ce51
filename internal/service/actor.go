package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/skillopus-api/internal/models"
)

var (
	// ErrForbidden indicates the caller may not perform the operation.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrInvalidInput wraps malformed requests that passed struct validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Actor identifies the authenticated caller of a use case.
type Actor struct {
	ID             uint
	Role           string
	OrganizationID uint
	Username       string
}

func (a Actor) IsAdmin() bool      { return a.Role == models.RoleAdmin }
func (a Actor) IsInstructor() bool { return a.Role == models.RoleInstructor }
func (a Actor) IsStudent() bool    { return a.Role == models.RoleStudent }

// IsStaff reports whether the actor administers or teaches.
func (a Actor) IsStaff() bool { return a.IsAdmin() || a.IsInstructor() }

// Owns reports whether the organization-scoped resource belongs to the actor's tenant.
func (a Actor) Owns(organizationID uint) bool {
	return organizationID != 0 && organizationID == a.OrganizationID
}

// notFound maps gorm.ErrRecordNotFound to the domain sentinel and passes other errors through.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
