package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// RoleStudent is the default role for registered users.
	RoleStudent = "student"
	// RoleInstructor authors lessons for the courses assigned to them.
	RoleInstructor = "instructor"
	// RoleAdmin manages users, courses and enrollments of an organization.
	RoleAdmin = "admin"
)

// User is an account belonging to exactly one organization.
type User struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	Username       string       `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Email          string       `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string       `gorm:"size:255;not null" json:"-"`
	Role           string       `gorm:"size:32;not null;default:student;index" json:"role"`
	Contact        string       `gorm:"size:64" json:"contact"`
	Department     string       `gorm:"size:255" json:"department"`
	OrganizationID uint         `gorm:"not null;index" json:"organization_id"`
	Organization   Organization `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"organization"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsValidRole reports whether role is one of the known user roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}

// SetPassword hashes and stores the plain text password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares a plain text password against the stored hash.
func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// CanTeach reports whether the user may be assigned as a course instructor.
func (u User) CanTeach() bool {
	return u.Role == RoleInstructor || u.Role == RoleAdmin
}
