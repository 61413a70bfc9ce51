package models

import "time"

// Organization is the tenant boundary grouping users and courses.
type Organization struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	SecretCode  string    `gorm:"size:128" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RequiresSecret reports whether joining the organization needs its secret code.
func (o Organization) RequiresSecret() bool {
	return o.SecretCode != ""
}
