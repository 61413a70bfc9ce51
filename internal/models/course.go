package models

import "time"

const (
	CourseStatusDraft    = "draft"
	CourseStatusActive   = "active"
	CourseStatusArchived = "archived"
)

const (
	CourseLevelBeginner     = "Beginner"
	CourseLevelIntermediate = "Intermediate"
	CourseLevelAdvanced     = "Advanced"
)

// Course groups an ordered list of lessons taught by one instructor.
type Course struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	Title          string       `gorm:"size:255;not null" json:"title"`
	Description    string       `gorm:"type:text" json:"description"`
	Category       string       `gorm:"size:128;index" json:"category"`
	Level          string       `gorm:"size:32;not null;default:Beginner" json:"level"`
	Status         string       `gorm:"size:32;not null;default:draft;index" json:"status"`
	InstructorID   uint         `gorm:"not null;index" json:"instructor_id"`
	Instructor     User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"instructor"`
	OrganizationID uint         `gorm:"not null;index" json:"organization_id"`
	Organization   Organization `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"organization"`
	CreatedByID    *uint        `json:"created_by_id"`
	Lessons        []Lesson     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"lessons"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsActive reports whether students may see the course.
func (c Course) IsActive() bool {
	return c.Status == CourseStatusActive
}

// Lesson is one unit of content inside a course.
type Lesson struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	ContentURL  string    `gorm:"size:1024;not null" json:"content_url"`
	LessonOrder int       `gorm:"not null" json:"lesson_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
