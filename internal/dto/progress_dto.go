package dto

import (
	"time"

	"github.com/noah-isme/skillopus-api/internal/models"
)

// ProgressCreateRequest records completion of a lesson for a user.
type ProgressCreateRequest struct {
	UserID   uint  `json:"user_id" validate:"required,gt=0"`
	LessonID uint  `json:"lesson_id" validate:"required,gt=0"`
	Status   *bool `json:"status"`
}

// ProgressResponse is a single lesson progress entry.
type ProgressResponse struct {
	LessonID    uint       `json:"lesson_id"`
	Status      bool       `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
}

// NewProgressResponse converts an embedded progress entry into a DTO.
func NewProgressResponse(entry models.LessonProgress) ProgressResponse {
	return ProgressResponse{
		LessonID:    entry.LessonID,
		Status:      entry.Status,
		CompletedAt: entry.CompletedAt,
	}
}

// StudentProgress summarizes lesson completion of one student in a course.
type StudentProgress struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

// CourseProgressResponse carries either the instructor roster view or a single student view.
type CourseProgressResponse struct {
	CourseID       uint              `json:"course_id"`
	InstructorView bool              `json:"instructor_view"`
	Users          []StudentProgress `json:"users,omitempty"`
	Details        *StudentProgress  `json:"details,omitempty"`
}
