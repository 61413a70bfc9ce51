package dto

import (
	"time"

	"github.com/noah-isme/skillopus-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Title        string `json:"title" validate:"required,min=3,max=255"`
	Description  string `json:"description" validate:"omitempty,max=5000"`
	Category     string `json:"category" validate:"omitempty,max=128"`
	Level        string `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	InstructorID uint   `json:"instructor_id" validate:"required,gt=0"`
	Status       string `json:"status" validate:"omitempty,oneof=draft active archived"`
}

// CourseUpdateRequest describes a partial course update.
type CourseUpdateRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	Category     *string `json:"category" validate:"omitempty,max=128"`
	Level        *string `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	InstructorID *uint   `json:"instructor_id" validate:"omitempty,gt=0"`
	Status       *string `json:"status" validate:"omitempty,oneof=draft active archived"`
}

// CourseListRequest filters the organization course listing.
type CourseListRequest struct {
	Status   string `query:"status" validate:"omitempty,oneof=draft active archived"`
	Category string `query:"category"`
	Level    string `query:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Search   string `query:"search"`
}

// CourseResponse is the serialized course returned to API clients.
type CourseResponse struct {
	ID             uint             `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Category       string           `json:"category"`
	Level          string           `json:"level"`
	Status         string           `json:"status"`
	InstructorID   uint             `json:"instructor_id"`
	Instructor     string           `json:"instructor"`
	OrganizationID uint             `json:"organization_id"`
	CreatedByID    *uint            `json:"created_by_id,omitempty"`
	LessonCount    int              `json:"lesson_count"`
	Lessons        []LessonResponse `json:"lessons,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// StudentCourseResponse is a course seen through a student's enrollment.
type StudentCourseResponse struct {
	CourseResponse
	EnrollmentID     uint   `json:"enrollment_id"`
	EnrollmentStatus string `json:"enrollment_status"`
}

// CatalogCourse is a course entry of the public catalog.
type CatalogCourse struct {
	ID               uint   `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	Level            string `json:"level"`
	InstructorID     uint   `json:"instructor_id"`
	OrganizationID   uint   `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	Status           string `json:"status"`
}

// CatalogGroup lists active courses of one organization.
type CatalogGroup struct {
	OrganizationID   uint            `json:"organization_id"`
	OrganizationName string          `json:"organization_name"`
	Courses          []CatalogCourse `json:"courses"`
}

// NewCourseResponse converts a model into a DTO. Lessons are embedded when loaded.
func NewCourseResponse(model models.Course) CourseResponse {
	response := CourseResponse{
		ID:             model.ID,
		Title:          model.Title,
		Description:    model.Description,
		Category:       model.Category,
		Level:          model.Level,
		Status:         model.Status,
		InstructorID:   model.InstructorID,
		Instructor:     "Unknown",
		OrganizationID: model.OrganizationID,
		CreatedByID:    model.CreatedByID,
		LessonCount:    len(model.Lessons),
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}

	if model.Instructor.ID != 0 {
		response.Instructor = model.Instructor.Username
	}

	if len(model.Lessons) > 0 {
		response.Lessons = NewLessonResponseSlice(model.Lessons)
	}

	return response
}

// NewCourseResponseSlice converts course models into DTOs without lesson bodies.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		response := NewCourseResponse(course)
		response.Lessons = nil
		responses = append(responses, response)
	}
	return responses
}

// LessonCreateRequest describes a new lesson. ContentURL may be replaced by an uploaded file.
type LessonCreateRequest struct {
	Title       string `form:"title" json:"title" validate:"required,min=1,max=255"`
	ContentURL  string `form:"content_url" json:"content_url" validate:"omitempty,url,max=1024"`
	LessonOrder *int   `form:"lesson_order" json:"lesson_order" validate:"omitempty,gte=0"`
}

// LessonUpdateRequest describes a partial lesson update.
type LessonUpdateRequest struct {
	Title       *string `form:"title" json:"title" validate:"omitempty,min=1,max=255"`
	ContentURL  *string `form:"content_url" json:"content_url" validate:"omitempty,url,max=1024"`
	LessonOrder *int    `form:"lesson_order" json:"lesson_order" validate:"omitempty,gte=0"`
}

// LessonResponse is the serialized lesson.
type LessonResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	Title       string    `json:"title"`
	ContentURL  string    `json:"content_url"`
	LessonOrder int       `json:"lesson_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewLessonResponse converts a model into a DTO.
func NewLessonResponse(model models.Lesson) LessonResponse {
	return LessonResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		Title:       model.Title,
		ContentURL:  model.ContentURL,
		LessonOrder: model.LessonOrder,
		CreatedAt:   model.CreatedAt,
	}
}

// NewLessonResponseSlice converts lesson models into DTOs.
func NewLessonResponseSlice(lessons []models.Lesson) []LessonResponse {
	responses := make([]LessonResponse, 0, len(lessons))
	for _, lesson := range lessons {
		responses = append(responses, NewLessonResponse(lesson))
	}
	return responses
}
