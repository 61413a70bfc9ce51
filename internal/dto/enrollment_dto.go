package dto

import (
	"time"

	"github.com/noah-isme/skillopus-api/internal/models"
)

// EnrollmentCreateRequest enrolls a user into a course.
type EnrollmentCreateRequest struct {
	UserID   uint   `json:"user_id" validate:"required,gt=0"`
	CourseID uint   `json:"course_id" validate:"required,gt=0"`
	Status   string `json:"status" validate:"omitempty,oneof=pending active completed dropped"`
}

// EnrollmentUpdateRequest sets enrollment fields directly.
type EnrollmentUpdateRequest struct {
	UserID   *uint   `json:"user_id" validate:"omitempty,gt=0"`
	CourseID *uint   `json:"course_id" validate:"omitempty,gt=0"`
	Status   *string `json:"status" validate:"omitempty,oneof=pending active completed dropped"`
}

// EnrollmentListRequest filters the organization enrollment listing.
type EnrollmentListRequest struct {
	Status    string `query:"status" validate:"omitempty,oneof=pending active completed dropped"`
	CourseID  uint   `query:"course_id"`
	StudentID uint   `query:"student_id"`
}

// EnrollmentListItem is a flattened enrollment row for admin tables.
type EnrollmentListItem struct {
	ID             uint      `json:"id"`
	Status         string    `json:"status"`
	EnrolledAt     time.Time `json:"enrolled_at"`
	StudentID      uint      `json:"user_id"`
	StudentName    string    `json:"student_name"`
	StudentEmail   string    `json:"student_email"`
	UserType       string    `json:"user_type"`
	CourseID       uint      `json:"course_id"`
	CourseTitle    string    `json:"course_title"`
	InstructorName string    `json:"instructor_name"`
}

// EnrollmentResponse is the detailed enrollment view.
type EnrollmentResponse struct {
	ID             uint               `json:"id"`
	UserID         uint               `json:"user_id"`
	StudentName    string             `json:"student_name"`
	CourseID       uint               `json:"course_id"`
	CourseTitle    string             `json:"course_title"`
	InstructorID   uint               `json:"instructor_id"`
	InstructorName string             `json:"instructor_name"`
	OrganizationID uint               `json:"organization_id"`
	Status         string             `json:"status"`
	EnrolledAt     time.Time          `json:"enrolled_at"`
	Progress       []ProgressResponse `json:"progress"`
}

func nameOr(user models.User, fallback string) string {
	if user.ID == 0 || user.Username == "" {
		return fallback
	}
	return user.Username
}

// NewEnrollmentListItem flattens an enrollment with its preloaded relations.
func NewEnrollmentListItem(model models.Enrollment) EnrollmentListItem {
	item := EnrollmentListItem{
		ID:             model.ID,
		Status:         model.Status,
		EnrolledAt:     model.EnrolledAt,
		StudentID:      model.StudentID,
		StudentName:    nameOr(model.Student, "Unknown"),
		StudentEmail:   model.Student.Email,
		UserType:       model.Student.Role,
		CourseID:       model.CourseID,
		CourseTitle:    "Unknown",
		InstructorName: nameOr(model.Course.Instructor, "Unknown"),
	}
	if model.Course.ID != 0 {
		item.CourseTitle = model.Course.Title
	}
	return item
}

// NewEnrollmentListItems flattens a slice of enrollments.
func NewEnrollmentListItems(enrollments []models.Enrollment) []EnrollmentListItem {
	items := make([]EnrollmentListItem, 0, len(enrollments))
	for _, enrollment := range enrollments {
		items = append(items, NewEnrollmentListItem(enrollment))
	}
	return items
}

// NewEnrollmentResponse converts an enrollment with relations into the detail DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	progress := make([]ProgressResponse, 0, len(model.Progress))
	for _, entry := range model.Progress {
		progress = append(progress, NewProgressResponse(entry))
	}

	return EnrollmentResponse{
		ID:             model.ID,
		UserID:         model.StudentID,
		StudentName:    nameOr(model.Student, "Unknown"),
		CourseID:       model.CourseID,
		CourseTitle:    model.Course.Title,
		InstructorID:   model.Course.InstructorID,
		InstructorName: nameOr(model.Course.Instructor, "Unknown"),
		OrganizationID: model.OrganizationID,
		Status:         model.Status,
		EnrolledAt:     model.EnrolledAt,
		Progress:       progress,
	}
}
