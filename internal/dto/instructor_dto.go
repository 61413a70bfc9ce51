package dto

import "github.com/noah-isme/skillopus-api/internal/models"

// InstructorAssignRequest promotes an existing user to instructor.
type InstructorAssignRequest struct {
	InstructorID uint   `json:"instructor_id" validate:"required,gt=0"`
	Department   string `json:"department" validate:"omitempty,max=255"`
}

// InstructorUpdateRequest edits instructor-specific fields.
type InstructorUpdateRequest struct {
	Department string `json:"department" validate:"max=255"`
}

// InstructorResponse lists an instructor with their teaching load.
type InstructorResponse struct {
	ID           uint   `json:"id"`
	InstructorID uint   `json:"instructor_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Contact      string `json:"contact"`
	Department   string `json:"department"`
	CourseCount  int64  `json:"course_count"`
}

// NewInstructorResponse converts a user model into the instructor DTO.
func NewInstructorResponse(model models.User, courseCount int64) InstructorResponse {
	return InstructorResponse{
		ID:           model.ID,
		InstructorID: model.ID,
		Username:     model.Username,
		Email:        model.Email,
		Contact:      model.Contact,
		Department:   model.Department,
		CourseCount:  courseCount,
	}
}
