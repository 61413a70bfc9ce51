package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EnrollmentStatusPending   = "pending"
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusDropped   = "dropped"
)

// LessonProgress records completion of one lesson inside an enrollment.
type LessonProgress struct {
	LessonID    uint       `json:"lesson_id"`
	Status      bool       `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Enrollment links a student to a course. At most one exists per student and course.
type Enrollment struct {
	ID             uint                                `gorm:"primaryKey" json:"id"`
	StudentID      uint                                `gorm:"not null;uniqueIndex:idx_enrollment_student_course" json:"student_id"`
	CourseID       uint                                `gorm:"not null;uniqueIndex:idx_enrollment_student_course;index" json:"course_id"`
	OrganizationID uint                                `gorm:"not null;index" json:"organization_id"`
	Status         string                              `gorm:"size:32;not null;default:pending;index" json:"status"`
	EnrolledAt     time.Time                           `gorm:"not null" json:"enrolled_at"`
	Progress       datatypes.JSONSlice[LessonProgress] `json:"progress"`
	Student        User                                `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Course         Course                              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
	UpdatedAt      time.Time                           `json:"updated_at"`
}

// IsValidEnrollmentStatus reports whether status is one of the enumerated values.
func IsValidEnrollmentStatus(status string) bool {
	switch status {
	case EnrollmentStatusPending, EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusDropped:
		return true
	default:
		return false
	}
}

// FindProgress returns the progress entry recorded for lessonID, if any.
func (e Enrollment) FindProgress(lessonID uint) (LessonProgress, bool) {
	for _, entry := range e.Progress {
		if entry.LessonID == lessonID {
			return entry, true
		}
	}
	return LessonProgress{}, false
}

// CompletedLessons counts completed entries whose lesson is still in lessonIDs.
// A nil set counts every completed entry.
func (e Enrollment) CompletedLessons(lessonIDs map[uint]struct{}) int {
	count := 0
	for _, entry := range e.Progress {
		if !entry.Status {
			continue
		}
		if lessonIDs != nil {
			if _, ok := lessonIDs[entry.LessonID]; !ok {
				continue
			}
		}
		count++
	}
	return count
}

// WithoutLesson returns the progress list minus entries for lessonID.
func (e Enrollment) WithoutLesson(lessonID uint) ([]LessonProgress, bool) {
	kept := make([]LessonProgress, 0, len(e.Progress))
	removed := false
	for _, entry := range e.Progress {
		if entry.LessonID == lessonID {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	return kept, removed
}

// ProgressPercent rounds completed/total to the nearest whole percent.
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(completed)*100/float64(total) + 0.5)
}
