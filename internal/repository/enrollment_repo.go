package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/skillopus-api/internal/models"
)

// ErrLessonRemoved reports a progress entry for a lesson deleted before the entry was stored.
var ErrLessonRemoved = errors.New("lesson no longer exists")

// EnrollmentFilter describes enrollment listing options.
type EnrollmentFilter struct {
	OrganizationID uint
	CourseID       uint
	StudentID      uint
	Status         string
}

// EnrollmentRepository defines persistence operations for enrollments.
type EnrollmentRepository interface {
	List(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error)
	GetByID(ctx context.Context, id uint) (models.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment, resetProgress bool) error
	AppendProgress(ctx context.Context, id uint, entry models.LessonProgress) error
	Delete(ctx context.Context, id uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates a GORM-backed repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Student").
		Preload("Course").
		Preload("Course.Instructor")
}

func (r *enrollmentRepository) List(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error) {
	query := r.withRelations(ctx).Model(&models.Enrollment{})

	if filter.OrganizationID != 0 {
		query = query.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.CourseID != 0 {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.StudentID != 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var enrollments []models.Enrollment
	if err := query.Order("enrolled_at DESC, id DESC").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.withRelations(ctx).First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.Progress == nil {
		enrollment.Progress = datatypes.JSONSlice[models.LessonProgress]{}
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(enrollment).Error
}

// Update writes student, course and status. The progress list is left to AppendProgress
// unless resetProgress clears it.
func (r *enrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment, resetProgress bool) error {
	columns := []string{"student_id", "course_id", "status"}
	if resetProgress {
		enrollment.Progress = datatypes.JSONSlice[models.LessonProgress]{}
		columns = append(columns, "progress")
	}
	return r.db.WithContext(ctx).
		Model(enrollment).
		Select(columns).
		Omit(clause.Associations).
		Updates(enrollment).Error
}

// AppendProgress adds entry to the embedded progress list while holding the enrollment row lock.
// A second entry for the same lesson fails with gorm.ErrDuplicatedKey.
func (r *enrollmentRepository) AppendProgress(ctx context.Context, id uint, entry models.LessonProgress) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollment models.Enrollment
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			First(&enrollment, id).Error
		if err != nil {
			return err
		}
		if _, exists := enrollment.FindProgress(entry.LessonID); exists {
			return gorm.ErrDuplicatedKey
		}

		var lessons int64
		err = tx.Model(&models.Lesson{}).
			Where("id = ? AND course_id = ?", entry.LessonID, enrollment.CourseID).
			Count(&lessons).Error
		if err != nil {
			return err
		}
		if lessons == 0 {
			return ErrLessonRemoved
		}

		progress := append([]models.LessonProgress{}, enrollment.Progress...)
		progress = append(progress, entry)
		return tx.Model(&models.Enrollment{}).
			Where("id = ?", enrollment.ID).
			Update("progress", datatypes.NewJSONSlice(progress)).Error
	})
}

func (r *enrollmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Enrollment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
