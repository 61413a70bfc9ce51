package repository

import (
	"context"
	"database/sql"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/skillopus-api/internal/models"
)

// LessonRepository defines persistence operations for course lessons.
type LessonRepository interface {
	ListByCourse(ctx context.Context, courseID uint) ([]models.Lesson, error)
	GetByID(ctx context.Context, id uint) (models.Lesson, error)
	NextOrder(ctx context.Context, courseID uint) (int, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, lesson models.Lesson) error
}

type lessonRepository struct {
	db *gorm.DB
}

// NewLessonRepository instantiates a GORM-backed repository.
func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("lesson_order ASC, id ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepository) GetByID(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

func (r *lessonRepository) NextOrder(ctx context.Context, courseID uint) (int, error) {
	var maxOrder sql.NullInt64
	err := r.db.WithContext(ctx).Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Select("MAX(lesson_order)").
		Row().
		Scan(&maxOrder)
	if err != nil {
		return 0, err
	}
	if !maxOrder.Valid {
		return 1, nil
	}
	return int(maxOrder.Int64) + 1, nil
}

func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *lessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Save(lesson).Error
}

// Delete removes the lesson and prunes its progress entries from the course enrollments.
// The enrollment rows are locked first so a concurrent AppendProgress either lands before
// the prune or sees the lesson gone.
func (r *lessonRepository) Delete(ctx context.Context, lesson models.Lesson) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollments []models.Enrollment
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Where("course_id = ?", lesson.CourseID).
			Order("id").
			Find(&enrollments).Error
		if err != nil {
			return err
		}

		result := tx.Delete(&models.Lesson{}, lesson.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		for _, enrollment := range enrollments {
			kept, removed := enrollment.WithoutLesson(lesson.ID)
			if !removed {
				continue
			}
			err := tx.Model(&models.Enrollment{}).
				Where("id = ?", enrollment.ID).
				Update("progress", datatypes.NewJSONSlice(kept)).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
}
