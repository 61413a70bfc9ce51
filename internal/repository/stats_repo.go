package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skillopus-api/internal/models"
)

// EnrollmentScope narrows enrollment aggregates. Zero fields are ignored.
type EnrollmentScope struct {
	OrganizationID uint
	StudentID      uint
	CourseIDs      []uint
	Status         string
}

// StatsRepository runs the aggregate queries behind the statistics endpoints.
type StatsRepository interface {
	CountDistinctStudents(ctx context.Context, scope EnrollmentScope) (int64, error)
	CountEnrollments(ctx context.Context, scope EnrollmentScope) (int64, error)
	CountCourses(ctx context.Context, organizationID, instructorID uint) (int64, error)
	CourseIDsByInstructor(ctx context.Context, instructorID uint) ([]uint, error)
	CountUsersByRole(ctx context.Context, organizationID uint) (map[string]int64, error)
	CountLessons(ctx context.Context, courseID uint) (int64, error)
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository constructs the statistics repository.
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) scoped(ctx context.Context, scope EnrollmentScope) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Enrollment{})
	if scope.OrganizationID != 0 {
		query = query.Where("organization_id = ?", scope.OrganizationID)
	}
	if scope.StudentID != 0 {
		query = query.Where("student_id = ?", scope.StudentID)
	}
	if scope.CourseIDs != nil {
		query = query.Where("course_id IN ?", scope.CourseIDs)
	}
	if scope.Status != "" {
		query = query.Where("status = ?", scope.Status)
	}
	return query
}

func (r *statsRepository) CountDistinctStudents(ctx context.Context, scope EnrollmentScope) (int64, error) {
	if scope.CourseIDs != nil && len(scope.CourseIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.scoped(ctx, scope).Distinct("student_id").Count(&count).Error
	return count, err
}

func (r *statsRepository) CountEnrollments(ctx context.Context, scope EnrollmentScope) (int64, error) {
	if scope.CourseIDs != nil && len(scope.CourseIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.scoped(ctx, scope).Count(&count).Error
	return count, err
}

func (r *statsRepository) CountCourses(ctx context.Context, organizationID, instructorID uint) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})
	if organizationID != 0 {
		query = query.Where("organization_id = ?", organizationID)
	}
	if instructorID != 0 {
		query = query.Where("instructor_id = ?", instructorID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *statsRepository) CourseIDsByInstructor(ctx context.Context, instructorID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("instructor_id = ?", instructorID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *statsRepository) CountUsersByRole(ctx context.Context, organizationID uint) (map[string]int64, error) {
	var rows []struct {
		Role  string
		Total int64
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("role, COUNT(*) AS total").
		Where("organization_id = ?", organizationID).
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{
		models.RoleStudent:    0,
		models.RoleInstructor: 0,
		models.RoleAdmin:      0,
	}
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}

func (r *statsRepository) CountLessons(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}
