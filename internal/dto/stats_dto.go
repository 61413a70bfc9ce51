package dto

import "time"

// AdminStatsResponse aggregates organization-wide counters.
type AdminStatsResponse struct {
	TotalUsers         int64            `json:"totalUsers"`
	TotalCourses       int64            `json:"totalCourses"`
	ActiveUsers        int64            `json:"activeUsers"`
	PendingEnrollments int64            `json:"pendingEnrollments"`
	UsersByRole        map[string]int64 `json:"usersByRole"`
	GeneratedAt        time.Time        `json:"generatedAt"`
	CacheHit           bool             `json:"cacheHit"`
}

// InstructorStatsResponse summarizes an instructor's teaching load.
type InstructorStatsResponse struct {
	TotalCourses  int64 `json:"totalCourses"`
	TotalStudents int64 `json:"totalStudents"`
}

// StudentStatsResponse summarizes a student's enrollments.
type StudentStatsResponse struct {
	TotalCourses     int64 `json:"totalCourses"`
	CompletedCourses int64 `json:"completedCourses"`
	AverageProgress  int   `json:"averageProgress"`
}

// CourseStatsResponse summarizes a single course.
type CourseStatsResponse struct {
	TotalLessons     int64 `json:"totalLessons"`
	EnrolledStudents int64 `json:"enrolledStudents"`
}
