package models

import "time"

// LessonCompletion represents the one-time completion of a lesson within an
// enrollment. It exists only once the lesson's content and quiz predicates
// both hold; the row is never deleted or reverted.
type LessonCompletion struct {
	EnrollmentID int       `json:"enrollmentId"`
	LessonID     int       `json:"lessonId"`
	CompletedAt  time.Time `json:"completedAt"`
}

// ClaimResult represents the outcome of a unit or group claim
type ClaimResult struct {
	Success        bool   `json:"success"`
	AlreadyClaimed bool   `json:"alreadyClaimed"`
	Amount         int    `json:"amount"`
	Label          string `json:"label,omitempty"`
}

// CourseProgressResponse represents lesson progress within one course
type CourseProgressResponse struct {
	CourseID         int `json:"courseId"`
	CompletedLessons int `json:"completedLessons"`
	TotalLessons     int `json:"totalLessons"`
	Percent          int `json:"percent"`
}

// MilestoneResult represents one evaluated course milestone
type MilestoneResult struct {
	Threshold int    `json:"threshold"`
	Awarded   bool   `json:"awarded"`
	Amount    int    `json:"amount"`
	Label     string `json:"label"`
}
