package models

import "time"

// QuizAttempt represents a single submitted quiz attempt. Attempts are
// immutable once created; an enrollment may hold many attempts per lesson.
type QuizAttempt struct {
	ID           int       `json:"id"`
	EnrollmentID int       `json:"enrollmentId"`
	LessonID     int       `json:"lessonId"`
	Score        int       `json:"score"`
	Total        int       `json:"total"`
	EarnedPoints int       `json:"earnedPoints"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SubmitQuizRequest represents a request to submit a quiz attempt
type SubmitQuizRequest struct {
	CourseID int `json:"courseId"`
	LessonID int `json:"lessonId"`
	Score    int `json:"score"`
	Total    int `json:"total"`
}

// SubmitQuizResult represents the outcome of submitting a quiz attempt
type SubmitQuizResult struct {
	AttemptID         int  `json:"attemptId"`
	Passed            bool `json:"passed"`
	IsRetry           bool `json:"isRetry"`
	RewardAwarded     bool `json:"rewardAwarded"`
	RewardAmount      int  `json:"rewardAmount"`
	LessonComplete    bool `json:"lessonComplete"`
	UnitRewardAwarded bool `json:"unitRewardAwarded"`
}
